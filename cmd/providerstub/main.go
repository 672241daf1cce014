package main

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// providerstub serves fake versions of every search backend so the adapters
// can be pointed at one local address for offline development and smoke
// tests:
//
//	gosearch -jina.base http://localhost:8082/v1 \
//	         -serp.base http://localhost:8082 \
//	         -ddg.base  http://localhost:8082 \
//	         -gemini.base http://localhost:8082 ...

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	Tools []json.RawMessage `json:"tools"`
}

func main() {
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8082"
	}

	mux := http.NewServeMux()

	// Jina DeepSearch speaks the OpenAI chat shape.
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		q := "your question"
		if n := len(req.Messages); n > 0 {
			q = strings.TrimSpace(req.Messages[n-1].Content)
		}
		content := "Stub research notes about " + q + "."
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})

	// SerpAPI organic results.
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		n, _ := strconv.Atoi(r.URL.Query().Get("num"))
		if n < 1 || n > 10 {
			n = 3
		}
		results := make([]map[string]any, 0, n)
		for i := 1; i <= n; i++ {
			results = append(results, map[string]any{
				"position": i,
				"title":    fmt.Sprintf("%s result %d", q, i),
				"link":     fmt.Sprintf("https://example.org/%s/%d", url.PathEscape(q), i),
				"snippet":  fmt.Sprintf("Stub snippet %d for %s.", i, q),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"organic_results": results})
	})

	// DuckDuckGo Lite HTML, including one redirect-wrapped link.
	mux.HandleFunc("/lite/", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		q := r.PostForm.Get("q")
		esc := html.EscapeString(q)
		direct := "https://example.org/" + url.PathEscape(q)
		wrapped := "//duckduckgo.com/l/?uddg=" + url.QueryEscape(direct) + "&rut=stub"
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><body><table>
<tr><td>1.</td><td><a class="result-link" href="%s">%s on example.org</a></td></tr>
<tr><td></td><td class="result-snippet">Stub lite snippet about %s.</td></tr>
<tr><td>2.</td><td><a class="result-link" href="https://example.org/static">Static page</a></td></tr>
<tr><td></td><td class="result-snippet">A second stub snippet.</td></tr>
</table></body></html>`, html.EscapeString(wrapped), esc, esc)
	})

	// Gemini generateContent. A request carrying tools gets a grounded answer
	// with citation metadata; anything else gets the structured JSON answer.
	mux.HandleFunc("/v1beta/models/", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		q := "your question"
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			q = strings.TrimSpace(req.Contents[0].Parts[0].Text)
		}

		var candidate map[string]any
		if len(req.Tools) > 0 {
			candidate = map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "Grounded stub answer about " + q + "."}},
				},
				"groundingMetadata": map[string]any{
					"groundingChunks": []map[string]any{
						{"web": map[string]any{"uri": "https://example.org/grounded/1", "title": q + " source"}},
					},
					"groundingSupports": []map[string]any{
						{
							"segment":               map[string]any{"text": "Grounded stub answer about " + q + "."},
							"groundingChunkIndices": []int{0},
						},
					},
				},
			}
		} else {
			docs := []map[string]string{
				{"title": q + " knowledge", "url": "https://example.org/known/1", "snippet": "Stub model knowledge about " + q + "."},
			}
			b, _ := json.Marshal(docs)
			candidate = map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": string(b)}},
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{candidate},
		})
	})

	log.Printf("providerstub listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
