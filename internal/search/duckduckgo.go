package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// DuckDuckGoDefaultBaseURL is the Lite endpoint root, the most stable of
// DuckDuckGo's HTML faces for scraping.
const DuckDuckGoDefaultBaseURL = "https://lite.duckduckgo.com"

// ddgUserAgent is sent by default; the endpoint serves bot-looking agents a
// challenge page instead of results.
const ddgUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DuckDuckGo scrapes the DuckDuckGo Lite endpoint. It needs no credential,
// which makes it the last resort of both cascades.
type DuckDuckGo struct {
	BaseURL    string // defaults to DuckDuckGoDefaultBaseURL
	HTTPClient *http.Client
	UserAgent  string
	MaxResults int

	// Limiter paces requests against the endpoint's aggressive throttling.
	// Production wiring shares one 1 req/s limiter across all instances.
	Limiter *rate.Limiter
}

func (d *DuckDuckGo) Name() string    { return "duckduckgo" }
func (d *DuckDuckGo) Priority() int   { return 5 }
func (d *DuckDuckGo) Available() bool { return true }

func (d *DuckDuckGo) Search(ctx context.Context, q Query) ([]Result, error) {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	limit := d.MaxResults
	if limit <= 0 {
		limit = 10
	}
	base := d.BaseURL
	if base == "" {
		base = DuckDuckGoDefaultBaseURL
	}

	// Region and safe-search settings: worldwide, off.
	form := url.Values{}
	form.Set("q", q.Text)
	form.Set("kl", "wt-wt")
	form.Set("kp", "-2")

	endpoint := strings.TrimRight(base, "/") + "/lite/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ProviderError{Provider: d.Name(), Kind: KindConnection, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ua := d.UserAgent
	if ua == "" {
		ua = ddgUserAgent
	}
	req.Header.Set("User-Agent", ua)

	hc := d.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: d.Name(), Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Provider: d.Name(),
			Kind:     classifyStatus(resp.StatusCode),
			Err:      fmt.Errorf("duckduckgo status: %d", resp.StatusCode),
		}
	}

	node, err := html.Parse(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: d.Name(), Kind: KindParse, Err: err}
	}
	return parseLiteResults(node, d.Name(), limit), nil
}

// parseLiteResults walks the Lite page DOM. Each hit is an anchor of class
// "result-link" followed by a table cell of class "result-snippet".
func parseLiteResults(root *html.Node, source string, limit int) []Result {
	var out []Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result-link"):
				href := resolveRedirect(attr(n, "href"))
				title := strings.TrimSpace(textContent(n))
				if href != "" && title != "" && len(out) < limit {
					out = append(out, Result{Title: title, URL: href, Source: source})
				}
			case n.Data == "td" && hasClass(n, "result-snippet"):
				if len(out) > 0 && out[len(out)-1].Snippet == "" {
					out[len(out)-1].Snippet = strings.TrimSpace(textContent(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the
// destination URL. Scheme-relative hrefs are normalized to https.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if dest := u.Query().Get("uddg"); dest != "" {
			return dest
		}
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
