package aggregate

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/gosearch/internal/search"
)

// MergeAndNormalize merges results from multiple queries, canonicalizes URLs,
// trims obvious tracking parameters, and de-duplicates. Documents without a
// URL (single-answer providers produce these) are kept and de-duplicated by
// normalized title instead.
func MergeAndNormalize(groups [][]search.Result) []search.Result {
	seen := map[string]struct{}{}
	out := make([]search.Result, 0, 64)
	for _, g := range groups {
		for _, r := range g {
			key := dedupeKey(&r)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// dedupeKey canonicalizes the result in place and returns its identity key,
// or "" when the result carries nothing worth keeping.
func dedupeKey(r *search.Result) string {
	if r.URL != "" {
		u, err := url.Parse(r.URL)
		if err != nil {
			return ""
		}
		normalizeURL(u)
		r.URL = u.String()
		return r.URL
	}
	title := strings.TrimSpace(r.Title)
	if title == "" && strings.TrimSpace(r.Snippet) == "" {
		return ""
	}
	return "title:" + strings.ToLower(norm.NFC.String(title))
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	q := u.Query()
	// Remove common tracking params
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
}

// TruncateSnippets caps each snippet at maxChars runes so one verbose source
// cannot crowd out the rest of the result set. Non-positive maxChars leaves
// the results untouched.
func TruncateSnippets(results []search.Result, maxChars int) []search.Result {
	if maxChars <= 0 {
		return results
	}
	for i, r := range results {
		runes := []rune(r.Snippet)
		if len(runes) > maxChars {
			results[i].Snippet = strings.TrimSpace(string(runes[:maxChars]))
		}
	}
	return results
}
