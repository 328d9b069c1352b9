package record

import (
	"net/url"
	"strings"
)

// webSchemes lists URL schemes considered web content. Everything else
// (chrome://, about:, edge://, devtools:, extension pages) is
// browser-internal and excluded at capture time; storage never validates
// URLs again.
var webSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// IsWebTab reports whether a tab points at web content.
func IsWebTab(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return webSchemes[strings.ToLower(u.Scheme)]
}

// FilterWebTabs drops browser-internal tabs from a capture, preserving the
// original order and Index values of the survivors.
func FilterWebTabs(tabs []TabRef) []TabRef {
	out := make([]TabRef, 0, len(tabs))
	for _, t := range tabs {
		if IsWebTab(t.URL) {
			out = append(out, t)
		}
	}
	return out
}
