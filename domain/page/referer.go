package page

import (
	"net/url"
	"strings"
)

// RefererParams extracts ":param" values by matching the referer's path
// against pageURL segment by segment. It is a best-effort fallback for
// fragment renders triggered from a sub-route, not a routing authority:
// differing segment counts or the first literal mismatch yield an empty map.
func RefererParams(referer, pageURL string) map[string]string {
	params := map[string]string{}
	if referer == "" {
		return params
	}
	u, err := url.Parse(referer)
	if err != nil {
		return params
	}

	refSegs := Segments(u.Path)
	pageSegs := Segments(pageURL)
	if len(refSegs) != len(pageSegs) {
		return params
	}

	for i, seg := range pageSegs {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			params[name] = refSegs[i]
			continue
		}
		if seg != refSegs[i] {
			return map[string]string{}
		}
	}
	return params
}

// RefererQuery returns the query parameters of the referer URL.
func RefererQuery(referer string) url.Values {
	if referer == "" {
		return url.Values{}
	}
	u, err := url.Parse(referer)
	if err != nil {
		return url.Values{}
	}
	return u.Query()
}
