package http

import (
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/tomnomnom/linkheader"
)

// ParseLinks extracts the next and previous page URLs from Link header
// values. Mastodon advertises the backward direction as rel="prev".
func ParseLinks(headers []string) masto.PageLinks {
	links := linkheader.ParseMultiple(headers)

	return masto.PageLinks{
		Next:     firstURL(links, "next"),
		Previous: firstURL(links, "prev", "previous"),
	}
}

func firstURL(links linkheader.Links, rels ...string) string {
	for _, rel := range rels {
		matches := links.FilterByRel(rel)
		if len(matches) > 0 {
			return matches[0].URL
		}
	}

	return ""
}
