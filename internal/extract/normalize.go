package extract

import (
	"regexp"
	"strings"
)

// canonicalScheme is prepended to every normalized link.
const canonicalScheme = "https://"

// urlPattern matches bare domains and http(s) URLs. The optional scheme and
// "www." prefix are matched but left out of the capture group.
var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?([a-z0-9.-]+\.[a-z]{2,}(?::\d+)?(?:[/?]\S*)?)`)

// portPattern matches an explicit port followed by a path separator or the
// end of the link. A port followed by a query string is not matched.
var portPattern = regexp.MustCompile(`:\d+(/|$)`)

// Normalize returns the canonical form of a matched link remainder
// (the link without scheme and "www.").
func Normalize(remainder string) string {
	return stripPort(canonicalScheme + remainder)
}

// stripPort removes the first port that ends the host part.
func stripPort(link string) string {
	loc := portPattern.FindStringSubmatchIndex(link)
	if loc == nil {
		return link
	}
	// loc[2]:loc[3] is the separator group; keep it.
	return link[:loc[0]] + link[loc[2]:]
}

// ReduceToHost reduces a normalized link to https://<host>.
func ReduceToHost(link string) string {
	return canonicalScheme + Host(link)
}

// Host returns the host of a link: the text after the scheme up to the first
// '/', '?' or '#', with any explicit port removed.
func Host(link string) string {
	rest := link
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndexByte(rest, ':'); i >= 0 && isDigits(rest[i+1:]) {
		rest = rest[:i]
	}
	return rest
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FindLinks returns the normalized links in text in order of appearance.
// Duplicates are kept; use a LinkSet to collapse them.
func FindLinks(text string) []string {
	matches := urlPattern.FindAllStringSubmatch(text, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, Normalize(m[1]))
	}
	return links
}

// FindHosts returns the host-reduced links in attachment text.
func FindHosts(text string) []string {
	links := FindLinks(text)
	for i, link := range links {
		links[i] = ReduceToHost(link)
	}
	return links
}
