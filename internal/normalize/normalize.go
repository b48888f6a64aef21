// Package normalize canonicalizes cinema, screen and movie names before they
// are compared or stored. Crawled names differ between sites mostly by
// character width (full-width "ＴＯＨＯ" vs half-width "TOHO") and by stray
// whitespace, so every comparison in the reconciler goes through here.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Width folds full-width and compatibility characters to their canonical
// half-width form (Unicode NFKC) and trims surrounding whitespace.  Inner
// spaces are preserved, which is what movie titles need.
func Width(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Name applies Width and then removes every whitespace rune.  It is used for
// cinema names and screen labels, where sites disagree on spacing
// ("TOHOシネマズ 新宿" vs "TOHOシネマズ新宿").
func Name(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Names normalizes every entry with Name, dropping empty results and
// duplicates while keeping first-seen order.
func Names(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, n := range in {
		n = Name(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
