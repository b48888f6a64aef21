package screen

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/iliyamo/cinema-reconciler/internal/normalize"
)

// Rule rewrites a screen label published on a booking page into the label the
// same cinema uses on its institution page.  Replace uses Go regexp expansion
// syntax ("${1}").
type Rule struct {
	Pattern string `json:"pattern"`
	Replace string `json:"replace"`
}

// AliasTable is the static special-name configuration consulted by the
// resolver.  Groups hold synonymous screen naming conventions (an English
// premium-seating name and its katakana form, historical site names); Cinemas
// holds ordered per-cinema rewrite rules.  A table is immutable once built and
// safe for concurrent use.
type AliasTable struct {
	groups  [][]string
	cinemas map[string][]compiledRule
}

type compiledRule struct {
	re      *regexp.Regexp
	replace string
}

// aliasFile is the on-disk JSON shape accepted by LoadAliasTable.
type aliasFile struct {
	Groups  [][]string        `json:"groups"`
	Cinemas map[string][]Rule `json:"cinemas"`
}

// NewAliasTable validates and compiles the given configuration.  Aliases and
// cinema names are normalized the same way incoming labels are, so the table
// can be written with full-width text.
func NewAliasTable(groups [][]string, cinemas map[string][]Rule) (*AliasTable, error) {
	t := &AliasTable{cinemas: make(map[string][]compiledRule, len(cinemas))}
	for i, g := range groups {
		names := normalize.Names(g)
		if len(names) == 0 {
			return nil, fmt.Errorf("alias group %d is empty", i)
		}
		t.groups = append(t.groups, names)
	}
	for cinema, rules := range cinemas {
		key := normalize.Name(cinema)
		if key == "" {
			return nil, fmt.Errorf("alias rules with empty cinema name")
		}
		for _, r := range rules {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("cinema %q: pattern %q: %w", cinema, r.Pattern, err)
			}
			t.cinemas[key] = append(t.cinemas[key], compiledRule{re: re, replace: r.Replace})
		}
	}
	return t, nil
}

// LoadAliasTable reads a JSON alias file.  An empty path yields the built-in
// table.
func LoadAliasTable(path string) (*AliasTable, error) {
	if path == "" {
		return DefaultAliasTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}
	var f aliasFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode alias table: %w", err)
	}
	return NewAliasTable(f.Groups, f.Cinemas)
}

var defaultGroups = [][]string{
	{"PREMIER", "プレミア"},
	{"SELECT", "セレクト"},
	{"SCALAZA", "スカラ座"},
	{"MIYUKIZA", "みゆき座"},
	{"プラチナ"},
	{"グランドEXE"},
}

// Go's \w is ASCII-only, so the Japanese-aware rules spell out letter classes.
var defaultCinemaRules = map[string][]Rule{
	"TOHOシネマズシャンテ": {
		{Pattern: `SCREEN`, Replace: `CHANTER-`},
	},
	"TOHOシネマズスカラ座・みゆき座": {
		{Pattern: `^スカラ座$`, Replace: `SCALAZA`},
		{Pattern: `^みゆき座$`, Replace: `MIYUKIZA`},
	},
	"TOHOシネマズ日劇": {
		{Pattern: `日劇`, Replace: `NICHIGEKI-`},
	},
	"TOHOシネマズ高岡": {
		{Pattern: `シネマ`, Replace: `SCREEN`},
	},
	"TOHOシネマズなんば": {
		{Pattern: `^\(([\p{L}\p{N}_]+)\)([\p{L}\p{N}_]+)$`, Replace: `${1}${2}`},
	},
	"TOHOシネマズ天神": {
		{Pattern: `^([\p{L}\p{N}_]+)\(([\p{L}\p{N}_]+)\)$`, Replace: `${2}${1}`},
	},
}

// DefaultAliasTable returns the built-in table.
func DefaultAliasTable() *AliasTable {
	t, err := NewAliasTable(defaultGroups, defaultCinemaRules)
	if err != nil {
		panic("screen: invalid built-in alias table: " + err.Error())
	}
	return t
}

// Group returns the index of the alias group with a member contained in
// label.  When several groups match, the one listed last wins.
func (t *AliasTable) Group(label string) (int, bool) {
	for i := len(t.groups) - 1; i >= 0; i-- {
		g := t.groups[i]
		for _, alias := range g {
			if strings.Contains(label, alias) {
				return i, true
			}
		}
	}
	return -1, false
}

// Aliases returns the members of group i.
func (t *AliasTable) Aliases(i int) []string {
	if i < 0 || i >= len(t.groups) {
		return nil
	}
	return t.groups[i]
}

// Groups returns the number of alias groups.
func (t *AliasTable) Groups() int { return len(t.groups) }

// Convert applies the cinema's rewrite rules, in order, to a screen label.
// Cinemas without rules get the label back unchanged.
func (t *AliasTable) Convert(screenName, cinemaName string) string {
	for _, r := range t.cinemas[normalize.Name(cinemaName)] {
		screenName = r.re.ReplaceAllString(screenName, r.replace)
	}
	return screenName
}

// HasRules reports whether the cinema has rewrite rules.
func (t *AliasTable) HasRules(cinemaName string) bool {
	_, ok := t.cinemas[normalize.Name(cinemaName)]
	return ok
}
