// Package screen maps a site-specific screen label onto the seat capacity a
// cinema publishes for it.
//
// Screen labels stored on a cinema follow the "<cinema name>#<screen name>"
// convention so that sub-cinemas sharing one record keep distinct screens.
// Resolution narrows the cinema's screens through three ordered stages and
// declines to guess: when no stage leaves exactly one screen the capacity is
// reported as 0 (unknown).
package screen

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/cinema-reconciler/internal/normalize"
)

// Stage names reported in Result.
const (
	StageScope     = "scope"
	StageNumber    = "number"
	StageAlias     = "alias"
	StageSubCinema = "sub_cinema"
	StageNone      = "none"
)

// Result describes how a lookup ended.  Seats is 0 when the lookup was
// ambiguous or impossible; Candidates is the number of screens left at that
// point.
type Result struct {
	Seats      int
	Stage      string
	Candidates int
}

// Resolved reports whether a single screen was found.
func (r Result) Resolved() bool { return r.Seats > 0 || r.Candidates == 1 }

// Resolver runs the screen lookup cascade against a fixed alias table.
type Resolver struct {
	aliases *AliasTable
}

// NewResolver returns a resolver using t, or the built-in table when t is nil.
func NewResolver(t *AliasTable) *Resolver {
	if t == nil {
		t = DefaultAliasTable()
	}
	return &Resolver{aliases: t}
}

// Aliases exposes the resolver's alias table.
func (r *Resolver) Aliases() *AliasTable { return r.aliases }

type candidate struct {
	label string
	seats int
}

var digitRun = regexp.MustCompile(`[0-9]+`)

// Resolve returns the seat capacity for target among screens, or 0.
func (r *Resolver) Resolve(screens map[string]int, cinemaName, target string) int {
	return r.ResolveDetail(screens, cinemaName, target).Seats
}

// ResolveDetail is Resolve with the stage that decided the outcome.
func (r *Resolver) ResolveDetail(screens map[string]int, cinemaName, target string) Result {
	cinemaName = normalize.Name(cinemaName)
	target = normalize.Name(r.aliases.Convert(normalize.Name(target), cinemaName))

	all := make([]candidate, 0, len(screens))
	for label, seats := range screens {
		all = append(all, candidate{label: normalize.Name(label), seats: seats})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].label < all[j].label })

	if len(all) == 0 {
		return Result{Stage: StageNone}
	}
	if !inScope(all, cinemaName) {
		return Result{Stage: StageScope, Candidates: 0}
	}

	remain := byNumber(all, target)
	if len(remain) == 1 {
		return Result{Seats: remain[0].seats, Stage: StageNumber, Candidates: 1}
	}
	remain = r.byAlias(remain, target)
	if len(remain) == 1 {
		return Result{Seats: remain[0].seats, Stage: StageAlias, Candidates: 1}
	}
	remain = bySubCinema(remain, cinemaName)
	if len(remain) == 1 {
		return Result{Seats: remain[0].seats, Stage: StageSubCinema, Candidates: 1}
	}
	return Result{Stage: StageNone, Candidates: len(remain)}
}

// inScope rejects screen maps that plainly belong to another cinema: every
// label carries a cinema prefix and none of those prefixes is cinemaName.
// Owners are compared whole, so "cinema_name_1" does not own
// "cinema_name_10#screen1".  Unprefixed labels cannot be attributed and keep
// the map in scope.
func inScope(all []candidate, cinemaName string) bool {
	if cinemaName == "" {
		return true
	}
	for _, c := range all {
		owner, _, ok := splitLabel(c.label)
		if !ok {
			return true
		}
		if owner == cinemaName {
			return true
		}
	}
	return false
}

// splitLabel splits "<cinema>#<screen>" at the first '#' that has at least
// one character in front of it.
func splitLabel(label string) (owner, screen string, ok bool) {
	if len(label) < 2 {
		return "", "", false
	}
	i := strings.IndexByte(label[1:], '#')
	if i < 0 {
		return "", "", false
	}
	i++
	return label[:i], label[i+1:], true
}

// byNumber keeps the screens whose name ends with the last number found in
// target.  "05" and "5" are the same screen.  No number, or no matching
// screen, leaves the set untouched.
func byNumber(in []candidate, target string) []candidate {
	runs := digitRun.FindAllString(target, -1)
	if len(runs) == 0 {
		return in
	}
	num := strings.TrimLeft(runs[len(runs)-1], "0")
	if num == "" {
		num = "0"
	}
	if n, err := strconv.Atoi(num); err == nil {
		num = strconv.Itoa(n)
	}
	re := regexp.MustCompile(`^.+#[^0-9]+` + num + `[^0-9]*$`)
	out := make([]candidate, 0, len(in))
	for _, c := range in {
		if re.MatchString(c.label) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return in
	}
	return out
}

// byAlias applies the special-name groups.  A target naming a special screen
// keeps only screens from the same group; any other target drops every
// special screen.  Either filter is skipped when it would leave nothing.
func (r *Resolver) byAlias(in []candidate, target string) []candidate {
	if g, ok := r.aliases.Group(target); ok {
		aliases := r.aliases.Aliases(g)
		out := make([]candidate, 0, len(in))
		for _, c := range in {
			if labelHasAlias(c.label, aliases) {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			return in
		}
		return out
	}

	out := make([]candidate, 0, len(in))
	for _, c := range in {
		special := false
		for g := 0; g < r.aliases.Groups(); g++ {
			if labelHasAlias(c.label, r.aliases.Aliases(g)) {
				special = true
				break
			}
		}
		if !special {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return in
	}
	return out
}

func labelHasAlias(label string, aliases []string) bool {
	_, screen, ok := splitLabel(label)
	if !ok {
		return false
	}
	for _, a := range aliases {
		if strings.Contains(screen, a) {
			return true
		}
	}
	return false
}

// bySubCinema prefers screens registered under exactly cinemaName when a
// record groups several sub-cinemas.
func bySubCinema(in []candidate, cinemaName string) []candidate {
	prefix := cinemaName + "#"
	out := make([]candidate, 0, len(in))
	for _, c := range in {
		if strings.HasPrefix(c.label, prefix) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return in
	}
	return out
}
