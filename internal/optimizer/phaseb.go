package optimizer

import (
	"sort"
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/models"
)

// heuristicWindow is how many later rules a heuristic-mode search considers
// per candidate (§4.6 "Heuristic vs exhaustive mode").
const heuristicWindow = 1000

// metaChars disqualifies a differing span from being a close match — merging
// across a regex metacharacter could change what the resulting pattern
// matches rather than just broadening an alternation.
const metaChars = `.+$?{}()[]\`

type matchKind int

const (
	matchNone matchKind = iota
	matchSingle
	matchMulti
)

// closeMatch decomposes a and b into a common prefix/suffix and a differing
// middle span, then classifies the span as a single-character edit (kind ==
// matchSingle; covers substitution, insertion, and deletion of one
// character), a contiguous multi-character insertion/deletion (matchMulti),
// or not a close match at all (matchNone) — including when the span
// contains a regex metacharacter.
func closeMatch(a, b string) (prefixLen, suffixLen int, midA, midB string, kind matchKind) {
	prefixLen, suffixLen = commonAffixes(a, b)
	midA = a[prefixLen : len(a)-suffixLen]
	midB = b[prefixLen : len(b)-suffixLen]

	if midA == "" && midB == "" {
		return 0, 0, "", "", matchNone
	}
	if hasMeta(midA) || hasMeta(midB) {
		return 0, 0, "", "", matchNone
	}

	switch {
	case len(midA) <= 1 && len(midB) <= 1:
		kind = matchSingle
	case midA == "" && len(midB) > 1:
		kind = matchMulti
	case midB == "" && len(midA) > 1:
		kind = matchMulti
	default:
		kind = matchNone
	}
	return
}

func commonAffixes(a, b string) (prefixLen, suffixLen int) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for prefixLen < n && a[prefixLen] == b[prefixLen] {
		prefixLen++
	}
	maxSuffix := n - prefixLen
	for suffixLen < maxSuffix && a[len(a)-1-suffixLen] == b[len(b)-1-suffixLen] {
		suffixLen++
	}
	return
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, metaChars)
}

// singleGroup is a set of rules whose url-filters all share the same
// prefix/suffix and differ by a single character (or its absence) in
// between — a candidate alternation (§4.6 "Single-character edits").
type singleGroup struct {
	prefix, suffix string
	members        []int
	chars          []string
	hasEmpty       bool
}

type multiMatch struct {
	partner        int
	prefix, suffix string
	mid            string
}

type bestCandidate struct {
	single   *singleGroup
	multi    *multiMatch
	mergeLen int
}

// mergedFilter is one surviving url-filter after Phase B, tagged with the
// lowest original index among its participants so Phase B's caller can pick
// that rule as the template for every other (non-url-filter) field.
type mergedFilter struct {
	urlFilter string
	base      int
}

// phaseB runs the approximate-merge pass over rules, grouped so a merge
// never crosses a field other than url-filter.
func phaseB(rules []models.WebKitRule, heuristic bool, sched *scheduler) []models.WebKitRule {
	out := make([]models.WebKitRule, 0, len(rules))
	for _, idxs := range groupIndexesByFields(rules) {
		filters := make([]string, len(idxs))
		for i, idx := range idxs {
			filters[i] = rules[idx].Trigger.URLFilter
		}
		for _, m := range mergeURLFilters(filters, heuristic) {
			r := rules[idxs[m.base]]
			r.Trigger.URLFilter = m.urlFilter
			out = append(out, r)
		}
		sched.step()
	}
	return out
}

func mergeURLFilters(filters []string, heuristic bool) []mergedFilter {
	n := len(filters)
	used := make([]bool, n)
	best := make([]bestCandidate, n)

	for i := 0; i < n; i++ {
		best[i] = findBestCandidate(filters, i, heuristic)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return best[order[a]].mergeLen > best[order[b]].mergeLen
	})

	var result []mergedFilter
	for _, i := range order {
		if used[i] {
			continue
		}
		c := best[i]
		switch {
		case c.single != nil && allUnused(used, c.single.members):
			for _, m := range c.single.members {
				used[m] = true
			}
			merged := c.single.prefix + buildAlternation(c.single.chars, c.single.hasEmpty) + c.single.suffix
			result = append(result, mergedFilter{urlFilter: merged, base: i})
		case c.multi != nil && !used[c.multi.partner]:
			used[i] = true
			used[c.multi.partner] = true
			merged := c.multi.prefix + "(" + c.multi.mid + ")?" + c.multi.suffix
			result = append(result, mergedFilter{urlFilter: merged, base: i})
		default:
			used[i] = true
			result = append(result, mergedFilter{urlFilter: filters[i], base: i})
		}
	}

	sort.SliceStable(result, func(a, b int) bool { return result[a].base < result[b].base })
	return result
}

func findBestCandidate(filters []string, i int, heuristic bool) bestCandidate {
	limit := len(filters)
	if heuristic && limit > i+1+heuristicWindow {
		limit = i + 1 + heuristicWindow
	}

	buckets := make(map[string]*singleGroup)
	var order []string
	var multi *multiMatch

	for j := i + 1; j < limit; j++ {
		prefixLen, _, midA, midB, kind := closeMatch(filters[i], filters[j])
		switch kind {
		case matchSingle:
			prefix := filters[i][:prefixLen]
			suffix := filters[i][len(filters[i])-(len(filters[i])-prefixLen-len(midA)):]
			key := prefix + "\x00" + suffix
			g, ok := buckets[key]
			if !ok {
				g = &singleGroup{prefix: prefix, suffix: suffix, members: []int{i}}
				if midA == "" {
					g.hasEmpty = true
				} else {
					g.chars = append(g.chars, midA)
				}
				buckets[key] = g
				order = append(order, key)
			}
			g.members = append(g.members, j)
			if midB == "" {
				g.hasEmpty = true
			} else {
				g.chars = append(g.chars, midB)
			}
		case matchMulti:
			if multi == nil {
				prefix := filters[i][:prefixLen]
				suffix := filters[i][len(filters[i])-(len(filters[i])-prefixLen-len(midA)):]
				mid := midA
				if mid == "" {
					mid = midB
				}
				multi = &multiMatch{partner: j, prefix: prefix, suffix: suffix, mid: mid}
			}
		}
	}

	var bestKey string
	bestSize := 0
	for _, k := range order {
		if len(buckets[k].members) > bestSize {
			bestSize = len(buckets[k].members)
			bestKey = k
		}
	}

	var c bestCandidate
	if bestSize > 1 {
		c.single = buckets[bestKey]
		c.mergeLen = bestSize
	} else if multi != nil {
		c.multi = multi
		c.mergeLen = 2
	} else {
		c.mergeLen = 1
	}
	return c
}

func allUnused(used []bool, members []int) bool {
	for _, m := range members {
		if used[m] {
			return false
		}
	}
	return true
}

// buildAlternation renders a single-position merge group's differing
// characters as WebKit-regex syntax: a plain "c?" when there is exactly one
// distinct character and a deletion variant, otherwise a bracket
// alternation with "-" moved first (to avoid it being read as a range) and
// a trailing "?" when any member omitted the character entirely.
func buildAlternation(chars []string, hasEmpty bool) string {
	seen := make(map[string]bool)
	var unique []string
	for _, c := range chars {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	sort.Strings(unique)
	for i, c := range unique {
		if c == "-" && i != 0 {
			unique = append(unique[:i], unique[i+1:]...)
			unique = append([]string{"-"}, unique...)
			break
		}
	}

	if len(unique) == 1 && hasEmpty {
		s := unique[0] + "?"
		return s
	}

	s := "[" + strings.Join(unique, "") + "]"
	if hasEmpty {
		s += "?"
	}
	return s
}
