// Package optimizer merges and prunes a generated rule set to stay within
// the target engine's size and memory budget (§4.6), driven by a
// cooperative, time-budgeted scheduler (§4.7) so a large rule set never
// monopolizes the thread.
package optimizer

import (
	"sort"
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/models"
)

// Mode selects when the optimizer runs.
type Mode int

const (
	// ModeOff never runs the optimizer.
	ModeOff Mode = iota
	// ModeAuto runs it only once the rule count exceeds Policy.AutoThreshold.
	ModeAuto
	// ModeAll always runs it.
	ModeAll
)

// DefaultAutoThreshold is the rule count above which ModeAuto engages.
const DefaultAutoThreshold = 50000

// Policy configures one Optimize call.
type Policy struct {
	Mode Mode
	// AutoThreshold overrides DefaultAutoThreshold when non-zero.
	AutoThreshold int
	// Exhaustive switches Phase B's candidate search from the heuristic
	// next-1000-rules window to scanning every later rule (§4.6 "Heuristic
	// vs exhaustive mode").
	Exhaustive bool
}

func (p Policy) threshold() int {
	if p.AutoThreshold > 0 {
		return p.AutoThreshold
	}
	return DefaultAutoThreshold
}

// Optimize runs Phase A (redundancy elimination), Phase B (approximate
// merge), and Phase C (array-field union) over rules, grouped by category so
// no merge ever crosses a CSS/blocking/exception boundary. It is idempotent:
// running it twice on its own output only changes what Phase C's re-grouping
// on the second pass may still collapse.
func Optimize(rules []models.WebKitRule, policy Policy) []models.WebKitRule {
	if policy.Mode == ModeOff {
		return rules
	}
	if policy.Mode == ModeAuto && len(rules) <= policy.threshold() {
		return rules
	}

	sched := newScheduler()

	var out []models.WebKitRule
	for _, group := range splitByCategory(rules) {
		group = phaseA(group, sched)
		group = phaseB(group, !policy.Exhaustive, sched)
		group = phaseC(group, sched)
		out = append(out, group...)
	}
	return out
}

// OrderByCategory arranges rules into the fixed CSS, CSS-exception, blocking,
// blocking-exception order (§6) without merging or dropping anything.
// Optimize produces this order as a side effect of its category-scoped
// phases, but only when it actually runs; callers that need the ordering
// unconditionally (e.g. when Policy.Mode is ModeOff, or ModeAuto stays below
// threshold) should call this directly.
func OrderByCategory(rules []models.WebKitRule) []models.WebKitRule {
	var out []models.WebKitRule
	for _, group := range splitByCategory(rules) {
		out = append(out, group...)
	}
	return out
}

// category is the rule-set partition the optimizer never merges across.
type category int

const (
	categoryCSS category = iota
	categoryCSSException
	categoryBlocking
	categoryBlockingException
)

func categoryOf(r models.WebKitRule) category {
	switch r.Action.Type {
	case models.ActionCSSDisplayNone:
		return categoryCSS
	case models.ActionIgnorePreviousRule:
		return categoryBlockingException
	default:
		return categoryBlocking
	}
}

// splitByCategory partitions rules into same-category runs, preserving
// relative order within each category and returning groups in the fixed
// category order CSS, CSS-exception, blocking, blocking-exception (§6),
// regardless of the order categories first appeared in rules.
func splitByCategory(rules []models.WebKitRule) [][]models.WebKitRule {
	buckets := make(map[category][]models.WebKitRule)
	for _, r := range rules {
		c := categoryOf(r)
		buckets[c] = append(buckets[c], r)
	}
	order := []category{categoryCSS, categoryCSSException, categoryBlocking, categoryBlockingException}
	var groups [][]models.WebKitRule
	for _, c := range order {
		if len(buckets[c]) > 0 {
			groups = append(groups, buckets[c])
		}
	}
	return groups
}

// fieldsKey captures every trigger/action field except url-filter, used to
// group rules that could be candidates for Phase A/B url-filter merging.
type fieldsKey struct {
	caseSensitive       bool
	resourceType        string
	loadType            string
	ifDomain            string
	unlessDomain        string
	unlessTopURL        string
	topURLCaseSensitive bool
	actionType          string
	selector            string
}

func keyOf(r models.WebKitRule) fieldsKey {
	return fieldsKey{
		caseSensitive:       boolVal(r.Trigger.URLFilterIsCaseSensitive),
		resourceType:        strings.Join(r.Trigger.ResourceType, ","),
		loadType:            strings.Join(r.Trigger.LoadType, ","),
		ifDomain:            strings.Join(r.Trigger.IfDomain, ","),
		unlessDomain:        strings.Join(r.Trigger.UnlessDomain, ","),
		unlessTopURL:        strings.Join(r.Trigger.UnlessTopURL, ","),
		topURLCaseSensitive: boolVal(r.Trigger.TopURLFilterIsCaseSensitive),
		actionType:          r.Action.Type,
		selector:            r.Action.Selector,
	}
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

// groupIndexesByFields groups rule indexes by keyOf, preserving first-seen
// key order so output stays deterministic run-to-run.
func groupIndexesByFields(rules []models.WebKitRule) [][]int {
	groups := make(map[fieldsKey][]int)
	var order []fieldsKey
	for i, r := range rules {
		k := keyOf(r)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	out := make([][]int, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}

// sortedIndexesByURLFilterLen returns idxs sorted ascending by url-filter
// length, stable so equal-length rules keep their relative order.
func sortedIndexesByURLFilterLen(rules []models.WebKitRule, idxs []int) []int {
	out := append([]int(nil), idxs...)
	sort.SliceStable(out, func(a, b int) bool {
		return len(rules[out[a]].Trigger.URLFilter) < len(rules[out[b]].Trigger.URLFilter)
	})
	return out
}
