package optimizer

import (
	"sort"
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/models"
)

// excludeField names the one array-valued trigger field a union pass is
// allowed to vary across the rules it merges.
type excludeField int

const (
	excludeResourceType excludeField = iota
	excludeIfDomain
)

// phaseC unions array-valued trigger fields across rules that are otherwise
// identical: resource-type first, then if-domain (§4.6 "Union merge") — in
// that order, since collapsing resource-type first can bring rules that
// only then agree on every other field into the if-domain pass's reach.
func phaseC(rules []models.WebKitRule, sched *scheduler) []models.WebKitRule {
	rules = unionPass(rules, excludeResourceType)
	sched.step()
	rules = unionPass(rules, excludeIfDomain)
	sched.step()
	return rules
}

func unionPass(rules []models.WebKitRule, exclude excludeField) []models.WebKitRule {
	groups := make(map[string][]int)
	var order []string
	for i, r := range rules {
		k := unionKey(r, exclude)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	out := make([]models.WebKitRule, 0, len(order))
	for _, k := range order {
		idxs := groups[k]
		base := rules[idxs[0]]
		switch exclude {
		case excludeResourceType:
			base.Trigger.ResourceType = unionField(rules, idxs, func(r models.WebKitRule) []string {
				return r.Trigger.ResourceType
			})
		case excludeIfDomain:
			base.Trigger.IfDomain = unionField(rules, idxs, func(r models.WebKitRule) []string {
				return r.Trigger.IfDomain
			})
		}
		out = append(out, base)
	}
	return out
}

// unionKey identifies rules eligible to merge under the given pass: every
// trigger/action field must match except the one named by exclude.
func unionKey(r models.WebKitRule, exclude excludeField) string {
	parts := []string{
		r.Trigger.URLFilter,
		boolKey(r.Trigger.URLFilterIsCaseSensitive),
		joinStrs(r.Trigger.LoadType),
		joinStrs(r.Trigger.UnlessDomain),
		joinStrs(r.Trigger.UnlessTopURL),
		boolKey(r.Trigger.TopURLFilterIsCaseSensitive),
		r.Action.Type,
		r.Action.Selector,
	}
	if exclude != excludeResourceType {
		parts = append(parts, joinStrs(r.Trigger.ResourceType))
	}
	if exclude != excludeIfDomain {
		parts = append(parts, joinStrs(r.Trigger.IfDomain))
	}
	return strings.Join(parts, "\x1f")
}

func unionField(rules []models.WebKitRule, idxs []int, get func(models.WebKitRule) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, i := range idxs {
		for _, v := range get(rules[i]) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func joinStrs(ss []string) string {
	return strings.Join(ss, ",")
}

func boolKey(b *bool) string {
	if b != nil && *b {
		return "1"
	}
	return "0"
}
