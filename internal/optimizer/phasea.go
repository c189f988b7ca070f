package optimizer

import (
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/models"
)

// phaseA eliminates url-filter redundancy: within a group of rules that are
// identical except for url-filter, a shorter url-filter that is a literal
// prefix of a longer one subsumes it — any URL the longer pattern matches,
// the shorter one already matches too — so the longer rule is dropped.
func phaseA(rules []models.WebKitRule, sched *scheduler) []models.WebKitRule {
	dropped := make([]bool, len(rules))

	for _, idxs := range groupIndexesByFields(rules) {
		ordered := sortedIndexesByURLFilterLen(rules, idxs)
		for a := 0; a < len(ordered); a++ {
			if dropped[ordered[a]] {
				continue
			}
			shortFilter := rules[ordered[a]].Trigger.URLFilter
			for b := a + 1; b < len(ordered); b++ {
				if dropped[ordered[b]] {
					continue
				}
				longFilter := rules[ordered[b]].Trigger.URLFilter
				if strings.HasPrefix(longFilter, shortFilter) {
					dropped[ordered[b]] = true
				}
			}
		}
		sched.step()
	}

	out := make([]models.WebKitRule, 0, len(rules))
	for i, r := range rules {
		if !dropped[i] {
			out = append(out, r)
		}
	}
	return out
}
