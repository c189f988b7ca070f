// Package output holds the final, post-optimizer stages of the pipeline:
// deduplicating identical rules and splitting the result into Safari's
// per-content-blocker rule-count ceiling. Adapted from the teacher's
// internal/converter/splitter.go, generalized to the fuller WebKitRule shape
// this module's emitter/grouper produce.
package output

import (
	"fmt"
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/models"
)

// MaxRulesPerFile is Safari/WebKit's limit per content blocker (§2 item 8).
const MaxRulesPerFile = 50000

// Splitter divides a rule set into chunks respecting a per-file rule cap.
type Splitter struct {
	maxRules int
}

func NewSplitter(maxRules int) *Splitter {
	if maxRules <= 0 {
		maxRules = MaxRulesPerFile
	}
	return &Splitter{maxRules: maxRules}
}

// Split returns baseName -> rules when the whole set fits in one file, or
// baseName-partN -> rules chunks otherwise.
func (s *Splitter) Split(rules []models.WebKitRule, baseName string) map[string][]models.WebKitRule {
	result := make(map[string][]models.WebKitRule)

	if len(rules) <= s.maxRules {
		result[baseName] = rules
		return result
	}

	numParts := (len(rules) + s.maxRules - 1) / s.maxRules
	for i := 0; i < numParts; i++ {
		start := i * s.maxRules
		end := start + s.maxRules
		if end > len(rules) {
			end = len(rules)
		}
		result[fmt.Sprintf("%s-part%d", baseName, i+1)] = rules[start:end]
	}
	return result
}

// Deduplicate removes rules that are identical across every trigger/action
// field — a broader key than the teacher's url-filter/type/selector triple,
// since this module's rules also vary by resource-type, domain lists, and
// load-type, any of which makes two rules distinct even with the same
// url-filter.
func Deduplicate(rules []models.WebKitRule) []models.WebKitRule {
	seen := make(map[string]bool)
	result := make([]models.WebKitRule, 0, len(rules))

	for _, r := range rules {
		key := ruleKey(r)
		if !seen[key] {
			seen[key] = true
			result = append(result, r)
		}
	}
	return result
}

func ruleKey(r models.WebKitRule) string {
	return strings.Join([]string{
		r.Trigger.URLFilter,
		boolStr(r.Trigger.URLFilterIsCaseSensitive),
		strings.Join(r.Trigger.ResourceType, ","),
		strings.Join(r.Trigger.LoadType, ","),
		strings.Join(r.Trigger.IfDomain, ","),
		strings.Join(r.Trigger.UnlessDomain, ","),
		strings.Join(r.Trigger.UnlessTopURL, ","),
		boolStr(r.Trigger.TopURLFilterIsCaseSensitive),
		r.Action.Type,
		r.Action.Selector,
	}, "\x1f")
}

func boolStr(b *bool) string {
	if b != nil && *b {
		return "1"
	}
	return "0"
}
