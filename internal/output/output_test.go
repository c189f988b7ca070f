package output

import (
	"testing"

	"github.com/bnema/ublock-webkit-filters/internal/models"
	"github.com/stretchr/testify/assert"
)

func rule(urlFilter string, resourceType ...string) models.WebKitRule {
	return models.WebKitRule{
		Trigger: models.WebKitTrigger{URLFilter: urlFilter, ResourceType: resourceType},
		Action:  models.WebKitAction{Type: models.ActionBlock},
	}
}

func TestDeduplicateDropsExactDuplicates(t *testing.T) {
	rules := []models.WebKitRule{rule("^a"), rule("^a"), rule("^b")}
	out := Deduplicate(rules)
	assert.Len(t, out, 2)
}

func TestDeduplicateKeepsRulesDifferingOnlyInResourceType(t *testing.T) {
	rules := []models.WebKitRule{rule("^a", models.ResourceImage), rule("^a", models.ResourceScript)}
	out := Deduplicate(rules)
	assert.Len(t, out, 2)
}

func TestSplitKeepsSingleFileUnderLimit(t *testing.T) {
	rules := []models.WebKitRule{rule("^a"), rule("^b")}
	out := NewSplitter(10).Split(rules, "out")
	assert.Len(t, out, 1)
	assert.Len(t, out["out"], 2)
}

func TestSplitChunksOverLimit(t *testing.T) {
	rules := make([]models.WebKitRule, 25)
	for i := range rules {
		rules[i] = rule("^a")
	}
	out := NewSplitter(10).Split(rules, "out")
	assert.Len(t, out, 3)
	assert.Len(t, out["out-part1"], 10)
	assert.Len(t, out["out-part3"], 5)
}
