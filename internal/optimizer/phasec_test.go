package optimizer

import (
	"testing"

	"github.com/bnema/ublock-webkit-filters/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestUnionPassMergesResourceType(t *testing.T) {
	rules := []models.WebKitRule{
		{Trigger: models.WebKitTrigger{URLFilter: "^foo", ResourceType: []string{models.ResourceImage}}, Action: models.WebKitAction{Type: models.ActionBlock}},
		{Trigger: models.WebKitTrigger{URLFilter: "^foo", ResourceType: []string{models.ResourceScript}}, Action: models.WebKitAction{Type: models.ActionBlock}},
	}
	out := unionPass(rules, excludeResourceType)
	assert.Len(t, out, 1)
	assert.ElementsMatch(t, []string{models.ResourceImage, models.ResourceScript}, out[0].Trigger.ResourceType)
}

func TestUnionPassMergesIfDomain(t *testing.T) {
	rules := []models.WebKitRule{
		{Trigger: models.WebKitTrigger{URLFilter: "^foo", IfDomain: []string{"*a.com"}}, Action: models.WebKitAction{Type: models.ActionBlock}},
		{Trigger: models.WebKitTrigger{URLFilter: "^foo", IfDomain: []string{"*b.com"}}, Action: models.WebKitAction{Type: models.ActionBlock}},
	}
	out := unionPass(rules, excludeIfDomain)
	assert.Len(t, out, 1)
	assert.ElementsMatch(t, []string{"*a.com", "*b.com"}, out[0].Trigger.IfDomain)
}

func TestUnionPassDoesNotMergeAcrossOtherFields(t *testing.T) {
	rules := []models.WebKitRule{
		{Trigger: models.WebKitTrigger{URLFilter: "^foo", ResourceType: []string{models.ResourceImage}}, Action: models.WebKitAction{Type: models.ActionBlock}},
		{Trigger: models.WebKitTrigger{URLFilter: "^bar", ResourceType: []string{models.ResourceScript}}, Action: models.WebKitAction{Type: models.ActionBlock}},
	}
	out := unionPass(rules, excludeResourceType)
	assert.Len(t, out, 2)
}

func TestPhaseCRunsResourceTypeThenIfDomain(t *testing.T) {
	rules := []models.WebKitRule{
		{Trigger: models.WebKitTrigger{URLFilter: "^foo", ResourceType: []string{models.ResourceImage}}, Action: models.WebKitAction{Type: models.ActionBlock}},
		{Trigger: models.WebKitTrigger{URLFilter: "^foo", ResourceType: []string{models.ResourceScript}}, Action: models.WebKitAction{Type: models.ActionBlock}},
	}
	out := phaseC(rules, newScheduler())
	assert.Len(t, out, 1)
	assert.ElementsMatch(t, []string{models.ResourceImage, models.ResourceScript}, out[0].Trigger.ResourceType)
}
