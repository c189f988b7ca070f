package elemhide

import (
	"testing"

	"github.com/bnema/ublock-webkit-filters/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupGenericSelector(t *testing.T) {
	filters := []models.Filter{
		{Kind: models.KindElementHide, Selector: ".whatever"},
	}
	rules := Group(filters, nil, nil, 0)
	require.Len(t, rules, 1)
	assert.Equal(t, "^https?://", rules[0].Trigger.URLFilter)
	require.NotNil(t, rules[0].Trigger.URLFilterIsCaseSensitive)
	assert.True(t, *rules[0].Trigger.URLFilterIsCaseSensitive)
	assert.Equal(t, ".whatever", rules[0].Action.Selector)
	assert.Equal(t, models.ActionCSSDisplayNone, rules[0].Action.Type)
}

func TestGroupPerDomainSelector(t *testing.T) {
	filters := []models.Filter{
		{Kind: models.KindElementHide, Selector: ".whatever", Domains: map[string]bool{"test.com": true}},
	}
	rules := Group(filters, nil, nil, 0)
	require.Len(t, rules, 1)
	assert.Equal(t, `^https?://([^/:]*\.)?test\.com[/:]`, rules[0].Trigger.URLFilter)
}

func TestGroupIDSelectorRewritten(t *testing.T) {
	filters := []models.Filter{
		{Kind: models.KindElementHide, Selector: "#example"},
	}
	rules := Group(filters, nil, nil, 0)
	require.Len(t, rules, 1)
	assert.Equal(t, "[id=example]", rules[0].Action.Selector)
}

func TestGroupDropsFilterWithExcludedDomain(t *testing.T) {
	filters := []models.Filter{
		{Kind: models.KindElementHide, Selector: ".ad", Domains: map[string]bool{"test.com": false}},
	}
	rules := Group(filters, nil, nil, 0)
	assert.Empty(t, rules)
}

func TestGroupDropsSelectorInGlobalExceptions(t *testing.T) {
	filters := []models.Filter{
		{Kind: models.KindElementHide, Selector: ".ad"},
		{Kind: models.KindElementHideException, Selector: ".ad"},
	}
	rules := Group(filters, nil, nil, 0)
	assert.Empty(t, rules)
}

func TestGroupDropsPerDomainGroupInExceptionDomains(t *testing.T) {
	filters := []models.Filter{
		{Kind: models.KindElementHide, Selector: ".ad", Domains: map[string]bool{"test.com": true}},
	}
	rules := Group(filters, []string{"test.com"}, nil, 0)
	assert.Empty(t, rules)
}

func TestGroupGenericUnlessDomainFromExceptions(t *testing.T) {
	filters := []models.Filter{
		{Kind: models.KindElementHide, Selector: ".ad"},
	}
	rules := Group(filters, []string{"allow.com"}, []string{"other.com"}, 0)
	require.Len(t, rules, 1)
	assert.ElementsMatch(t, []string{"*allow.com", "*other.com"}, rules[0].Trigger.UnlessDomain)
}

func TestGroupChunksSelectorsBySelectorLimit(t *testing.T) {
	var filters []models.Filter
	for i := 0; i < 5; i++ {
		filters = append(filters, models.Filter{Kind: models.KindElementHide, Selector: ".s"})
	}
	rules := Group(filters, nil, nil, 2)
	assert.Len(t, rules, 3)
}

func TestRewriteIDSelectorsLeavesQuotedIDsAlone(t *testing.T) {
	out := RewriteIDSelectors(`a[href="#foo"]`)
	assert.Equal(t, `a[href="#foo"]`, out)
}

func TestRewriteIDSelectorsMultipleRuns(t *testing.T) {
	out := RewriteIDSelectors("#a .b #c")
	assert.Equal(t, "[id=a] .b [id=c]", out)
}
