package parser

import (
	"strings"
	"testing"

	"github.com/bnema/ublock-webkit-filters/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, line string) models.Filter {
	t.Helper()
	filters, err := New().Parse(strings.NewReader(line))
	require.NoError(t, err)
	require.Len(t, filters, 1)
	return filters[0]
}

func TestParseSkipsCommentLines(t *testing.T) {
	filters, err := New().Parse(strings.NewReader("! this is a comment\n[Adblock Plus 2.0]\n"))
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestParsePlainBlockingFilter(t *testing.T) {
	f := parseOne(t, "||example.com^")
	assert.Equal(t, models.KindBlocking, f.Kind)
	assert.Equal(t, "||example.com^", f.Pattern)
}

func TestParseWhitelistFilter(t *testing.T) {
	f := parseOne(t, "@@||example.com^$document")
	assert.Equal(t, models.KindWhitelist, f.Kind)
	assert.Equal(t, uint32(models.ContentDocument), f.ContentType)
}

func TestParseResourceTypeOptions(t *testing.T) {
	f := parseOne(t, "foo$script,image")
	assert.Equal(t, models.ContentScript|models.ContentImage, f.ContentType)
}

func TestParseThirdPartyOption(t *testing.T) {
	f := parseOne(t, "foo$third-party")
	require.NotNil(t, f.ThirdParty)
	assert.True(t, *f.ThirdParty)
}

func TestParseDomainOption(t *testing.T) {
	f := parseOne(t, "foo$domain=a.com|~b.a.com")
	assert.Equal(t, true, f.Domains["a.com"])
	assert.Equal(t, false, f.Domains["b.a.com"])
}

func TestParseGenericOptions(t *testing.T) {
	f := parseOne(t, "@@||example.com^$genericblock")
	assert.True(t, f.GenericBlock)
}

func TestParseDropsSitekeyFilter(t *testing.T) {
	filters, err := New().Parse(strings.NewReader("foo$sitekey=abc123"))
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestParseDropsEmptyPatternFilter(t *testing.T) {
	filters, err := New().Parse(strings.NewReader("$script"))
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestParseDropsUnsupportedOption(t *testing.T) {
	filters, err := New().Parse(strings.NewReader("foo$csp=default-src 'none'"))
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestParseElementHideFilter(t *testing.T) {
	f := parseOne(t, "test.com##.banner")
	assert.Equal(t, models.KindElementHide, f.Kind)
	assert.Equal(t, ".banner", f.Selector)
	assert.True(t, f.Domains["test.com"])
}

func TestParseGenericElementHideFilter(t *testing.T) {
	f := parseOne(t, "###banner")
	assert.Equal(t, models.KindElementHide, f.Kind)
	assert.Empty(t, f.Domains)
}

func TestParseElementHideException(t *testing.T) {
	f := parseOne(t, "test.com#@#.banner")
	assert.Equal(t, models.KindElementHideException, f.Kind)
}

func TestParseSkipsScriptletInjection(t *testing.T) {
	filters, err := New().Parse(strings.NewReader("test.com##+js(set-constant.js)"))
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestParseSkipsProceduralFilter(t *testing.T) {
	filters, err := New().Parse(strings.NewReader("test.com##div:has(.ad)"))
	require.NoError(t, err)
	assert.Empty(t, filters)
}

func TestParseStatsCountsClassifications(t *testing.T) {
	p := New()
	_, err := p.Parse(strings.NewReader("! comment\n||a.com^\n@@||b.com^\ntest.com##.x\n"))
	require.NoError(t, err)
	stats := p.Stats()
	assert.Equal(t, 1, stats.Comments)
	assert.Equal(t, 1, stats.Network)
	assert.Equal(t, 1, stats.Exception)
	assert.Equal(t, 1, stats.Cosmetic)
}
