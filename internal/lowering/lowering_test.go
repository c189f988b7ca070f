package lowering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerEmptyAndWildcard(t *testing.T) {
	assert.Equal(t, Pattern{Regexp: ".*"}, Lower("", "https?://"))
	assert.Equal(t, Pattern{Regexp: ".*"}, Lower("*", "https?://"))
}

func TestLowerPlainPattern(t *testing.T) {
	p := Lower("example.com", "https?://")
	assert.Equal(t, `example\.com`, p.Regexp)
	assert.False(t, p.CaseInsensitiveSafe)
	assert.Equal(t, "", p.Hostname)
	assert.False(t, p.HostnameOnly)
}

func TestLowerHostnameAnchorWildcardScheme(t *testing.T) {
	p := Lower("||example.com", "[^:]+:(//)?")
	assert.Equal(t, `^[^:]+:(//)?([^/]+\.)?example\.com`, p.Regexp)
	assert.True(t, p.CaseInsensitiveSafe)
	assert.Equal(t, "example.com", p.Hostname)
	assert.True(t, p.HostnameOnly)
}

func TestLowerNoScheme(t *testing.T) {
	p := Lower("foo", "wss?://")
	assert.Equal(t, "foo", p.Regexp)
	assert.False(t, p.CaseInsensitiveSafe)
	assert.Equal(t, "", p.Hostname)
}

func TestLowerBothAnchorsWithLiteralScheme(t *testing.T) {
	p := Lower("|http://example.com/|", "https?://")
	assert.Equal(t, `^http://example\.com/$`, p.Regexp)
	assert.True(t, p.CaseInsensitiveSafe)
	assert.Equal(t, "example.com", p.Hostname)
	assert.False(t, p.HostnameOnly)
	assert.True(t, p.HostnameFromLiteralScheme)
}

func TestLowerUnicodePercentEncoded(t *testing.T) {
	p := Lower("🐈", "https?://")
	assert.Contains(t, p.Regexp, "%F0%9F%90%88")
}

func TestLowerLetterAfterHostnameResetsCaseSensitivity(t *testing.T) {
	p := Lower("||example.com/Path", "https?://")
	assert.False(t, p.CaseInsensitiveSafe)
	assert.Equal(t, "example.com", p.Hostname)
}

func TestLowerLeadingAndTrailingAsterisksDropped(t *testing.T) {
	p := Lower("*ads*", "https?://")
	assert.Equal(t, "ads", p.Regexp)
}

func TestLowerInteriorAsteriskBecomesDotStar(t *testing.T) {
	p := Lower("ad*banner", "https?://")
	assert.Equal(t, "ad.*banner", p.Regexp)
}

func TestLowerSeparatorInterior(t *testing.T) {
	p := Lower("ads^tracker", "https?://")
	assert.Equal(t, `ads[^-_.%A-Za-z0-9]tracker`, p.Regexp)
}

func TestLowerEscapesSpecialChars(t *testing.T) {
	p := Lower("a.b+c", "https?://")
	assert.Equal(t, `a\.b\+c`, p.Regexp)
}
