package regexvalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAcceptsLoweredPattern(t *testing.T) {
	assert.True(t, Valid(`^[^:]+:(//)?([^/]+\.)?example\.com`))
}

func TestValidRejectsDisjunction(t *testing.T) {
	assert.False(t, Valid(`foo|bar`))
}

func TestValidAllowsDisjunctionInsideCharClass(t *testing.T) {
	assert.True(t, Valid(`ad[sv]`))
}

func TestValidRejectsShorthandClasses(t *testing.T) {
	assert.False(t, Valid(`\d+`))
}

func TestValidRejectsNumericQuantifier(t *testing.T) {
	assert.False(t, Valid(`a{2,3}`))
}

func TestValidRejectsNonASCII(t *testing.T) {
	assert.False(t, Valid("café"))
}

func TestValidRejectsLookahead(t *testing.T) {
	assert.False(t, Valid(`foo(?=bar)`))
}

func TestHasUnfixableIssuesFalseForShorthandOnly(t *testing.T) {
	assert.False(t, HasUnfixableIssues(`\d+`))
}

func TestHasUnfixableIssuesTrueForLookahead(t *testing.T) {
	assert.True(t, HasUnfixableIssues(`foo(?=bar)`))
}
