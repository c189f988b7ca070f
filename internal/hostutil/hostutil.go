// Package hostutil lowercases and punycode-encodes hostnames shared by the
// pattern lowering and domain classification stages.
package hostutil

import (
	"strings"

	"golang.org/x/net/idna"
)

// profile is the IDNA lookup profile the rest of the pack reaches for
// (region23-urlparser, t0gun-go-spf). It rejects hosts with disallowed
// characters; Normalize handles those by falling back to plain lowercasing
// instead of failing the whole filter.
var profile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
)

// Normalize lowercases a hostname and punycode-encodes any non-ASCII label.
// Hosts that idna cannot encode (malformed input, wildcards slipped in from
// upstream patterns) are returned lowercased but otherwise untouched rather
// than causing the whole filter to fail — pattern lowering has no failure
// mode (§4.1).
func Normalize(host string) string {
	if host == "" {
		return host
	}
	ascii, err := profile.ToASCII(host)
	if err != nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(ascii)
}
