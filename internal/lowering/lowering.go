// Package lowering turns one filter's wildcard source pattern into a
// WebKit-dialect regular expression fragment plus metadata (hostname,
// case-sensitivity safety), per the two-pass design: a first pass locates
// the hostname span by structure alone, a second pass lowers every
// character of the remaining pattern.
package lowering

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bnema/ublock-webkit-filters/internal/hostutil"
)

// escapedChars anywhere in the pattern are backslash-escaped.
const escapedChars = `.+?${}()[]\`

// separatorClass matches any byte outside [-_.%A-Za-z0-9], used wherever the
// source pattern's ^ separator operator appears mid-pattern.
const separatorClass = `[^-_.%A-Za-z0-9]`

// Pattern is the lowered-pattern record (§3).
type Pattern struct {
	Regexp              string
	CaseInsensitiveSafe bool
	Hostname            string
	HostnameOnly        bool

	// HostnameFromLiteralScheme is true when the hostname span was found
	// via a literal "://" in the pattern body rather than via a leading
	// "||" anchor; the emitter uses this to decide whether a missing
	// scheme anchor needs the full "^<scheme>.*" prefix or just "^".
	HostnameFromLiteralScheme bool
}

// Lower converts pattern into a lowered-pattern record. scheme is the
// primary URL-scheme pattern selected by the resource-type mapper (e.g.
// "https?://", "wss?://", "[^:]+:(//)?") and is only spliced into the
// regexp when a hostname anchor ("||") is present or the pattern starts
// with a "^" separator.
func Lower(pattern, scheme string) Pattern {
	if pattern == "" || pattern == "*" {
		return Pattern{Regexp: ".*"}
	}

	// Iterate by Unicode scalar value: converting to []rune already yields
	// scalar values rather than UTF-16 code units, so surrogate-pair
	// splitting never affects the first/last position checks below.
	runes := []rune(pattern)

	leftAnchor, rightAnchor, hostnameAnchor := false, false, false
	start, end := 0, len(runes)

	if len(runes) >= 2 && runes[0] == '|' && runes[1] == '|' {
		hostnameAnchor = true
		start = 2
	} else if len(runes) >= 1 && runes[0] == '|' {
		leftAnchor = true
		start = 1
	}
	if end > start && runes[end-1] == '|' {
		rightAnchor = true
		end--
	}

	body := runes[start:end]
	hostnameStart, hostnameEnd := scanHostnameSpan(body, hostnameAnchor)

	var hostname string
	var hostnameOnly, literalScheme bool
	if hostnameStart >= 0 {
		hostname = hostutil.Normalize(string(body[hostnameStart:hostnameEnd]))
		// A lone trailing "^" right after the hostname is just the
		// separator-boundary anchor ("||example.com^" meaning "example.com
		// followed by a separator or end of string") and doesn't disqualify
		// the pattern from being hostname-only.
		trailingCaretOnly := hostnameEnd == len(body)-1 && hostnameEnd >= 0 && body[len(body)-1] == '^'
		hostnameOnly = hostnameStart == 0 && (hostnameEnd == len(body) || trailingCaretOnly)
		literalScheme = !hostnameAnchor
	}

	var sb strings.Builder
	caseInsensitiveSafe := false
	letterAfterHostname := false

	n := len(body)
	for i := 0; i < n; {
		if hostnameStart >= 0 && i == hostnameStart {
			if hostnameAnchor {
				sb.WriteString(scheme)
				sb.WriteString(`([^/]+\.)?`)
			}
			sb.WriteString(regexp.QuoteMeta(hostname))
			caseInsensitiveSafe = true
			i = hostnameEnd
			continue
		}

		r := body[i]
		switch {
		case r == '*':
			j := i
			for j < n && body[j] == '*' {
				j++
			}
			if i != 0 && j != n {
				sb.WriteString(".*")
			}
			i = j

		case r == '^':
			switch {
			case i == 0:
				sb.WriteString("^")
				sb.WriteString(scheme)
				sb.WriteString("(.*" + separatorClass + ")?")
			case i == n-1:
				sb.WriteString("(" + separatorClass + ".*)?$")
			default:
				sb.WriteString(separatorClass)
			}
			i++

		case strings.ContainsRune(escapedChars, r):
			sb.WriteByte('\\')
			sb.WriteRune(r)
			i++

		case r > 127:
			sb.WriteString(percentEncodeRune(r))
			i++

		default:
			if hostnameEnd >= 0 && i >= hostnameEnd && isASCIILetter(r) {
				letterAfterHostname = true
			}
			sb.WriteRune(r)
			i++
		}
	}

	result := sb.String()
	if hostnameAnchor {
		result = "^" + result
	}
	if leftAnchor {
		result = "^" + result
	}
	if rightAnchor {
		result = result + "$"
	}
	if letterAfterHostname {
		caseInsensitiveSafe = false
	}

	return Pattern{
		Regexp:                    result,
		CaseInsensitiveSafe:       caseInsensitiveSafe,
		Hostname:                  hostname,
		HostnameOnly:              hostnameOnly,
		HostnameFromLiteralScheme: literalScheme,
	}
}

// scanHostnameSpan locates the hostname span's [start, end) rune indices
// within body. It returns (-1, -1) when no hostname span exists. This is
// pass one of the two-pass design: structure only, no lowering.
func scanHostnameSpan(body []rune, hostnameAnchor bool) (start, end int) {
	start = -1

	if hostnameAnchor {
		start = 0
	} else {
		for i := 0; i+2 < len(body); i++ {
			if body[i] == ':' && body[i+1] == '/' && body[i+2] == '/' {
				start = i + 3
				break
			}
		}
	}

	if start < 0 {
		return -1, -1
	}

	end = len(body)
	for i := start; i < len(body); i++ {
		switch body[i] {
		case '*', '^', '?', '/', '|':
			end = i
		}
		if end != len(body) {
			break
		}
	}
	return start, end
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func percentEncodeRune(r rune) string {
	buf := make([]byte, utf8.RuneLen(r))
	utf8.EncodeRune(buf, r)
	var sb strings.Builder
	for _, b := range buf {
		fmt.Fprintf(&sb, "%%%02X", b)
	}
	return sb.String()
}
