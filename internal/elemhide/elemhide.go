// Package elemhide collates cosmetic (element-hide) filters into per-domain
// CSS-display-none rules, chunked under a selector-count cap and rewritten
// to work around the target engine's ID-selector case folding (§4.5).
package elemhide

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/domainclass"
	"github.com/bnema/ublock-webkit-filters/internal/models"
)

// DefaultSelectorLimit is the maximum number of comma-joined selectors a
// single css-display-none rule may carry.
const DefaultSelectorLimit = 5000

var trueVal = true

// Group builds the CSS-display-none rule set from a list of element-hide and
// element-hide-exception filters plus the hostname-only whitelist domains
// contributed by $elemhide and $generichide exceptions elsewhere in the
// filter list. selectorLimit <= 0 selects DefaultSelectorLimit.
func Group(filters []models.Filter, elemhideWhitelist, generichideWhitelist []string, selectorLimit int) []models.WebKitRule {
	if selectorLimit <= 0 {
		selectorLimit = DefaultSelectorLimit
	}

	selectorExceptions := make(map[string]bool)
	for _, f := range filters {
		if f.Kind == models.KindElementHideException {
			selectorExceptions[f.Selector] = true
		}
	}

	var generic []string
	perDomain := make(map[string][]string)

	for _, f := range filters {
		if f.Kind != models.KindElementHide {
			continue
		}
		if selectorExceptions[f.Selector] {
			continue
		}
		included, excluded := domainclass.Classify(f.Domains)
		if len(excluded) > 0 {
			continue
		}
		if len(included) == 0 {
			generic = append(generic, f.Selector)
			continue
		}
		for _, d := range included {
			perDomain[d] = append(perDomain[d], f.Selector)
		}
	}

	perDomainExceptions := dedupSorted(elemhideWhitelist)
	genericExceptions := dedupSorted(append(append([]string{}, elemhideWhitelist...), generichideWhitelist...))
	perDomainExceptionSet := toSet(perDomainExceptions)

	var rules []models.WebKitRule

	if len(generic) > 0 {
		rules = append(rules, emitGroup("", generic, genericExceptions, selectorLimit, true)...)
	}

	domains := make([]string, 0, len(perDomain))
	for d := range perDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	for _, d := range domains {
		if perDomainExceptionSet[d] {
			continue
		}
		exceptionsForDomain := subdomainsOf(perDomainExceptions, d)
		rules = append(rules, emitGroup(d, perDomain[d], exceptionsForDomain, selectorLimit, false)...)
	}

	return rules
}

func emitGroup(domain string, selectors, exceptionDomains []string, selectorLimit int, generic bool) []models.WebKitRule {
	var rules []models.WebKitRule

	urlFilter := `^https?://`
	if !generic {
		urlFilter = `^https?://([^/:]*\.)?` + regexp.QuoteMeta(domain) + `[/:]`
	}

	var unlessDomain []string
	if len(exceptionDomains) > 0 {
		unlessDomain = make([]string, len(exceptionDomains))
		for i, d := range exceptionDomains {
			unlessDomain[i] = "*" + d
		}
	}

	for start := 0; start < len(selectors); start += selectorLimit {
		end := start + selectorLimit
		if end > len(selectors) {
			end = len(selectors)
		}
		joined := strings.Join(selectors[start:end], ",")
		joined = RewriteIDSelectors(joined)

		rules = append(rules, models.WebKitRule{
			Trigger: models.WebKitTrigger{
				URLFilter:                urlFilter,
				URLFilterIsCaseSensitive: &trueVal,
				UnlessDomain:             unlessDomain,
			},
			Action: models.WebKitAction{
				Type:     models.ActionCSSDisplayNone,
				Selector: joined,
			},
		})
	}
	return rules
}

// RewriteIDSelectors rewrites every unquoted "#id" run in selector to
// "[id=id]" (§4.5.1), tracking quote state so ids inside string literals
// (attribute value selectors, :contains() arguments) are left untouched.
func RewriteIDSelectors(selector string) string {
	var sb strings.Builder
	inSingle, inDouble := false, false

	runes := []rune(selector)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '\\' && i+1 < len(runes):
			sb.WriteRune(r)
			sb.WriteRune(runes[i+1])
			i++
			continue
		case inSingle:
			sb.WriteRune(r)
			if r == '\'' {
				inSingle = false
			}
			continue
		case inDouble:
			sb.WriteRune(r)
			if r == '"' {
				inDouble = false
			}
			continue
		case r == '\'':
			inSingle = true
			sb.WriteRune(r)
			continue
		case r == '"':
			inDouble = true
			sb.WriteRune(r)
			continue
		case r == '#':
			j := i + 1
			for j < len(runes) && isIDChar(runes[j]) {
				j++
			}
			if j > i+1 {
				sb.WriteString("[id=")
				sb.WriteString(string(runes[i+1 : j]))
				sb.WriteString("]")
				i = j - 1
				continue
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isIDChar(r rune) bool {
	return r == '-' || r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		r >= 0x80
}

func dedupSorted(hosts []string) []string {
	set := make(map[string]bool)
	for _, h := range hosts {
		if h != "" {
			set[h] = true
		}
	}
	out := make([]string, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

func toSet(hosts []string) map[string]bool {
	set := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		set[h] = true
	}
	return set
}

func subdomainsOf(hosts []string, parent string) []string {
	suffix := "." + parent
	var out []string
	for _, h := range hosts {
		if strings.HasSuffix(h, suffix) {
			out = append(out, h)
		}
	}
	return out
}
