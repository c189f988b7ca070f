// Package emitter assembles WebKit trigger/action rule records for blocking
// and whitelist filters, generalizing the teacher's flat convertNetwork into
// the full subdomain-exception, top-URL-exclusion, and multi-scheme-split
// design (§4.4). Every url-filter it builds is checked against
// internal/regexvalidate before being emitted, so a rule WebKit's content
// blocker engine would reject never reaches the output (§8.1).
package emitter

import (
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/domainclass"
	"github.com/bnema/ublock-webkit-filters/internal/lowering"
	"github.com/bnema/ublock-webkit-filters/internal/models"
	"github.com/bnema/ublock-webkit-filters/internal/regexvalidate"
	"github.com/bnema/ublock-webkit-filters/internal/restype"
)

// Context carries hostnames contributed by exceptions elsewhere in the
// filter list (e.g. $genericblock whitelist entries) that must widen this
// filter's exclusion set (§4.4 step 4).
type Context struct {
	ExceptionDomains []string
}

var trueVal = true

// Emit produces the rule(s) for one blocking or whitelist filter. An
// element-hide filter must go through internal/elemhide instead.
func Emit(f models.Filter, ctx Context) []models.WebKitRule {
	if !f.IsNetwork() || f.HasSitekeys() || f.Pattern == "" {
		return nil
	}

	schemes := restype.Schemes(f.ContentType)
	primary := schemes[0]
	pat := lowering.Lower(f.Pattern, primary)

	var rules []models.WebKitRule

	documentWhitelist := f.Kind == models.KindWhitelist &&
		f.ContentType&models.ContentDocument != 0 && pat.HostnameOnly
	if documentWhitelist {
		rules = append(rules, models.WebKitRule{
			Trigger: models.WebKitTrigger{
				URLFilter: ".*",
				IfDomain:  []string{"*" + pat.Hostname},
			},
			Action: models.WebKitAction{Type: models.ActionIgnorePreviousRule},
		})
		if f.ContentType&^models.ContentDocument == 0 {
			return rules
		}
	}

	included, excluded := domainclass.Classify(f.Domains)
	excluded = append(excluded, ctx.ExceptionDomains...)

	resourceTypes := restype.ResourceTypes(f.ContentType)
	if pat.Hostname == "" && f.Kind == models.KindBlocking {
		resourceTypes = removeResourceType(resourceTypes, models.ResourceDocument)
	}
	if len(resourceTypes) == 0 {
		if documentWhitelist {
			return rules
		}
		return nil
	}

	actionType := models.ActionBlock
	if f.Kind == models.KindWhitelist {
		actionType = models.ActionIgnorePreviousRule
	}

	var loadType []string
	if f.ThirdParty != nil {
		if *f.ThirdParty {
			loadType = []string{models.LoadThirdParty}
		} else {
			loadType = []string{models.LoadFirstParty}
		}
	}

	ifDomain := domainclass.ReconcileIfDomain(f.Kind, included, excluded)
	unlessDomain := domainclass.UnlessDomain(included, excluded)

	var unlessTopURL []string
	var topURLCaseSensitive *bool
	primaryURLFilter, primaryCaseSensitive := anchorAndCase(pat, primary, f.MatchCase)
	if len(ifDomain) == 0 && len(unlessDomain) == 0 &&
		f.Kind == models.KindBlocking && (f.ContentType == 0 || f.ContentType&models.ContentSubdocument != 0) && pat.Hostname != "" {
		unlessTopURL = []string{primaryURLFilter}
		topURLCaseSensitive = primaryCaseSensitive
	}

	if regexvalidate.Valid(primaryURLFilter) {
		rules = append(rules, models.WebKitRule{
			Trigger: models.WebKitTrigger{
				URLFilter:                   primaryURLFilter,
				URLFilterIsCaseSensitive:    primaryCaseSensitive,
				ResourceType:                resourceTypes,
				LoadType:                    loadType,
				IfDomain:                    ifDomain,
				UnlessDomain:                unlessDomain,
				UnlessTopURL:                unlessTopURL,
				TopURLFilterIsCaseSensitive: topURLCaseSensitive,
			},
			Action: models.WebKitAction{Type: actionType},
		})
	}

	for _, scheme := range schemes[1:] {
		altPat := lowering.Lower(f.Pattern, scheme)
		altURLFilter, altCaseSensitive := anchorAndCase(altPat, scheme, f.MatchCase)
		if !regexvalidate.Valid(altURLFilter) {
			continue
		}
		var altUnlessTopURL []string
		var altTopURLCaseSensitive *bool
		if len(unlessTopURL) > 0 {
			altUnlessTopURL = []string{altURLFilter}
			altTopURLCaseSensitive = altCaseSensitive
		}
		rules = append(rules, models.WebKitRule{
			Trigger: models.WebKitTrigger{
				URLFilter:                   altURLFilter,
				URLFilterIsCaseSensitive:    altCaseSensitive,
				ResourceType:                resourceTypes,
				LoadType:                    loadType,
				IfDomain:                    ifDomain,
				UnlessDomain:                unlessDomain,
				UnlessTopURL:                altUnlessTopURL,
				TopURLFilterIsCaseSensitive: altTopURLCaseSensitive,
			},
			Action: models.WebKitAction{Type: actionType},
		})
	}

	return rules
}

// anchorAndCase applies §4.4 steps 2-3: scheme-anchors the url-filter if it
// isn't already, then derives the lowercased text and case-sensitivity flag.
func anchorAndCase(pat lowering.Pattern, scheme string, matchCase bool) (string, *bool) {
	urlFilter := pat.Regexp
	if !strings.HasPrefix(urlFilter, "^") {
		if pat.HostnameFromLiteralScheme {
			urlFilter = "^" + urlFilter
		} else {
			urlFilter = "^" + scheme + ".*" + urlFilter
		}
	}

	caseSensitive := pat.CaseInsensitiveSafe || matchCase
	if pat.CaseInsensitiveSafe && !matchCase {
		urlFilter = strings.ToLower(urlFilter)
	}

	var flag *bool
	if caseSensitive {
		flag = &trueVal
	}
	return urlFilter, flag
}

func removeResourceType(types []string, target string) []string {
	out := types[:0:0]
	for _, t := range types {
		if t != target {
			out = append(out, t)
		}
	}
	return out
}
