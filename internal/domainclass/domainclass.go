// Package domainclass splits a filter's domain mapping into the included and
// excluded hostname lists a WebKit trigger's if-domain/unless-domain pair
// needs.
package domainclass

import (
	"sort"
	"strings"

	"github.com/bnema/ublock-webkit-filters/internal/hostutil"
	"github.com/bnema/ublock-webkit-filters/internal/models"
)

// Classify splits domains (host -> include(true)/exclude(false)) into sorted,
// punycode-normalized included and excluded hostname lists. The empty-string
// key, when present and true, flips the default so an otherwise-included
// host is dropped rather than included — it marks "applies everywhere except
// where explicitly excluded", not "applies here too" (§4.2).
func Classify(domains map[string]bool) (included, excluded []string) {
	defaultExcluded := domains[""] == true

	for host, include := range domains {
		if host == "" {
			continue
		}
		normalized := hostutil.Normalize(host)
		if !include {
			excluded = append(excluded, normalized)
			continue
		}
		if defaultExcluded {
			continue
		}
		included = append(included, normalized)
	}

	sort.Strings(included)
	sort.Strings(excluded)
	return included, excluded
}

// ReconcileIfDomain builds a rule's if-domain list from included/excluded
// host sets, applying subdomain-exception reconciliation (§4.4 step 7;
// called by the Rule Emitter only): when an included domain
// has one or more excluded strict subdomains, emit the bare host (plus
// "www."+host unless www itself is excluded) instead of the usual
// wildcard-any-subdomain "*"+host form, so the exclusion can still apply to
// the other subdomains that WebKit's own matching can't otherwise carve out.
func ReconcileIfDomain(kind models.Kind, included, excluded []string) []string {
	if len(included) == 0 {
		return nil
	}

	var out []string
	for _, d := range included {
		subs := strictSubdomainsOf(excluded, d)
		reconcilable := kind == models.KindBlocking || kind == models.KindElementHide
		if reconcilable && len(subs) > 0 {
			out = append(out, d)
			if !contains(excluded, "www."+d) {
				out = append(out, "www."+d)
			}
			continue
		}
		out = append(out, "*"+d)
	}
	return out
}

// UnlessDomain builds a rule's unless-domain list: only meaningful when no
// inclusion list applies (§4.4 step 7's final sentence).
func UnlessDomain(included, excluded []string) []string {
	if len(included) > 0 || len(excluded) == 0 {
		return nil
	}
	out := make([]string, len(excluded))
	for i, d := range excluded {
		out[i] = "*" + d
	}
	return out
}

func strictSubdomainsOf(hosts []string, parent string) []string {
	suffix := "." + parent
	var out []string
	for _, h := range hosts {
		if strings.HasSuffix(h, suffix) {
			out = append(out, h)
		}
	}
	return out
}

func contains(hosts []string, target string) bool {
	for _, h := range hosts {
		if h == target {
			return true
		}
	}
	return false
}
