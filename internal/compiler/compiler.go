// Package compiler orchestrates the add_filter/generate_rules lifecycle:
// it buffers parsed filters, resolves the whitelist exception-domain context
// ($genericblock/$generichide/$elemhide) that the Rule Emitter and
// Element-Hide Grouper both need, and runs the result through the Rule-Set
// Optimizer.
package compiler

import (
	"errors"
	"fmt"

	"github.com/bnema/ublock-webkit-filters/internal/domainclass"
	"github.com/bnema/ublock-webkit-filters/internal/elemhide"
	"github.com/bnema/ublock-webkit-filters/internal/emitter"
	"github.com/bnema/ublock-webkit-filters/internal/lowering"
	"github.com/bnema/ublock-webkit-filters/internal/models"
	"github.com/bnema/ublock-webkit-filters/internal/optimizer"
	"github.com/bnema/ublock-webkit-filters/internal/restype"
)

// ErrInvariant marks a fatal programming-bug-class failure (§7c) — an
// invariant the compiler itself should have guaranteed, not a malformed
// input. It is never returned because of bad filter-list content.
var ErrInvariant = errors.New("compiler invariant violated")

// Drop reason labels for Stats.DropReasons.
const (
	DropSitekey      = "sitekey"
	DropEmptyPattern = "empty-pattern"
)

// Stats tracks what AddFilter/GenerateRules did, mirroring the
// parser.Stats/converter.Stats counter idiom.
type Stats struct {
	FiltersAdded int
	RulesEmitted int
	Dropped      int
	DropReasons  map[string]int
}

// Compiler buffers filters added via AddFilter until GenerateRules runs the
// whole set through the emitter, grouper, and optimizer.
type Compiler struct {
	network  []models.Filter
	elemhide []models.Filter
	stats    Stats
}

func New() *Compiler {
	return &Compiler{stats: Stats{DropReasons: make(map[string]int)}}
}

func (c *Compiler) Stats() Stats { return c.stats }

// AddFilter enqueues one parsed filter. It re-applies the sitekey/empty
// pattern rejection rule (§7a) itself rather than trusting the parser to
// have done so, so a filter constructed directly (e.g. in a test) is held
// to the same invariant.
func (c *Compiler) AddFilter(f models.Filter) {
	c.stats.FiltersAdded++

	if f.HasSitekeys() {
		c.drop(DropSitekey)
		return
	}
	if f.IsNetwork() && f.Pattern == "" {
		c.drop(DropEmptyPattern)
		return
	}

	if f.IsNetwork() {
		c.network = append(c.network, f)
	} else {
		c.elemhide = append(c.elemhide, f)
	}
}

func (c *Compiler) drop(reason string) {
	c.stats.Dropped++
	c.stats.DropReasons[reason]++
}

// GenerateRules runs every buffered filter through the Rule Emitter and
// Element-Hide Grouper, then the Rule-Set Optimizer, and returns the final
// rule set ordered CSS, CSS-exception, blocking, blocking-exception (§6) —
// applied unconditionally so the ordering holds even when the optimizer
// itself doesn't run. It defends the if-domain/unless-domain mutual
// exclusivity invariant before returning.
func (c *Compiler) GenerateRules(policy optimizer.Policy) ([]models.WebKitRule, error) {
	genericBlockHosts := wildcardHostnames(c.network, func(f models.Filter) bool {
		return f.Kind == models.KindWhitelist && f.GenericBlock
	})
	elemhideHosts := wildcardHostnames(c.network, func(f models.Filter) bool {
		return f.Kind == models.KindWhitelist && f.ElemHide
	})
	generichideHosts := wildcardHostnames(c.network, func(f models.Filter) bool {
		return f.Kind == models.KindWhitelist && f.GenericHide
	})

	var rules []models.WebKitRule
	for _, f := range c.network {
		// A whitelist filter carrying only $genericblock/$generichide/$elemhide
		// feeds the exception-domain sets above and whitelists no requests.
		if f.Kind == models.KindWhitelist && f.ContentType == 0 && (f.GenericBlock || f.GenericHide || f.ElemHide) {
			continue
		}
		ctx := emitter.Context{}
		if f.Kind == models.KindBlocking && len(genericBlockHosts) > 0 {
			included, _ := domainclass.Classify(f.Domains)
			if len(included) == 0 {
				ctx.ExceptionDomains = genericBlockHosts
			}
		}
		emitted := emitter.Emit(f, ctx)
		c.stats.RulesEmitted += len(emitted)
		rules = append(rules, emitted...)
	}

	grouped := elemhide.Group(c.elemhide, elemhideHosts, generichideHosts, elemhide.DefaultSelectorLimit)
	c.stats.RulesEmitted += len(grouped)
	rules = append(rules, grouped...)

	rules = optimizer.Optimize(rules, policy)
	rules = optimizer.OrderByCategory(rules)

	if err := validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func validate(rules []models.WebKitRule) error {
	for i, r := range rules {
		if len(r.Trigger.IfDomain) > 0 && len(r.Trigger.UnlessDomain) > 0 {
			return fmt.Errorf("%w: rule %d sets both if-domain and unless-domain", ErrInvariant, i)
		}
	}
	return nil
}

// wildcardHostnames lowers each matching filter's pattern and collects the
// hostname from any that turn out to be hostname-only — the form a
// $elemhide/$generichide/$genericblock whitelist entry (e.g.
// "@@||example.com^$elemhide") almost always takes.
func wildcardHostnames(filters []models.Filter, match func(models.Filter) bool) []string {
	var out []string
	for _, f := range filters {
		if !match(f) || f.Pattern == "" {
			continue
		}
		schemes := restype.Schemes(f.ContentType)
		pat := lowering.Lower(f.Pattern, schemes[0])
		if pat.HostnameOnly && pat.Hostname != "" {
			out = append(out, pat.Hostname)
		}
	}
	return out
}
