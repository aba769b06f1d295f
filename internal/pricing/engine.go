package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
)

// Engine computes net cost and final sell price for supplier products.
//
// The engine fronts the rule repository with an in-memory read-through
// cache. SetRule persists before updating the cache so every calculation
// after a successful set observes the new rule (read-your-writes).
// Calculation never returns an error: malformed inputs degrade to the list
// price and parse failures in a discount chain discard the bad token.
type Engine struct {
	repo   Repository
	logger *slog.Logger

	mu    sync.RWMutex
	rules map[string]Rule
}

// NewEngine constructs an Engine. Call Reload before first use.
func NewEngine(repo Repository, logger *slog.Logger) *Engine {
	return &Engine{repo: repo, logger: logger, rules: make(map[string]Rule)}
}

// Reload replaces the in-memory rule cache from durable storage.
func (e *Engine) Reload(ctx context.Context) error {
	rules, err := e.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("pricing: reload rules: %w", err)
	}
	next := make(map[string]Rule, len(rules))
	for _, r := range rules {
		next[r.Key()] = r
	}
	e.mu.Lock()
	e.rules = next
	e.mu.Unlock()
	return nil
}

// SetRule replaces the stored rule for the manufacturer wholesale.
func (e *Engine) SetRule(ctx context.Context, rule Rule) error {
	rule.Manufacturer = rule.Key()
	if rule.Manufacturer == "" {
		return fmt.Errorf("pricing: manufacturer key required")
	}
	if err := e.repo.Set(ctx, rule); err != nil {
		return fmt.Errorf("pricing: persist rule %s: %w", rule.Manufacturer, err)
	}
	e.mu.Lock()
	e.rules[rule.Manufacturer] = rule
	e.mu.Unlock()
	return nil
}

// Rules lists the cached rule set.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r)
	}
	return out
}

// Rule resolves the effective rule for a manufacturer, falling back to
// DEFAULT and then to a zero rule (net cost = list price, no markup).
func (e *Engine) Rule(manufacturer string) Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if r, ok := e.rules[NormalizeKey(manufacturer)]; ok {
		return r
	}
	if r, ok := e.rules[DefaultKey]; ok {
		return r
	}
	return Rule{Manufacturer: DefaultKey}
}

// Calculate maps a product's list/net price and manufacturer to a quote.
// Rounding happens once, at the end, so cent-level results are independent
// of discount-chain length.
func (e *Engine) Calculate(req Request) Quote {
	rule := e.Rule(req.Manufacturer)

	net := req.ListPrice
	switch rule.Mode {
	case ModeAQNet:
		// A zero supplier net price is a known supplier bug; fall back
		// to the list price rather than sell for free.
		if req.NetPrice > 0 {
			net = req.NetPrice
		}
	case ModeListDiscount:
		net = applyDiscountChain(req.ListPrice, rule.DiscountChain)
	}

	final := net * (1 + rule.MarkupPercentage/100)
	if rule.OverridePrice != nil {
		final = *rule.OverridePrice
	}
	return Quote{NetCost: round2(net), FinalPrice: round2(final)}
}

// applyDiscountChain multiplies price through an ordered "d1/d2/.../dn"
// chain of percentage discounts. Non-numeric tokens are discarded.
func applyDiscountChain(listPrice float64, chain string) float64 {
	price := listPrice
	for _, token := range strings.Split(chain, "/") {
		d, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil {
			continue
		}
		price *= 1 - d/100
	}
	return price
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
