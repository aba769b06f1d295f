package pricing

import (
	"errors"
	"strings"
)

// ErrRuleNotFound indicates no rule is stored for a manufacturer key.
var ErrRuleNotFound = errors.New("pricing: rule not found")

// Mode selects how a product's net cost is derived.
type Mode string

const (
	// ModeAQNet takes the supplier's net price directly, falling back to
	// the list price when the supplier reports zero.
	ModeAQNet Mode = "AQ_NET"
	// ModeListDiscount applies a chain of successive percentage discounts
	// to the list price.
	ModeListDiscount Mode = "LIST_DISCOUNT"
)

// DefaultKey is the reserved manufacturer key applied when no specific rule exists.
const DefaultKey = "DEFAULT"

// Rule is the per-manufacturer pricing policy. Rules are replaced wholesale
// on every set; there is no partial-field update.
type Rule struct {
	Manufacturer     string   `json:"manufacturer" validate:"required"`
	Mode             Mode     `json:"mode" validate:"required,oneof=AQ_NET LIST_DISCOUNT"`
	DiscountChain    string   `json:"discountChain,omitempty"`
	MarkupPercentage float64  `json:"markupPercentage"`
	OverridePrice    *float64 `json:"overridePrice,omitempty"`
}

// Key returns the normalized lookup key for the rule.
func (r Rule) Key() string {
	return NormalizeKey(r.Manufacturer)
}

// NormalizeKey uppercases and trims a manufacturer name for rule lookup.
func NormalizeKey(manufacturer string) string {
	return strings.ToUpper(strings.TrimSpace(manufacturer))
}

// Request carries the inputs to a price calculation.
type Request struct {
	ListPrice    float64
	NetPrice     float64
	Manufacturer string
	ModelNumber  string
}

// Quote is the result of a price calculation, rounded to cents.
type Quote struct {
	NetCost    float64
	FinalPrice float64
}
