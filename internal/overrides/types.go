// Package overrides resolves manually supplied images and variants from
// external stores. Overrides are a convenience layer, not a dependency:
// every transport or auth failure degrades to "no override" so the pipeline
// never fails because a lookup did.
package overrides

import "context"

// ImageOverride replaces all supplier-sourced images for a product.
type ImageOverride struct {
	ContentType string
	Attachment  string // base64 payload
}

// ImageResolver looks up a manual image by model number (case-sensitive).
// A nil result means no override.
type ImageResolver interface {
	Resolve(ctx context.Context, modelNumber string) *ImageOverride
}

// VariantOverride is one manual variant row for a model.
type VariantOverride struct {
	OptionName    string  `json:"optionName"`
	OptionValue   string  `json:"optionValue"`
	PriceModifier float64 `json:"priceModifier"`
	SKUSuffix     string  `json:"skuSuffix"`
}

// VariantResolver looks up manual variants by model number
// (case-insensitive). Zero rows means default single-variant behavior.
type VariantResolver interface {
	Resolve(ctx context.Context, modelNumber string) []VariantOverride
}
