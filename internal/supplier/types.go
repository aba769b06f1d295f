// Package supplier talks to the AutoQuotes products API and normalizes its
// loosely-shaped responses into strict internal types. Nothing outside this
// package sees the wire format.
package supplier

import "context"

// Manufacturer identifies one supplier-side manufacturer.
type Manufacturer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Media kinds as normalized from the supplier payload.
const (
	MediaKindDocument = "document"
	MediaKindResource = "resource"
)

// MediaItem is a document or resource attached to a product.
type MediaItem struct {
	Kind string // MediaKindDocument or MediaKindResource
	Type string // document media type, or resource type such as "SpecSheet"
	URL  string
}

// Attribute is one category property/value pair.
type Attribute struct {
	Name  string
	Value string
}

// Product is the normalized supplier product.
type Product struct {
	ID               string // permanent supplier product id
	ManufacturerID   string
	ManufacturerName string
	ModelNumber      string
	Title            string
	Description      string
	ListPrice        float64
	NetPrice         float64
	Category         string
	Pictures         []string
	Media            []MediaItem
	Attributes       []Attribute
}

// Client is the supplier API surface the pipeline consumes.
type Client interface {
	ListManufacturers(ctx context.Context) ([]Manufacturer, error)
	ListProducts(ctx context.Context, manufacturerID string) ([]Product, error)
	// GetProductDetail returns nil (no error) when the product is unknown.
	GetProductDetail(ctx context.Context, productID string) (*Product, error)
}
