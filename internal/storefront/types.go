// Package storefront is the Shopify admin API client used by the sync stage.
package storefront

import "context"

// Product is the storefront product payload. Fields follow the Shopify
// admin REST shapes; prices travel as strings on the wire.
type Product struct {
	ID          int64       `json:"id,omitempty"`
	Title       string      `json:"title,omitempty"`
	BodyHTML    string      `json:"body_html,omitempty"`
	Vendor      string      `json:"vendor,omitempty"`
	ProductType string      `json:"product_type,omitempty"`
	Handle      string      `json:"handle,omitempty"`
	Tags        string      `json:"tags,omitempty"`
	Options     []Option    `json:"options,omitempty"`
	Variants    []Variant   `json:"variants,omitempty"`
	Images      []Image     `json:"images,omitempty"`
	Metafields  []Metafield `json:"metafields,omitempty"`
}

// Option declares one option dimension on a product.
type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values,omitempty"`
}

// Variant is one sellable variation.
type Variant struct {
	ID                int64  `json:"id,omitempty"`
	Title             string `json:"title,omitempty"`
	Option1           string `json:"option1,omitempty"`
	Option2           string `json:"option2,omitempty"`
	Option3           string `json:"option3,omitempty"`
	Price             string `json:"price"`
	SKU               string `json:"sku,omitempty"`
	InventoryQuantity int    `json:"inventory_quantity,omitempty"`
}

// Image carries either a hosted URL or an inline base64 attachment.
type Image struct {
	Src        string `json:"src,omitempty"`
	Attachment string `json:"attachment,omitempty"`
}

// Metafield attaches typed metadata to a product.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// Client is the storefront API surface the sync stage consumes.
type Client interface {
	// FindByHandle returns nil (no error) when no product has the handle.
	FindByHandle(ctx context.Context, handle string) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, id int64, p Product) (*Product, error)
}
