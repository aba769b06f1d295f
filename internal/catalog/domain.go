package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates a staged product was not found.
var ErrNotFound = errors.New("catalog: product not found")

// Status is the lifecycle state of a staged product.
type Status string

const (
	// StatusStaged marks a product waiting to be pushed to the storefront.
	StatusStaged Status = "staged"
	// StatusSynced marks a product that was pushed successfully.
	StatusSynced Status = "synced"
	// StatusError marks a product whose last push failed.
	StatusError Status = "error"
	// StatusArchived marks a product whose manufacturer was disabled.
	StatusArchived Status = "archived"
)

// Event is a lifecycle event driving status transitions.
type Event string

const (
	EventIngested             Event = "ingested"
	EventSyncSucceeded        Event = "sync_succeeded"
	EventSyncFailed           Event = "sync_failed"
	EventPricingReapplied     Event = "pricing_reapplied"
	EventManufacturerDisabled Event = "manufacturer_disabled"
)

// Transition applies a lifecycle event to a status and returns the next
// status. It is the single place the state machine is encoded; repositories
// and stages must route all status writes through it.
func Transition(current Status, ev Event) (Status, error) {
	switch ev {
	case EventIngested:
		// Upsert overwrites unconditionally; re-ingesting an archived
		// product (after its manufacturer is re-enabled) revives it.
		return StatusStaged, nil
	case EventSyncSucceeded:
		if current == StatusArchived {
			return current, fmt.Errorf("catalog: cannot sync %s product", current)
		}
		return StatusSynced, nil
	case EventSyncFailed:
		if current == StatusArchived {
			return current, fmt.Errorf("catalog: cannot sync %s product", current)
		}
		return StatusError, nil
	case EventPricingReapplied:
		if current != StatusStaged && current != StatusSynced {
			return current, fmt.Errorf("catalog: cannot reprice %s product", current)
		}
		return StatusStaged, nil
	case EventManufacturerDisabled:
		return StatusArchived, nil
	default:
		return current, fmt.Errorf("catalog: unknown event %q", ev)
	}
}

// CategoryAttribute is one property/value pair from the supplier's category data.
type CategoryAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Image is a single product image: either a remote URL or an inline base64
// attachment, never both and never neither.
type Image struct {
	Src         string `json:"src,omitempty"`
	Attachment  string `json:"attachment,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Validate enforces the src-XOR-attachment invariant.
func (i Image) Validate() error {
	if i.Src == "" && i.Attachment == "" {
		return errors.New("catalog: image needs a src or an attachment")
	}
	if i.Src != "" && i.Attachment != "" {
		return errors.New("catalog: image cannot carry both src and attachment")
	}
	return nil
}

// VariantOption is one option-name/option-value pair on a variant.
type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is a sellable variation of a product. Products without explicit
// variants are pushed as a single implicit "Default Title" variant.
type Variant struct {
	ID           int64           `json:"id,omitempty"`
	Title        string          `json:"title"`
	Price        float64         `json:"price"`
	SKU          string          `json:"sku"`
	InventoryQty int             `json:"inventoryQty"`
	Options      []VariantOption `json:"options,omitempty"` // at most three
}

// Product is the canonical staged representation of one sellable item,
// independent of both the supplier and the storefront.
type Product struct {
	ID                int64
	SupplierProductID string // unique; upsert key
	ManufacturerID    string
	ManufacturerName  string
	ModelNumber       string // secondary lookup key, not unique across manufacturers
	Title             string
	DescriptionHTML   string
	ListPrice         float64
	SupplierNetPrice  float64 // net price as reported by the supplier
	NetCost           float64 // computed per pricing rule
	FinalPrice        float64
	SpecSheetURL      string
	Attributes        []CategoryAttribute
	Images            []Image
	Variants          []Variant
	Tags              string
	ProductType       string
	Status            Status
	LastSyncError     string
	StorefrontID      int64
	StorefrontHandle  string
	LastIngested      time.Time
	LastSynced        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
