package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/catalogbridge/catalogbridge/internal/catalog"
	"github.com/catalogbridge/catalogbridge/internal/pricing"
	"github.com/catalogbridge/catalogbridge/internal/supplier"
)

func (s *Service) ingestAll(ctx context.Context) ([]ItemResult, error) {
	// Rules may have been changed through another process since this one
	// loaded its cache; price the run against the stored set.
	if err := s.pricing.Reload(ctx); err != nil {
		return nil, err
	}

	enabled, err := s.settings.Enabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read enabled manufacturers: %w", err)
	}

	var results []ItemResult
	for _, mfrID := range enabled {
		products, err := s.supplier.ListProducts(ctx, mfrID)
		if err != nil {
			// One manufacturer failing must not stop the others.
			s.logger.Error("list supplier products", slog.String("manufacturer_id", mfrID), slog.Any("error", err))
			results = append(results, ItemResult{Key: mfrID, Action: ActionFailed, Err: err})
			continue
		}
		for _, sp := range products {
			if sp.ModelNumber == "" {
				// Cannot be keyed on the storefront side.
				results = append(results, ItemResult{Key: sp.ID, Action: ActionSkipped})
				continue
			}
			if _, err := s.stageProduct(ctx, sp); err != nil {
				s.logger.Error("stage product",
					slog.String("supplier_product_id", sp.ID),
					slog.String("model_number", sp.ModelNumber),
					slog.Any("error", err))
				results = append(results, ItemResult{Key: sp.ID, Action: ActionFailed, Err: err})
				continue
			}
			results = append(results, ItemResult{Key: sp.ID, Action: ActionIngested})
		}
	}
	s.logger.Info("ingest finished",
		slog.Int("manufacturers", len(enabled)),
		slog.Int("products", len(results)),
		slog.Int("failed", Failed(results)))
	return results, nil
}

// stageProduct prices one supplier product, resolves its image override and
// upserts it into the staging store.
func (s *Service) stageProduct(ctx context.Context, sp supplier.Product) (catalog.Product, error) {
	quote := s.pricing.Calculate(pricing.Request{
		ListPrice:    sp.ListPrice,
		NetPrice:     sp.NetPrice,
		Manufacturer: sp.ManufacturerName,
		ModelNumber:  sp.ModelNumber,
	})

	images := make([]catalog.Image, 0, len(sp.Pictures))
	for _, pic := range sp.Pictures {
		images = append(images, catalog.Image{Src: pic})
	}
	// A manual image replaces every supplier-sourced picture, it does not
	// append to them.
	if ov := s.images.Resolve(ctx, sp.ModelNumber); ov != nil {
		images = []catalog.Image{{Attachment: ov.Attachment, ContentType: ov.ContentType}}
	}

	attrs := make([]catalog.CategoryAttribute, 0, len(sp.Attributes))
	for _, a := range sp.Attributes {
		attrs = append(attrs, catalog.CategoryAttribute{Name: a.Name, Value: a.Value})
	}

	return s.products.Upsert(ctx, catalog.Product{
		SupplierProductID: sp.ID,
		ManufacturerID:    sp.ManufacturerID,
		ManufacturerName:  sp.ManufacturerName,
		ModelNumber:       sp.ModelNumber,
		Title:             sp.Title,
		DescriptionHTML:   sp.Description,
		ListPrice:         sp.ListPrice,
		SupplierNetPrice:  sp.NetPrice,
		NetCost:           quote.NetCost,
		FinalPrice:        quote.FinalPrice,
		SpecSheetURL:      specSheetURL(sp.Media),
		Attributes:        attrs,
		Images:            images,
		ProductType:       sp.Category,
		LastIngested:      s.now(),
	})
}

// specSheetURL prefers a document ending in .pdf and falls back to a generic
// SpecSheet resource.
func specSheetURL(media []supplier.MediaItem) string {
	for _, m := range media {
		if m.Kind == supplier.MediaKindDocument && strings.HasSuffix(strings.ToLower(m.URL), ".pdf") {
			return m.URL
		}
	}
	for _, m := range media {
		if m.Kind == supplier.MediaKindResource && strings.EqualFold(m.Type, "SpecSheet") {
			return m.URL
		}
	}
	return ""
}
