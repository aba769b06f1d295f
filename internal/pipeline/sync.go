package pipeline

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/catalogbridge/catalogbridge/internal/catalog"
	"github.com/catalogbridge/catalogbridge/internal/overrides"
	"github.com/catalogbridge/catalogbridge/internal/storefront"
)

func (s *Service) syncAllStaged(ctx context.Context) ([]ItemResult, error) {
	products, err := s.products.ListForSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list products for sync: %w", err)
	}

	results := make([]ItemResult, 0, len(products))
	for _, p := range products {
		results = append(results, s.syncOne(ctx, p))
	}
	s.logger.Info("sync finished", slog.Int("products", len(results)), slog.Int("failed", Failed(results)))
	return results, nil
}

func (s *Service) syncOne(ctx context.Context, p catalog.Product) ItemResult {
	if _, err := catalog.Transition(p.Status, catalog.EventSyncSucceeded); err != nil {
		return ItemResult{Key: p.SupplierProductID, Action: ActionSkipped, Err: err}
	}

	handle := Handle(p.ManufacturerName, p.ModelNumber)
	payload := s.buildPayload(ctx, p)
	payload.Handle = handle

	existing, err := s.storefront.FindByHandle(ctx, handle)
	var listing *storefront.Product
	if err == nil {
		listing, err = s.push(ctx, existing, payload)
		if err != nil && storefront.IsImageRejected(err) {
			// Known storefront limitation on image attachments: retry
			// once without images and take that success as success.
			s.logger.Warn("storefront rejected images, retrying without",
				slog.String("handle", handle), slog.Any("error", err))
			payload.Images = nil
			listing, err = s.push(ctx, existing, payload)
		}
	}
	if err != nil {
		if markErr := s.products.MarkSyncFailed(ctx, p.ID, err.Error()); markErr != nil {
			s.logger.Error("mark sync failed", slog.String("handle", handle), slog.Any("error", markErr))
		}
		return ItemResult{Key: p.SupplierProductID, Action: ActionFailed, Err: err}
	}

	storedHandle := listing.Handle
	if storedHandle == "" {
		storedHandle = handle
	}
	if err := s.products.MarkSynced(ctx, p.ID, listing.ID, storedHandle, s.now()); err != nil {
		s.logger.Error("mark synced", slog.String("handle", handle), slog.Any("error", err))
		return ItemResult{Key: p.SupplierProductID, Action: ActionFailed, Err: err}
	}

	action := ActionCreated
	if existing != nil {
		action = ActionUpdated
	}
	return ItemResult{Key: p.SupplierProductID, Action: action}
}

func (s *Service) push(ctx context.Context, existing *storefront.Product, payload storefront.Product) (*storefront.Product, error) {
	if existing != nil {
		return s.storefront.Update(ctx, existing.ID, payload)
	}
	return s.storefront.Create(ctx, payload)
}

func (s *Service) buildPayload(ctx context.Context, p catalog.Product) storefront.Product {
	rows := s.variants.Resolve(ctx, p.ModelNumber)

	var (
		options  []storefront.Option
		variants []storefront.Variant
	)
	switch {
	case len(rows) > 0:
		options, variants = overrideVariants(p, rows)
	case len(p.Variants) > 0:
		options, variants = stagedVariants(p)
	default:
		variants = []storefront.Variant{{
			Title:   "Default Title",
			Option1: "Default Title",
			Price:   money(p.FinalPrice),
			SKU:     p.ModelNumber,
		}}
	}

	images := make([]storefront.Image, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, storefront.Image{Src: img.Src, Attachment: img.Attachment})
	}

	metafields := []storefront.Metafield{
		{Namespace: "catalogbridge", Key: "model_number", Value: p.ModelNumber, Type: "single_line_text_field"},
		{Namespace: "catalogbridge", Key: "supplier_product_id", Value: p.SupplierProductID, Type: "single_line_text_field"},
	}
	if p.SpecSheetURL != "" {
		metafields = append(metafields, storefront.Metafield{
			Namespace: "catalogbridge", Key: "spec_sheet_url", Value: p.SpecSheetURL, Type: "url",
		})
	}

	return storefront.Product{
		Title:       p.Title,
		BodyHTML:    buildBodyHTML(p),
		Vendor:      p.ManufacturerName,
		ProductType: p.ProductType,
		Tags:        p.Tags,
		Options:     options,
		Variants:    variants,
		Images:      images,
		Metafields:  metafields,
	}
}

// overrideVariants builds one storefront variant per override row. All rows
// for one model share a single option axis named after the first row.
func overrideVariants(p catalog.Product, rows []overrides.VariantOverride) ([]storefront.Option, []storefront.Variant) {
	option := storefront.Option{Name: rows[0].OptionName}
	variants := make([]storefront.Variant, 0, len(rows))
	for _, row := range rows {
		option.Values = append(option.Values, row.OptionValue)
		variants = append(variants, storefront.Variant{
			Option1: row.OptionValue,
			Price:   money(p.FinalPrice + row.PriceModifier),
			SKU:     p.ModelNumber + row.SKUSuffix,
		})
	}
	return []storefront.Option{option}, variants
}

// stagedVariants pushes variants staged on the product itself (manual
// variant replace), preserving their own prices and SKUs.
func stagedVariants(p catalog.Product) ([]storefront.Option, []storefront.Variant) {
	var options []storefront.Option
	for _, opt := range p.Variants[0].Options {
		options = append(options, storefront.Option{Name: opt.Name})
	}
	variants := make([]storefront.Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		sv := storefront.Variant{
			Title:             v.Title,
			Price:             money(v.Price),
			SKU:               v.SKU,
			InventoryQuantity: v.InventoryQty,
		}
		for i, opt := range v.Options {
			switch i {
			case 0:
				sv.Option1 = opt.Value
			case 1:
				sv.Option2 = opt.Value
			case 2:
				sv.Option3 = opt.Value
			}
		}
		variants = append(variants, sv)
	}
	return options, variants
}

// buildBodyHTML renders the stored description followed by a property/value
// table of the category attributes.
func buildBodyHTML(p catalog.Product) string {
	var b strings.Builder
	b.WriteString(p.DescriptionHTML)
	if len(p.Attributes) == 0 {
		return b.String()
	}
	b.WriteString(`<table class="product-specs"><tbody>`)
	for _, a := range p.Attributes {
		b.WriteString("<tr><td>")
		b.WriteString(html.EscapeString(a.Name))
		b.WriteString("</td><td>")
		b.WriteString(html.EscapeString(a.Value))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
