package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/catalogbridge/catalogbridge/internal/catalog"
	"github.com/catalogbridge/catalogbridge/internal/overrides"
	"github.com/catalogbridge/catalogbridge/internal/pricing"
	"github.com/catalogbridge/catalogbridge/internal/settings"
	"github.com/catalogbridge/catalogbridge/internal/storefront"
	"github.com/catalogbridge/catalogbridge/internal/supplier"
)

// ErrProductNotFound indicates a product/model could not be resolved against
// the supplier's live listings.
var ErrProductNotFound = errors.New("pipeline: product not found")

// Item actions reported in run tallies.
const (
	ActionIngested = "ingested"
	ActionSkipped  = "skipped"
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionRepriced = "repriced"
	ActionFailed   = "failed"
)

// ItemResult records the outcome for one product (or one manufacturer fetch)
// within a pipeline run. Stages never abort their batch; the tally is how a
// run's pass/fail breakdown is observed.
type ItemResult struct {
	Key    string
	Action string
	Err    error
}

// Failed counts failed items in a tally.
func Failed(results []ItemResult) int {
	n := 0
	for _, r := range results {
		if r.Action == ActionFailed {
			n++
		}
	}
	return n
}

// ServiceConfig collects the pipeline's collaborators.
type ServiceConfig struct {
	Logger     *slog.Logger
	Products   catalog.Repository
	Pricing    *pricing.Engine
	Settings   *settings.Service
	Supplier   supplier.Client
	Storefront storefront.Client
	Images     overrides.ImageResolver
	Variants   overrides.VariantResolver
	Now        func() time.Time
}

// Service sequences the staged ingest → price → sync pipeline and exposes
// the single-product fast path. Bulk operations run under a singleflight
// guard keyed per operation: concurrent triggers join the in-flight run
// instead of racing on the same staging rows.
type Service struct {
	logger     *slog.Logger
	products   catalog.Repository
	pricing    *pricing.Engine
	settings   *settings.Service
	supplier   supplier.Client
	storefront storefront.Client
	images     overrides.ImageResolver
	variants   overrides.VariantResolver
	now        func() time.Time

	group singleflight.Group
}

// NewService constructs the pipeline service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logger:     cfg.Logger,
		products:   cfg.Products,
		pricing:    cfg.Pricing,
		settings:   cfg.Settings,
		supplier:   cfg.Supplier,
		storefront: cfg.Storefront,
		images:     cfg.Images,
		variants:   cfg.Variants,
		now:        now,
	}
}

// Ingest pulls supplier products for all enabled manufacturers into the
// staging store. It returns an error only when the enabled set cannot be
// read; per-manufacturer and per-product failures are carried in the tally.
func (s *Service) Ingest(ctx context.Context) ([]ItemResult, error) {
	return s.single(ctx, "ingest", s.ingestAll)
}

// SyncToShopify pushes every staged/synced product to the storefront.
func (s *Service) SyncToShopify(ctx context.Context) ([]ItemResult, error) {
	return s.single(ctx, "sync", s.syncAllStaged)
}

// ReapplyPricingRules reloads rules from storage, recomputes prices for
// every staged/synced product and forces them back to staged so the next
// sync re-pushes them.
func (s *Service) ReapplyPricingRules(ctx context.Context) ([]ItemResult, error) {
	return s.single(ctx, "reapply", s.reapplyAll)
}

// SyncAll is the legacy full run: ingest followed by sync.
func (s *Service) SyncAll(ctx context.Context) ([]ItemResult, error) {
	ingested, err := s.Ingest(ctx)
	if err != nil {
		return ingested, err
	}
	synced, err := s.SyncToShopify(ctx)
	return append(ingested, synced...), err
}

func (s *Service) single(ctx context.Context, key string, fn func(context.Context) ([]ItemResult, error)) ([]ItemResult, error) {
	v, err, shared := s.group.Do(key, func() (any, error) {
		return fn(ctx)
	})
	if shared {
		s.logger.Info("joined in-flight pipeline run", slog.String("operation", key))
	}
	results, _ := v.([]ItemResult)
	return results, err
}

func (s *Service) reapplyAll(ctx context.Context) ([]ItemResult, error) {
	if err := s.pricing.Reload(ctx); err != nil {
		return nil, err
	}
	products, err := s.products.ListForRepricing(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list products for repricing: %w", err)
	}

	results := make([]ItemResult, 0, len(products))
	for _, p := range products {
		if _, err := catalog.Transition(p.Status, catalog.EventPricingReapplied); err != nil {
			results = append(results, ItemResult{Key: p.SupplierProductID, Action: ActionSkipped, Err: err})
			continue
		}
		quote := s.pricing.Calculate(pricing.Request{
			ListPrice:    p.ListPrice,
			NetPrice:     p.SupplierNetPrice,
			Manufacturer: p.ManufacturerName,
			ModelNumber:  p.ModelNumber,
		})
		if err := s.products.UpdatePricing(ctx, p.ID, quote.NetCost, quote.FinalPrice); err != nil {
			s.logger.Error("update pricing", slog.String("supplier_product_id", p.SupplierProductID), slog.Any("error", err))
			results = append(results, ItemResult{Key: p.SupplierProductID, Action: ActionFailed, Err: err})
			continue
		}
		results = append(results, ItemResult{Key: p.SupplierProductID, Action: ActionRepriced})
	}
	s.logger.Info("pricing reapplied", slog.Int("products", len(results)), slog.Int("failed", Failed(results)))
	return results, nil
}

// SyncSpecificProduct resolves a human-entered model number or supplier id,
// ingests that one product and pushes it, bypassing the batch scans. Unlike
// the bulk operations it propagates failures synchronously: it exists for
// interactive, observed use.
func (s *Service) SyncSpecificProduct(ctx context.Context, key string) (catalog.Product, error) {
	sp, err := s.findSupplierProduct(ctx, key)
	if err != nil {
		return catalog.Product{}, err
	}
	if sp == nil {
		return catalog.Product{}, fmt.Errorf("%w: %q", ErrProductNotFound, key)
	}
	if sp.ModelNumber == "" {
		return catalog.Product{}, fmt.Errorf("pipeline: product %q has no model number", key)
	}

	if err := s.pricing.Reload(ctx); err != nil {
		return catalog.Product{}, err
	}
	staged, err := s.stageProduct(ctx, *sp)
	if err != nil {
		return catalog.Product{}, err
	}
	if res := s.syncOne(ctx, staged); res.Err != nil {
		return staged, res.Err
	}
	return s.products.GetBySupplierID(ctx, staged.SupplierProductID)
}

func (s *Service) findSupplierProduct(ctx context.Context, key string) (*supplier.Product, error) {
	if _, err := uuid.Parse(key); err == nil {
		return s.supplier.GetProductDetail(ctx, key)
	}

	// Not a supplier id: treat as a model number and scan the enabled
	// manufacturers' live listings for it.
	enabled, err := s.settings.Enabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read enabled manufacturers: %w", err)
	}
	for _, mfrID := range enabled {
		products, err := s.supplier.ListProducts(ctx, mfrID)
		if err != nil {
			s.logger.Warn("list supplier products while resolving model",
				slog.String("manufacturer_id", mfrID), slog.Any("error", err))
			continue
		}
		for i := range products {
			if !strings.EqualFold(products[i].ModelNumber, key) {
				continue
			}
			if detail, err := s.supplier.GetProductDetail(ctx, products[i].ID); err == nil && detail != nil {
				return detail, nil
			}
			return &products[i], nil
		}
	}
	return nil, nil
}
