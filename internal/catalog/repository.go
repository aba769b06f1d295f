package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListFilter narrows List results for the inspection endpoints.
type ListFilter struct {
	Status         Status
	ManufacturerID string
	Limit          int
	Offset         int
}

// Repository is the staging store for products.
type Repository interface {
	Upsert(ctx context.Context, p Product) (Product, error)
	GetBySupplierID(ctx context.Context, supplierProductID string) (Product, error)
	List(ctx context.Context, f ListFilter) ([]Product, error)
	// ListForSync returns products eligible for a full sync run
	// (status staged or synced; synced rows are re-pushed idempotently).
	ListForSync(ctx context.Context) ([]Product, error)
	// ListForRepricing returns products whose final price is recomputed
	// when pricing rules change (status staged or synced).
	ListForRepricing(ctx context.Context) ([]Product, error)
	UpdatePricing(ctx context.Context, id int64, netCost, finalPrice float64) error
	MarkSynced(ctx context.Context, id int64, storefrontID int64, handle string, at time.Time) error
	MarkSyncFailed(ctx context.Context, id int64, message string) error
	// ArchiveByManufacturers transitions every product of the given
	// manufacturers to archived and returns the number of rows touched.
	ArchiveByManufacturers(ctx context.Context, manufacturerIDs []string) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a Postgres-backed staging store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, supplier_product_id, manufacturer_id, manufacturer_name, model_number,
	title, description_html, list_price, supplier_net_price, net_cost, final_price,
	spec_sheet_url, attributes, images, variants, tags, product_type,
	status, last_sync_error, storefront_id, storefront_handle,
	last_ingested, last_synced, created_at, updated_at`

func (r *repository) Upsert(ctx context.Context, p Product) (Product, error) {
	for _, img := range p.Images {
		if err := img.Validate(); err != nil {
			return Product{}, err
		}
	}
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: marshal attributes: %w", err)
	}
	images, err := json.Marshal(p.Images)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: marshal images: %w", err)
	}
	variants, err := json.Marshal(p.Variants)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: marshal variants: %w", err)
	}

	// Re-ingest of a known supplier id overwrites the supplier-sourced
	// fields and forces status back to staged; storefront id/handle are
	// preserved so that a later sync updates rather than recreates.
	query := `INSERT INTO products (
		supplier_product_id, manufacturer_id, manufacturer_name, model_number,
		title, description_html, list_price, supplier_net_price, net_cost, final_price,
		spec_sheet_url, attributes, images, variants, tags, product_type,
		status, last_ingested, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,now(),now())
	ON CONFLICT (supplier_product_id) DO UPDATE SET
		manufacturer_id = EXCLUDED.manufacturer_id,
		manufacturer_name = EXCLUDED.manufacturer_name,
		model_number = EXCLUDED.model_number,
		title = EXCLUDED.title,
		description_html = EXCLUDED.description_html,
		list_price = EXCLUDED.list_price,
		supplier_net_price = EXCLUDED.supplier_net_price,
		net_cost = EXCLUDED.net_cost,
		final_price = EXCLUDED.final_price,
		spec_sheet_url = EXCLUDED.spec_sheet_url,
		attributes = EXCLUDED.attributes,
		images = EXCLUDED.images,
		variants = EXCLUDED.variants,
		tags = EXCLUDED.tags,
		product_type = EXCLUDED.product_type,
		status = EXCLUDED.status,
		last_sync_error = '',
		last_ingested = EXCLUDED.last_ingested,
		updated_at = now()
	RETURNING ` + productColumns

	status, err := Transition(p.Status, EventIngested)
	if err != nil {
		return Product{}, err
	}
	lastIngested := p.LastIngested
	if lastIngested.IsZero() {
		lastIngested = time.Now()
	}

	row := r.db.QueryRow(ctx, query,
		p.SupplierProductID, p.ManufacturerID, p.ManufacturerName, p.ModelNumber,
		p.Title, p.DescriptionHTML, p.ListPrice, p.SupplierNetPrice, p.NetCost, p.FinalPrice,
		p.SpecSheetURL, attrs, images, variants, p.Tags, p.ProductType,
		string(status), lastIngested,
	)
	return scanProduct(row)
}

func (r *repository) GetBySupplierID(ctx context.Context, supplierProductID string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE supplier_product_id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, supplierProductID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.ManufacturerID != "" {
		args = append(args, f.ManufacturerID)
		query += fmt.Sprintf(" AND manufacturer_id = $%d", len(args))
	}
	query += " ORDER BY manufacturer_name, model_number"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.queryProducts(ctx, query, args...)
}

func (r *repository) ListForSync(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE status IN ($1, $2) ORDER BY manufacturer_name, model_number`
	return r.queryProducts(ctx, query, string(StatusStaged), string(StatusSynced))
}

func (r *repository) ListForRepricing(ctx context.Context) ([]Product, error) {
	return r.ListForSync(ctx)
}

func (r *repository) UpdatePricing(ctx context.Context, id int64, netCost, finalPrice float64) error {
	// Forcing status back to staged re-queues the row for the next push;
	// only staged/synced rows participate, matching the transition table.
	query := `UPDATE products SET net_cost = $1, final_price = $2, status = $3, updated_at = now()
		WHERE id = $4 AND status IN ($3, $5)`
	_, err := r.db.Exec(ctx, query, netCost, finalPrice, string(StatusStaged), id, string(StatusSynced))
	return err
}

func (r *repository) MarkSynced(ctx context.Context, id int64, storefrontID int64, handle string, at time.Time) error {
	query := `UPDATE products SET status = $1, storefront_id = $2, storefront_handle = $3,
		last_sync_error = '', last_synced = $4, updated_at = now() WHERE id = $5`
	_, err := r.db.Exec(ctx, query, string(StatusSynced), storefrontID, handle, at, id)
	return err
}

func (r *repository) MarkSyncFailed(ctx context.Context, id int64, message string) error {
	query := `UPDATE products SET status = $1, last_sync_error = $2, updated_at = now() WHERE id = $3`
	_, err := r.db.Exec(ctx, query, string(StatusError), message, id)
	return err
}

func (r *repository) ArchiveByManufacturers(ctx context.Context, manufacturerIDs []string) (int64, error) {
	if len(manufacturerIDs) == 0 {
		return 0, nil
	}
	query := `UPDATE products SET status = $1, updated_at = now()
		WHERE manufacturer_id = ANY($2) AND status <> $1`
	tag, err := r.db.Exec(ctx, query, string(StatusArchived), manufacturerIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p        Product
		status   string
		attrs    []byte
		images   []byte
		variants []byte
	)
	err := row.Scan(
		&p.ID, &p.SupplierProductID, &p.ManufacturerID, &p.ManufacturerName, &p.ModelNumber,
		&p.Title, &p.DescriptionHTML, &p.ListPrice, &p.SupplierNetPrice, &p.NetCost, &p.FinalPrice,
		&p.SpecSheetURL, &attrs, &images, &variants, &p.Tags, &p.ProductType,
		&status, &p.LastSyncError, &p.StorefrontID, &p.StorefrontHandle,
		&p.LastIngested, &p.LastSynced, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Product{}, err
	}
	p.Status = Status(status)
	if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
		return Product{}, fmt.Errorf("catalog: unmarshal attributes: %w", err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return Product{}, fmt.Errorf("catalog: unmarshal images: %w", err)
	}
	if err := json.Unmarshal(variants, &p.Variants); err != nil {
		return Product{}, fmt.Errorf("catalog: unmarshal variants: %w", err)
	}
	return p, nil
}
