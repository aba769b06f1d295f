package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists pricing rules keyed by normalized manufacturer name.
type Repository interface {
	Get(ctx context.Context, key string) (Rule, error)
	Set(ctx context.Context, rule Rule) error
	List(ctx context.Context) ([]Rule, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a Postgres-backed rule store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, key string) (Rule, error) {
	query := `SELECT manufacturer, mode, discount_chain, markup_percentage, override_price
		FROM pricing_rules WHERE manufacturer = $1`
	var (
		rule Rule
		mode string
	)
	err := r.db.QueryRow(ctx, query, NormalizeKey(key)).Scan(
		&rule.Manufacturer, &mode, &rule.DiscountChain, &rule.MarkupPercentage, &rule.OverridePrice,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, ErrRuleNotFound
	}
	if err != nil {
		return Rule{}, err
	}
	rule.Mode = Mode(mode)
	return rule, nil
}

func (r *repository) Set(ctx context.Context, rule Rule) error {
	query := `INSERT INTO pricing_rules (manufacturer, mode, discount_chain, markup_percentage, override_price, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (manufacturer) DO UPDATE SET
			mode = EXCLUDED.mode,
			discount_chain = EXCLUDED.discount_chain,
			markup_percentage = EXCLUDED.markup_percentage,
			override_price = EXCLUDED.override_price,
			updated_at = now()`
	_, err := r.db.Exec(ctx, query, rule.Key(), string(rule.Mode), rule.DiscountChain, rule.MarkupPercentage, rule.OverridePrice)
	return err
}

func (r *repository) List(ctx context.Context) ([]Rule, error) {
	query := `SELECT manufacturer, mode, discount_chain, markup_percentage, override_price
		FROM pricing_rules ORDER BY manufacturer`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var (
			rule Rule
			mode string
		)
		if err := rows.Scan(&rule.Manufacturer, &mode, &rule.DiscountChain, &rule.MarkupPercentage, &rule.OverridePrice); err != nil {
			return nil, err
		}
		rule.Mode = Mode(mode)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
