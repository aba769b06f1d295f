package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const keyEnabledManufacturers = "enabled_manufacturers"

// Repository persists operator configuration as durable key/value entries.
type Repository interface {
	EnabledManufacturers(ctx context.Context) ([]string, error)
	SaveEnabledManufacturers(ctx context.Context, ids []string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a Postgres-backed settings store.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) EnabledManufacturers(ctx context.Context) ([]string, error) {
	query := `SELECT value FROM app_settings WHERE key = $1`
	var raw []byte
	err := r.db.QueryRow(ctx, query, keyEnabledManufacturers).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("settings: unmarshal %s: %w", keyEnabledManufacturers, err)
	}
	return ids, nil
}

func (r *repository) SaveEnabledManufacturers(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("settings: marshal %s: %w", keyEnabledManufacturers, err)
	}
	query := `INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err = r.db.Exec(ctx, query, keyEnabledManufacturers, raw)
	return err
}
