package overrides

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const variantRowsCacheKey = "overrides:variant_rows"

// TabularVariants resolves variant overrides from an external tabular store.
// The full row set is cached in redis for a fixed TTL so a full-catalog sync
// performs a bounded number of external calls; the cache is invalidated only
// by expiry.
type TabularVariants struct {
	baseURL string
	token   string
	sheet   string
	ttl     time.Duration
	client  *http.Client
	cache   *redis.Client
	logger  *slog.Logger
}

// NewTabularVariants constructs the resolver.
func NewTabularVariants(baseURL, token, sheet string, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *TabularVariants {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TabularVariants{
		baseURL: baseURL,
		token:   token,
		sheet:   sheet,
		ttl:     ttl,
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
		logger:  logger,
	}
}

type variantRow struct {
	ModelNumber   string  `json:"modelNumber"`
	OptionName    string  `json:"optionName"`
	OptionValue   string  `json:"optionValue"`
	PriceModifier float64 `json:"priceModifier"`
	SKUSuffix     string  `json:"skuSuffix"`
}

// Resolve returns all override rows matching the model number,
// case-insensitively. Zero rows means default single-variant behavior.
func (r *TabularVariants) Resolve(ctx context.Context, modelNumber string) []VariantOverride {
	rows := r.allRows(ctx)
	var out []VariantOverride
	for _, row := range rows {
		if !strings.EqualFold(row.ModelNumber, modelNumber) {
			continue
		}
		out = append(out, VariantOverride{
			OptionName:    row.OptionName,
			OptionValue:   row.OptionValue,
			PriceModifier: row.PriceModifier,
			SKUSuffix:     row.SKUSuffix,
		})
	}
	return out
}

func (r *TabularVariants) allRows(ctx context.Context) []variantRow {
	if r.cache != nil {
		payload, err := r.cache.Get(ctx, variantRowsCacheKey).Bytes()
		if err == nil {
			var rows []variantRow
			if err := json.Unmarshal(payload, &rows); err == nil {
				return rows
			}
		} else if err != redis.Nil {
			r.logger.Warn("variant override cache read failed", slog.Any("error", err))
		}
	}

	rows, ok := r.fetch(ctx)
	if !ok {
		return nil
	}
	if r.cache != nil {
		raw, err := json.Marshal(rows)
		if err == nil {
			if err := r.cache.Set(ctx, variantRowsCacheKey, raw, r.ttl).Err(); err != nil {
				r.logger.Warn("variant override cache write failed", slog.Any("error", err))
			}
		}
	}
	return rows
}

func (r *TabularVariants) fetch(ctx context.Context) ([]variantRow, bool) {
	u := r.baseURL + "/rows?" + url.Values{"sheet": {r.sheet}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("variant override fetch failed", slog.Any("error", err))
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("variant override fetch status", slog.Int("status", resp.StatusCode))
		return nil, false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	var rows []variantRow
	if err := json.Unmarshal(body, &rows); err != nil {
		r.logger.Warn("variant override decode failed", slog.Any("error", err))
		return nil, false
	}
	return rows, true
}

// DisabledVariants is the permanent no-override responder used when the
// tabular store is not configured.
type DisabledVariants struct{}

// NewDisabledVariants logs the degradation once and returns the responder.
func NewDisabledVariants(logger *slog.Logger) DisabledVariants {
	logger.Warn("tabular store not configured, variant overrides disabled")
	return DisabledVariants{}
}

// Resolve always reports no overrides.
func (DisabledVariants) Resolve(ctx context.Context, modelNumber string) []VariantOverride {
	return nil
}
