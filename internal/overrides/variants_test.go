package overrides

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newVariantStore(t *testing.T, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

const variantRowsBody = `[
	{"modelNumber":"X100","optionName":"Color","optionValue":"Red","priceModifier":0,"skuSuffix":""},
	{"modelNumber":"x100","optionName":"Color","optionValue":"Blue","priceModifier":5,"skuSuffix":"-BL"},
	{"modelNumber":"Y200","optionName":"Size","optionValue":"Large","priceModifier":10,"skuSuffix":"-L"}
]`

func TestResolveMatchesCaseInsensitively(t *testing.T) {
	srv, _ := newVariantStore(t, variantRowsBody)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	resolver := NewTabularVariants(srv.URL, "token", "variants", client, time.Minute, slog.Default())
	rows := resolver.Resolve(context.Background(), "x100")
	require.Len(t, rows, 2)
	require.Equal(t, "Red", rows[0].OptionValue)
	require.Equal(t, "Blue", rows[1].OptionValue)
	require.Equal(t, 5.0, rows[1].PriceModifier)
	require.Equal(t, "-BL", rows[1].SKUSuffix)
}

func TestResolveServesFromCacheWithinTTL(t *testing.T) {
	srv, calls := newVariantStore(t, variantRowsBody)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	resolver := NewTabularVariants(srv.URL, "token", "variants", client, 5*time.Minute, slog.Default())

	resolver.Resolve(context.Background(), "X100")
	resolver.Resolve(context.Background(), "Y200")
	require.Equal(t, int64(1), calls.Load())

	// TTL expiry is the only invalidation.
	mr.FastForward(6 * time.Minute)
	resolver.Resolve(context.Background(), "X100")
	require.Equal(t, int64(2), calls.Load())
}

func TestResolveUnknownModelIsEmptyNotError(t *testing.T) {
	srv, _ := newVariantStore(t, variantRowsBody)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	resolver := NewTabularVariants(srv.URL, "token", "variants", client, time.Minute, slog.Default())
	require.Empty(t, resolver.Resolve(context.Background(), "Z999"))
}

func TestResolveSwallowsStoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	resolver := NewTabularVariants(srv.URL, "token", "variants", client, time.Minute, slog.Default())
	require.Empty(t, resolver.Resolve(context.Background(), "X100"))
}

func TestDisabledVariantsAlwaysEmpty(t *testing.T) {
	resolver := NewDisabledVariants(slog.Default())
	require.Empty(t, resolver.Resolve(context.Background(), "X100"))
}
