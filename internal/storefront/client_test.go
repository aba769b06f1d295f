package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "test-token", "2024-07", time.Second)
}

func TestFindByHandle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/api/2024-07/products.json", r.URL.Path)
		require.Equal(t, "test-token", r.Header.Get("X-Shopify-Access-Token"))
		require.Equal(t, "vulcan-vc44gd", r.URL.Query().Get("handle"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{{"id": 42, "handle": "vulcan-vc44gd"}},
		})
	})

	p, err := client.FindByHandle(context.Background(), "vulcan-vc44gd")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, int64(42), p.ID)
}

func TestFindByHandleMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"products": []map[string]any{}})
	})

	p, err := client.FindByHandle(context.Background(), "nothing-here")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestCreateWrapsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		product, ok := body["product"]
		require.True(t, ok, "payload must be wrapped in a product envelope")
		require.Equal(t, "Vulcan VC44GD", product.Title)

		product.ID = 77
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]Product{"product": product})
	})

	created, err := client.Create(context.Background(), Product{Title: "Vulcan VC44GD"})
	require.NoError(t, err)
	require.Equal(t, int64(77), created.ID)
}

func TestUpdateTargetsProductID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/admin/api/2024-07/products/77.json", r.URL.Path)
		var body map[string]Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(body)
	})

	updated, err := client.Update(context.Background(), 77, Product{Title: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, int64(77), updated.ID)
}

func TestImageRejectionGetsTypedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"image":["Exceeded file storage limit"]}}`))
	})

	_, err := client.Create(context.Background(), Product{Title: "X"})
	require.Error(t, err)
	require.True(t, IsImageRejected(err))
}

func TestPlainUnprocessableIsNotImageRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"title":["can't be blank"]}}`))
	})

	_, err := client.Create(context.Background(), Product{})
	require.Error(t, err)
	require.False(t, IsImageRejected(err))
}
