package overrides

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveImageFirstMatchWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files":
			require.Equal(t, "X100", r.URL.Query().Get("query"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"name":"X100-front.jpg","path":"/product-images/X100-front.jpg"},
				{"name":"X100-back.jpg","path":"/product-images/X100-back.jpg"}
			]`))
		case "/files/content":
			require.Equal(t, "/product-images/X100-front.jpg", r.URL.Query().Get("path"))
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	resolver := NewFileStoreImages(srv.URL, "token", "/product-images", slog.Default())
	ov := resolver.Resolve(context.Background(), "X100")
	require.NotNil(t, ov)
	require.Equal(t, "image/jpeg", ov.ContentType)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), ov.Attachment)
}

func TestResolveImageNoMatchIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	resolver := NewFileStoreImages(srv.URL, "token", "/product-images", slog.Default())
	require.Nil(t, resolver.Resolve(context.Background(), "X100"))
}

func TestResolveImageStoreFailureIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	resolver := NewFileStoreImages(srv.URL, "token", "/product-images", slog.Default())
	require.Nil(t, resolver.Resolve(context.Background(), "X100"))
}

func TestDisabledImagesAlwaysNil(t *testing.T) {
	resolver := NewDisabledImages(slog.Default())
	require.Nil(t, resolver.Resolve(context.Background(), "X100"))
}
