package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPClient is the Shopify admin REST client.
type HTTPClient struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	client      *http.Client
}

// NewHTTPClient constructs a storefront client for one shop.
func NewHTTPClient(shopDomain, accessToken, apiVersion string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		client:      &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) endpoint(path string) string {
	base := c.shopDomain
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/admin/api/%s%s", base, c.apiVersion, path)
}

// FindByHandle looks up an existing product by its URL handle.
func (c *HTTPClient) FindByHandle(ctx context.Context, handle string) (*Product, error) {
	u := c.endpoint("/products.json") + "?" + url.Values{"handle": {handle}, "limit": {"1"}}.Encode()
	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("storefront: decode products: %w", err)
	}
	if len(out.Products) == 0 {
		return nil, nil
	}
	return &out.Products[0], nil
}

// Create pushes a new product.
func (c *HTTPClient) Create(ctx context.Context, p Product) (*Product, error) {
	body, err := c.do(ctx, http.MethodPost, c.endpoint("/products.json"), wrap(p))
	if err != nil {
		return nil, err
	}
	return unwrap(body)
}

// Update replaces an existing product.
func (c *HTTPClient) Update(ctx context.Context, id int64, p Product) (*Product, error) {
	p.ID = id
	u := c.endpoint("/products/" + strconv.FormatInt(id, 10) + ".json")
	body, err := c.do(ctx, http.MethodPut, u, wrap(p))
	if err != nil {
		return nil, err
	}
	return unwrap(body)
}

func wrap(p Product) map[string]Product {
	return map[string]Product{"product": p}
}

func unwrap(body []byte) (*Product, error) {
	var out struct {
		Product Product `json:"product"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("storefront: decode product: %w", err)
	}
	return &out.Product, nil
}

func (c *HTTPClient) do(ctx context.Context, method, u string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("storefront: marshal payload: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("storefront: build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront: %s %s: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storefront: read response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	// 422 carrying an image signature gets its own type so the sync stage
	// can retry without attachments.
	if resp.StatusCode == http.StatusUnprocessableEntity && looksLikeImageRejection(string(body)) {
		return nil, &ImageRejectedError{Detail: string(body)}
	}
	return nil, fmt.Errorf("storefront: %s %s: status %d: %s", method, u, resp.StatusCode, string(body))
}
