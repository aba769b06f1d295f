package supplier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient is the AutoQuotes products API client.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient constructs a supplier client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// ListManufacturers fetches all manufacturers known to the supplier.
func (c *HTTPClient) ListManufacturers(ctx context.Context) ([]Manufacturer, error) {
	body, err := c.get(ctx, "/manufacturers", nil)
	if err != nil {
		return nil, err
	}
	return normalizeManufacturers(body)
}

// ListProducts fetches the full product list for one manufacturer. There is
// no incremental fetch; every run pulls the complete list.
func (c *HTTPClient) ListProducts(ctx context.Context, manufacturerID string) ([]Product, error) {
	body, err := c.get(ctx, "/products", url.Values{"manufacturerId": {manufacturerID}})
	if err != nil {
		return nil, err
	}
	return normalizeProducts(body)
}

// GetProductDetail fetches one product by its permanent supplier id.
func (c *HTTPClient) GetProductDetail(ctx context.Context, productID string) (*Product, error) {
	body, err := c.get(ctx, "/products/"+url.PathEscape(productID), nil)
	if err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	return normalizeProduct(body)
}

var errNotFound = fmt.Errorf("supplier: not found")

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("supplier: build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supplier: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supplier: %s: unexpected status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supplier: read response: %w", err)
	}
	return body, nil
}
