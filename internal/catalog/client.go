package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/unfit20/unfit20/pkg/config"
	"github.com/unfit20/unfit20/pkg/logging"
	"github.com/unfit20/unfit20/pkg/telemetry"
)

// Product is one marketplace item as served by the upstream catalog
type Product struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images,omitempty"`
}

// Client wraps the upstream product catalog REST API
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a new catalog client
func New(cfg *config.CatalogConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog_base_url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger := logging.GetLogger().With(zap.String("component", "catalog-client"))

	client := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}

	logger.Info("Catalog client initialized", zap.String("url", cfg.BaseURL))

	return client, nil
}

// Products fetches the full product list
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.products")
	defer span.End()

	return c.fetchList(ctx, "/products")
}

// ProductsByCategory fetches products in a single category
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.products_by_category")
	defer span.End()

	if category == "" {
		return nil, fmt.Errorf("category is required")
	}
	return c.fetchList(ctx, "/products/category/"+url.PathEscape(category))
}

// SearchProducts fetches products matching a free-text query
func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.search_products")
	defer span.End()

	return c.fetchList(ctx, "/products/search?q="+url.QueryEscape(query))
}

// Product fetches a single product by id
func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.product")
	defer span.End()

	body, err := c.get(ctx, fmt.Sprintf("/products/%d", id))
	if err != nil {
		return nil, err
	}

	var product Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return &product, nil
}

// Categories fetches the list of known category names
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.categories")
	defer span.End()

	body, err := c.get(ctx, "/products/category-list")
	if err != nil {
		return nil, err
	}

	var categories []string
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}
	return categories, nil
}

// fetchList fetches an endpoint whose payload wraps products in an envelope
func (c *Client) fetchList(ctx context.Context, path string) ([]Product, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var response struct {
		Products []Product `json:"products"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products: %w", err)
	}
	if response.Products == nil {
		response.Products = []Product{}
	}
	return response.Products, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d for %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	return body, nil
}
