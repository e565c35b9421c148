package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/unfit20/unfit20/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(&config.CatalogConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, server
}

func TestProducts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[
			{"id":1,"title":"Essence Mascara","description":"A mascara","category":"beauty","price":9.99,"rating":4.94,"thumbnail":"https://cdn.test/1.png"},
			{"id":2,"title":"Red Lipstick","description":"A lipstick","category":"beauty","price":12.99,"rating":2.51,"thumbnail":"https://cdn.test/2.png"}
		],"total":2,"skip":0,"limit":30}`))
	})

	products, err := client.Products(context.Background())
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].ID != 1 || products[0].Title != "Essence Mascara" {
		t.Errorf("product[0] = %+v", products[0])
	}
	if products[1].Price != 12.99 {
		t.Errorf("price = %v, want 12.99", products[1].Price)
	}
}

func TestProductsByCategory(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/category/mens-watches" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"products":[{"id":7,"title":"Watch","category":"mens-watches","price":120}]}`))
	})

	products, err := client.ProductsByCategory(context.Background(), "mens-watches")
	if err != nil {
		t.Fatalf("ProductsByCategory: %v", err)
	}
	if len(products) != 1 || products[0].Category != "mens-watches" {
		t.Errorf("products = %+v", products)
	}

	if _, err := client.ProductsByCategory(context.Background(), ""); err == nil {
		t.Error("empty category should be rejected")
	}
}

func TestSearchProducts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "red shirt" {
			t.Errorf("query = %q, want %q", q, "red shirt")
		}
		w.Write([]byte(`{"products":[]}`))
	})

	products, err := client.SearchProducts(context.Background(), "red shirt")
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Errorf("empty search must yield a non-nil empty slice, got %v", products)
	}
}

func TestProduct(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":42,"title":"Answer","price":4.2,"images":["https://cdn.test/42a.png"]}`))
	})

	product, err := client.Product(context.Background(), 42)
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	if product.ID != 42 || len(product.Images) != 1 {
		t.Errorf("product = %+v", product)
	}
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream down", http.StatusBadGateway)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"products": "not-a-list"`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)
			if _, err := client.Products(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(&config.CatalogConfig{}); err == nil {
		t.Error("expected error for missing base URL")
	}
}
