package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unfit20/unfit20/internal/catalog"
)

// getProducts serves the marketplace listing. Optional query parameters
// narrow the result: ?category= filters by category, ?q= searches by text.
// Upstream failures degrade to an empty listing rather than an error.
func (r *Router) getProducts(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		products []catalog.Product
		err      error
	)
	switch {
	case c.Query("q") != "":
		products, err = r.catalog.SearchProducts(ctx, c.Query("q"))
	case c.Query("category") != "":
		products, err = r.catalog.ProductsByCategory(ctx, c.Query("category"))
	default:
		products, err = r.catalog.Products(ctx)
	}
	if err != nil {
		r.logger.Warn("Catalog fetch failed", zap.Error(err))
		products = []catalog.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (r *Router) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := r.catalog.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "product not found")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (r *Router) getCategories(c *gin.Context) {
	categories, err := r.catalog.Categories(c.Request.Context())
	if err != nil {
		r.logger.Warn("Category fetch failed", zap.Error(err))
		categories = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
