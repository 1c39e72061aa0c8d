package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type CatalogService interface {
	ListProducts(ctx context.Context, q usecase.ProductQuery) ([]domain.Product, int, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in usecase.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p usecase.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListCategories(ctx context.Context, search string) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, in usecase.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, p usecase.CategoryPatch) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type CatalogHandler struct {
	catalog CatalogService
}

func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// total_profit is derived and never read from the request.
type createProductReq struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	SKU             string          `json:"sku"`
	CategoryID      string          `json:"category_id"`
	SupplierID      string          `json:"supplier_id"`
	RealPrice       decimal.Decimal `json:"real_price"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	PriceCorrection decimal.Decimal `json:"price_correction"`
	StockQuantity   int             `json:"stock_quantity"`
	MinStockLevel   int             `json:"min_stock_level"`
	MaxStockLevel   *int            `json:"max_stock_level"`
	IsActive        *bool           `json:"is_active"`
}

type updateProductReq struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	SKU             *string          `json:"sku"`
	CategoryID      *string          `json:"category_id"`
	SupplierID      *string          `json:"supplier_id"`
	RealPrice       *decimal.Decimal `json:"real_price"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price"`
	SellingPrice    *decimal.Decimal `json:"selling_price"`
	PriceCorrection *decimal.Decimal `json:"price_correction"`
	StockQuantity   *int             `json:"stock_quantity"`
	MinStockLevel   *int             `json:"min_stock_level"`
	MaxStockLevel   *int             `json:"max_stock_level"`
	IsActive        *bool            `json:"is_active"`
}

type categoryReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// stockFilter maps the dashboard's boolean stock flags onto one filter.
func stockFilter(c *gin.Context) string {
	switch {
	case c.Query("outOfStock") == "true":
		return usecase.StockOut
	case c.Query("lowStock") == "true":
		return usecase.StockLow
	case c.Query("inStock") == "true":
		return usecase.StockIn
	}
	return c.Query("stock")
}

// GET /v1/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	q := usecase.ProductQuery{
		Search:     strings.TrimSpace(c.Query("search")),
		CategoryID: c.Query("categoryId"),
		Stock:      stockFilter(c),
		SortBy:     c.Query("sortBy"),
		Desc:       strings.EqualFold(c.Query("order"), "desc"),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	}
	out, total, err := h.catalog.ListProducts(c.Request.Context(), q)
	if err != nil {
		writeError(c, err, "Product not found", "Failed to fetch products")
		return
	}
	page, limit := usecase.PageBounds(q.Page, q.Limit)
	okList(c, out, total, page, limit)
}

// POST /v1/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), usecase.ProductInput(req))
	if err != nil {
		writeError(c, err, "Category not found", "Failed to create product")
		return
	}
	ok(c, http.StatusOK, p, "Product created successfully")
}

// GET /v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Product not found", "Failed to fetch product")
		return
	}
	ok(c, http.StatusOK, p, "")
}

// PUT /v1/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req updateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), usecase.ProductPatch(req))
	if err != nil {
		writeError(c, err, "Product not found", "Failed to update product")
		return
	}
	ok(c, http.StatusOK, p, "Product updated successfully")
}

// DELETE /v1/products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Product not found", "Failed to delete product")
		return
	}
	ok(c, http.StatusOK, nil, "Product deleted successfully")
}

// GET /v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	out, err := h.catalog.ListCategories(c.Request.Context(), c.Query("search"))
	if err != nil {
		writeError(c, err, "Category not found", "Failed to fetch categories")
		return
	}
	ok(c, http.StatusOK, out, "")
}

// POST /v1/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	in := usecase.CategoryInput{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "Category not found", "Failed to create category")
		return
	}
	ok(c, http.StatusCreated, cat, "Category created successfully")
}

// GET /v1/categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	cat, err := h.catalog.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Category not found", "Failed to fetch category")
		return
	}
	ok(c, http.StatusOK, cat, "")
}

// PUT /v1/categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	cat, err := h.catalog.UpdateCategory(c.Request.Context(), c.Param("id"), usecase.CategoryPatch(req))
	if err != nil {
		writeError(c, err, "Category not found", "Failed to update category")
		return
	}
	ok(c, http.StatusOK, cat, "Category updated successfully")
}

// DELETE /v1/categories/:id answers 409 while products still use the category.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Category not found", "Failed to delete category")
		return
	}
	ok(c, http.StatusOK, nil, "Category deleted successfully")
}
