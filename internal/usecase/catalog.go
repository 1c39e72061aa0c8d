package usecase

import (
	"context"
	"strings"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var productSortColumns = map[string]bool{
	"name":           true,
	"sku":            true,
	"selling_price":  true,
	"purchase_price": true,
	"stock_quantity": true,
	"created_at":     true,
}

type ProductInput struct {
	Name            string
	Description     string
	SKU             string
	CategoryID      string
	SupplierID      string
	RealPrice       decimal.Decimal
	PurchasePrice   decimal.Decimal
	SellingPrice    decimal.Decimal
	PriceCorrection decimal.Decimal
	StockQuantity   int
	MinStockLevel   int
	MaxStockLevel   *int
	// Defaults to true.
	IsActive *bool
}

// ProductPatch lists the settable product fields; total_profit is derived.
// An empty SupplierID clears the supplier.
type ProductPatch struct {
	Name            *string
	Description     *string
	SKU             *string
	CategoryID      *string
	SupplierID      *string
	RealPrice       *decimal.Decimal
	PurchasePrice   *decimal.Decimal
	SellingPrice    *decimal.Decimal
	PriceCorrection *decimal.Decimal
	StockQuantity   *int
	MinStockLevel   *int
	MaxStockLevel   *int
	IsActive        *bool
}

type CategoryInput struct {
	Name, Description string
}

type CategoryPatch struct {
	Name        *string
	Description *string
}

// Catalog manages products and their categories.
type Catalog struct {
	tx         Transactor
	products   ProductRepo
	categories CategoryRepo
	now        func() time.Time
}

func NewCatalog(tx Transactor, products ProductRepo, categories CategoryRepo) *Catalog {
	return &Catalog{tx: tx, products: products, categories: categories, now: time.Now}
}

func (c *Catalog) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, int, error) {
	q.Search = strings.TrimSpace(q.Search)
	if !productSortColumns[q.SortBy] {
		q.SortBy = "name"
		q.Desc = false
	}
	switch q.Stock {
	case "", StockLow, StockOut, StockIn:
	default:
		return nil, 0, invalid("stock", "Invalid stock filter %q", q.Stock)
	}
	q.Page, q.Limit = PageBounds(q.Page, q.Limit)
	out, total, err := c.products.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Derive()
	}
	return out, total, nil
}

func (c *Catalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, invalid("id", "Product ID is required")
	}
	p, err := c.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Derive()
	return p, nil
}

func (c *Catalog) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	now := c.now()
	p := &domain.Product{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		SKU:             strings.TrimSpace(in.SKU),
		CategoryID:      strings.TrimSpace(in.CategoryID),
		SupplierID:      optionalID(in.SupplierID),
		RealPrice:       in.RealPrice,
		PurchasePrice:   in.PurchasePrice,
		SellingPrice:    in.SellingPrice,
		PriceCorrection: in.PriceCorrection,
		StockQuantity:   in.StockQuantity,
		MinStockLevel:   in.MinStockLevel,
		MaxStockLevel:   in.MaxStockLevel,
		IsActive:        in.IsActive == nil || *in.IsActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := c.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return c.GetProduct(ctx, p.ID)
}

func (c *Catalog) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	if id == "" {
		return nil, invalid("id", "Product ID is required")
	}
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := c.products.LockByID(ctx, id)
		if err != nil {
			return err
		}
		applyProductPatch(p, patch)
		if err := validateProduct(p); err != nil {
			return err
		}
		p.UpdatedAt = c.now()
		return c.products.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return c.GetProduct(ctx, id)
}

func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return invalid("id", "Product ID is required")
	}
	return c.products.Delete(ctx, id)
}

func (c *Catalog) ListCategories(ctx context.Context, search string) ([]domain.Category, error) {
	return c.categories.List(ctx, strings.TrimSpace(search))
}

func (c *Catalog) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	if id == "" {
		return nil, invalid("id", "Category ID is required")
	}
	return c.categories.GetByID(ctx, id)
}

func (c *Catalog) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "Category name is required")
	}
	now := c.now()
	cat := &domain.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.categories.Insert(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*domain.Category, error) {
	if id == "" {
		return nil, invalid("id", "Category ID is required")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("name", "Category name is required")
	}
	var out *domain.Category
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		cat, err := c.categories.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			cat.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			cat.Description = *patch.Description
		}
		cat.UpdatedAt = c.now()
		out = cat
		return c.categories.Update(ctx, cat)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCategory returns ErrConflict while products still use the category.
func (c *Catalog) DeleteCategory(ctx context.Context, id string) error {
	if id == "" {
		return invalid("id", "Category ID is required")
	}
	return c.categories.Delete(ctx, id)
}

func applyProductPatch(p *domain.Product, patch ProductPatch) {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.SKU != nil {
		p.SKU = strings.TrimSpace(*patch.SKU)
	}
	if patch.CategoryID != nil {
		p.CategoryID = strings.TrimSpace(*patch.CategoryID)
	}
	if patch.SupplierID != nil {
		p.SupplierID = optionalID(*patch.SupplierID)
	}
	if patch.RealPrice != nil {
		p.RealPrice = *patch.RealPrice
	}
	if patch.PurchasePrice != nil {
		p.PurchasePrice = *patch.PurchasePrice
	}
	if patch.SellingPrice != nil {
		p.SellingPrice = *patch.SellingPrice
	}
	if patch.PriceCorrection != nil {
		p.PriceCorrection = *patch.PriceCorrection
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if patch.MinStockLevel != nil {
		p.MinStockLevel = *patch.MinStockLevel
	}
	if patch.MaxStockLevel != nil {
		p.MaxStockLevel = patch.MaxStockLevel
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
}

func validateProduct(p *domain.Product) error {
	switch {
	case p.Name == "":
		return invalid("name", "Name is required")
	case p.SKU == "":
		return invalid("sku", "SKU is required")
	case p.CategoryID == "":
		return invalid("category_id", "Category is required")
	}
	prices := []struct {
		field string
		v     decimal.Decimal
	}{
		{"real_price", p.RealPrice},
		{"purchase_price", p.PurchasePrice},
		{"selling_price", p.SellingPrice},
	}
	for _, pr := range prices {
		if !domain.IsCurrency(pr.v) {
			return invalid(pr.field, "%s must be a non-negative amount with at most 2 decimals", pr.field)
		}
	}
	// the correction may lower the price
	if !domain.IsCurrency(p.PriceCorrection.Abs()) {
		return invalid("price_correction", "price_correction must have at most 2 decimals")
	}
	if p.StockQuantity < 0 || p.MinStockLevel < 0 {
		return invalid("stock_quantity", "Stock levels must not be negative")
	}
	if p.MaxStockLevel != nil && *p.MaxStockLevel < p.MinStockLevel {
		return invalid("max_stock_level", "Maximum stock level must not be below the minimum")
	}
	return nil
}

func optionalID(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
