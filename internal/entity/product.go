package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	SKU             string          `json:"sku"`
	CategoryID      string          `json:"category_id"`
	SupplierID      *string         `json:"supplier_id"`
	RealPrice       decimal.Decimal `json:"real_price"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	PriceCorrection decimal.Decimal `json:"price_correction"`
	// TotalProfit is derived, see ProductProfit.
	TotalProfit   decimal.Decimal `json:"total_profit"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	MaxStockLevel *int            `json:"max_stock_level"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Category *Category `json:"category,omitempty"`
}

// ProductProfit is selling price minus purchase price plus the correction,
// at currency precision.
func ProductProfit(selling, purchase, correction decimal.Decimal) decimal.Decimal {
	return selling.Sub(purchase).Add(correction).Round(currencyPlaces)
}

// Derive recomputes the derived fields from the stored ones.
func (p *Product) Derive() {
	p.TotalProfit = ProductProfit(p.SellingPrice, p.PurchasePrice, p.PriceCorrection)
}

// IsCurrency reports whether d is a non-negative amount with at most two
// decimal places.
func IsCurrency(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(currencyPlaces))
}
