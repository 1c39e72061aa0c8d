package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type WarrantyStatus string

const (
	WarrantyActive  WarrantyStatus = "active"
	WarrantyExpired WarrantyStatus = "expired"
	WarrantyClaimed WarrantyStatus = "claimed"
	WarrantyVoid    WarrantyStatus = "void"
)

func ParseWarrantyStatus(s string) (WarrantyStatus, error) {
	switch st := WarrantyStatus(s); st {
	case WarrantyActive, WarrantyExpired, WarrantyClaimed, WarrantyVoid:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

type Warranty struct {
	ID                   string         `json:"id"`
	ProductID            string         `json:"product_id"`
	CustomerName         string         `json:"customer_name"`
	CustomerEmail        string         `json:"customer_email"`
	CustomerPhone        string         `json:"customer_phone"`
	PurchaseDate         time.Time      `json:"purchase_date"`
	WarrantyPeriodMonths int            `json:"warranty_period_months"`
	ExpiryDate           time.Time      `json:"expiry_date"`
	Status               WarrantyStatus `json:"status"`
	Notes                string         `json:"notes"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`

	Product *ProductRef `json:"product,omitempty"`
}

type WarrantyPayment struct {
	ID            string          `json:"id"`
	WarrantyID    string          `json:"warranty_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	PaymentDate   time.Time       `json:"payment_date"`
	Status        PaymentStatus   `json:"status"`
}

var ErrInvalidPeriod = errors.New("warranty period must be positive")

// ExpiryDate adds months calendar months to purchase. When the target month has
// fewer days than the purchase day, the day is clamped to the month's last day
// (Jan 31 + 1 month = Feb 28/29), unlike time.AddDate which would roll over.
func ExpiryDate(purchase time.Time, months int) (time.Time, error) {
	if months <= 0 {
		return time.Time{}, ErrInvalidPeriod
	}
	y, m, d := purchase.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, purchase.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		purchase.Hour(), purchase.Minute(), purchase.Second(), purchase.Nanosecond(),
		purchase.Location()), nil
}
