package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency values are two-decimal fixed point.
const currencyPlaces = 2

var ErrInvalidLine = errors.New("invalid order line")

type LineInput struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal is quantity * unit price at currency precision.
// Quantity must be positive and the unit price a non-negative amount with at
// most two decimal places, so the stored unit price reproduces the total.
func LineTotal(qty int, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidLine, qty)
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: unit price must not be negative, got %s", ErrInvalidLine, unitPrice)
	}
	if !unitPrice.Equal(unitPrice.Round(currencyPlaces)) {
		return decimal.Zero, fmt.Errorf("%w: unit price has more than %d decimal places, got %s", ErrInvalidLine, currencyPlaces, unitPrice)
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(currencyPlaces), nil
}

// OrderTotal sums the line totals of lines. The first invalid line aborts the
// computation.
func OrderTotal(lines []LineInput) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, l := range lines {
		lt, err := LineTotal(l.Quantity, l.UnitPrice)
		if err != nil {
			return decimal.Zero, fmt.Errorf("line %d: %w", i, err)
		}
		total = total.Add(lt)
	}
	return total.Round(currencyPlaces), nil
}
