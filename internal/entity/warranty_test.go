package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestExpiryDate(t *testing.T) {
	tests := []struct {
		purchase string
		months   int
		want     string
	}{
		{"2024-01-01", 12, "2025-01-01"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", 1, "2024-04-30"},
		{"2024-02-29", 12, "2025-02-28"},
		{"2024-11-15", 3, "2025-02-15"},
		{"2024-08-31", 30, "2027-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.purchase, func(t *testing.T) {
			got, err := ExpiryDate(day(tt.purchase), tt.months)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestExpiryDate_InvalidPeriod(t *testing.T) {
	_, err := ExpiryDate(day("2024-01-01"), 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = ExpiryDate(day("2024-01-01"), -3)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestParseWarrantyAndPaymentStatus(t *testing.T) {
	ws, err := ParseWarrantyStatus("claimed")
	require.NoError(t, err)
	assert.Equal(t, WarrantyClaimed, ws)
	_, err = ParseWarrantyStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	ps, err := ParsePaymentStatus("refunded")
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, ps)
	_, err = ParsePaymentStatus("active")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
