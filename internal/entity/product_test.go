package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductDerive(t *testing.T) {
	p := Product{
		PurchasePrice:   dec("80.00"),
		SellingPrice:    dec("120.00"),
		PriceCorrection: dec("-10.00"),
	}
	p.Derive()
	assert.Equal(t, "30.00", p.TotalProfit.StringFixed(2))

	// selling below purchase is a loss, not an error
	assert.Equal(t, "-5.00", ProductProfit(dec("45.00"), dec("50.00"), dec("0")).StringFixed(2))
}

func TestIsCurrency(t *testing.T) {
	assert.True(t, IsCurrency(dec("0")))
	assert.True(t, IsCurrency(dec("19.90")))
	assert.True(t, IsCurrency(dec("19.900")))
	assert.False(t, IsCurrency(dec("19.999")))
	assert.False(t, IsCurrency(dec("-0.01")))
}
