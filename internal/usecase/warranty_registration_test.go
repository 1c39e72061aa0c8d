package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistration(db *memDB) *WarrantyRegistration {
	return NewWarrantyRegistration(db, memWarranties{db}, memOutbox{db}).
		WithClock(func() time.Time { return fixedNow })
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestRegisterWarranty(t *testing.T) {
	db := newMemDB()
	w, err := newTestRegistration(db).RegisterWarranty(context.Background(), RegisterWarrantyInput{
		ProductID:    "P1",
		CustomerName: "Dana Ortiz",
		PurchaseDate: date(2024, time.January, 1),
		PeriodMonths: 12,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "2025-01-01", w.ExpiryDate.Format(time.DateOnly))
	assert.Equal(t, domain.WarrantyActive, w.Status)
	require.NotNil(t, w.Product)
	assert.Equal(t, "DR-1", w.Product.SKU)
	assert.Equal(t, []string{EventWarrantyRegistered}, db.eventTypes())
}

func TestRegisterWarranty_DefaultsPurchaseDateToToday(t *testing.T) {
	db := newMemDB()
	w, err := newTestRegistration(db).RegisterWarranty(context.Background(), RegisterWarrantyInput{
		ProductID: "P1", CustomerName: "Dana", PeriodMonths: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-14", w.PurchaseDate.Format(time.DateOnly))
	assert.Equal(t, "2024-11-14", w.ExpiryDate.Format(time.DateOnly))
}

func TestRegisterWarranty_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterWarrantyInput
		field string
	}{
		{"no product", RegisterWarrantyInput{CustomerName: "Dana", PeriodMonths: 12}, "product_id"},
		{"no customer", RegisterWarrantyInput{ProductID: "P1", PeriodMonths: 12}, "customer_name"},
		{"zero period", RegisterWarrantyInput{ProductID: "P1", CustomerName: "Dana"}, "warranty_period_months"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemDB()
			_, err := newTestRegistration(db).RegisterWarranty(context.Background(), tt.in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, db.warranties)
		})
	}
}

func TestRegisterPayment(t *testing.T) {
	db := newMemDB()
	uc := newTestRegistration(db)
	ctx := context.Background()

	w, err := uc.RegisterWarranty(ctx, RegisterWarrantyInput{
		ProductID: "P1", CustomerName: "Dana", PurchaseDate: date(2024, time.January, 1), PeriodMonths: 12,
	})
	require.NoError(t, err)

	p, err := uc.RegisterPayment(ctx, w.ID, PaymentInput{Amount: money("49.99"), Method: "credit_card"})
	require.NoError(t, err)
	assert.Equal(t, w.ID, p.WarrantyID)
	assert.Equal(t, "49.99", p.Amount.StringFixed(2))
	assert.Equal(t, fixedNow, p.PaymentDate)
	assert.Equal(t, domain.PaymentCompleted, p.Status)
	assert.Len(t, db.payments[w.ID], 1)
	assert.Equal(t, []string{EventWarrantyRegistered, EventPaymentRegistered}, db.eventTypes())
}

func TestRegisterPayment_Errors(t *testing.T) {
	db := newMemDB()
	uc := newTestRegistration(db)
	ctx := context.Background()

	_, err := uc.RegisterPayment(ctx, "", PaymentInput{Amount: money("10"), Method: "cash"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uc.RegisterPayment(ctx, "no-such-warranty", PaymentInput{Amount: money("10"), Method: "cash"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, db.payments)

	w, err := uc.RegisterWarranty(ctx, RegisterWarrantyInput{ProductID: "P1", CustomerName: "Dana", PeriodMonths: 12})
	require.NoError(t, err)

	_, err = uc.RegisterPayment(ctx, w.ID, PaymentInput{Amount: money("10")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.RegisterPayment(ctx, w.ID, PaymentInput{Amount: money("-1"), Method: "cash"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = uc.RegisterPayment(ctx, w.ID, PaymentInput{Amount: money("1"), Method: "cash", Status: "bounced"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterWithPayment_AllOrNothing(t *testing.T) {
	db := newMemDB()
	uc := newTestRegistration(db)
	ctx := context.Background()
	in := RegisterWarrantyInput{ProductID: "P1", CustomerName: "Dana", PeriodMonths: 24}

	db.fail["warranties.InsertPayment"] = errors.New("deadlock")
	_, err := uc.RegisterWithPayment(ctx, in, PaymentInput{Amount: money("19.90"), Method: "cash"})
	require.Error(t, err)
	assert.Empty(t, db.warranties)
	assert.Empty(t, db.outbox)

	delete(db.fail, "warranties.InsertPayment")
	reg, err := uc.RegisterWithPayment(ctx, in, PaymentInput{Amount: money("19.90"), Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, reg.Warranty.ID, reg.Payment.WarrantyID)
	assert.Len(t, db.warranties, 1)
	assert.Len(t, db.payments[reg.Warranty.ID], 1)
}

func TestUpdateWarranty_RecomputesExpiry(t *testing.T) {
	db := newMemDB()
	uc := newTestRegistration(db)
	ctx := context.Background()

	w, err := uc.RegisterWarranty(ctx, RegisterWarrantyInput{
		ProductID: "P1", CustomerName: "Dana", PurchaseDate: date(2024, time.January, 31), PeriodMonths: 12,
	})
	require.NoError(t, err)

	months, status := 1, "claimed"
	got, err := uc.Update(ctx, w.ID, WarrantyPatch{PeriodMonths: &months, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.ExpiryDate.Format(time.DateOnly))
	assert.Equal(t, domain.WarrantyClaimed, got.Status)

	zero := 0
	_, err = uc.Update(ctx, w.ID, WarrantyPatch{PeriodMonths: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = uc.Update(ctx, "missing", WarrantyPatch{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteWarranty_RemovesPayments(t *testing.T) {
	db := newMemDB()
	uc := newTestRegistration(db)
	ctx := context.Background()

	w, err := uc.RegisterWarranty(ctx, RegisterWarrantyInput{ProductID: "P1", CustomerName: "Dana", PeriodMonths: 12})
	require.NoError(t, err)
	_, err = uc.RegisterPayment(ctx, w.ID, PaymentInput{Amount: money("5"), Method: "cash"})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, w.ID))
	assert.Empty(t, db.warranties)
	assert.Empty(t, db.payments)
	assert.ErrorIs(t, uc.Delete(ctx, w.ID), ErrNotFound)
}

func TestListWarranties_DefaultSort(t *testing.T) {
	db := newMemDB()
	uc := newTestRegistration(db)
	_, total, err := uc.List(context.Background(), WarrantyQuery{SortBy: "nope"})
	require.NoError(t, err)
	assert.Zero(t, total)
}
