package usecase

import (
	"context"
	"strings"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var warrantySortColumns = map[string]bool{
	"product_id":    true,
	"customer_name": true,
	"purchase_date": true,
	"expiry_date":   true,
	"status":        true,
	"created_at":    true,
}

type RegisterWarrantyInput struct {
	ProductID     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	// Defaults to the current day.
	PurchaseDate *time.Time
	PeriodMonths int
	Notes        string
}

type PaymentInput struct {
	Amount        decimal.Decimal
	Method        string
	TransactionID string
	Status        string
}

// WarrantyPatch lists the settable warranty fields. The expiry date is always
// derived from purchase date and period.
type WarrantyPatch struct {
	ProductID     *string
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	PurchaseDate  *time.Time
	PeriodMonths  *int
	Status        *string
	Notes         *string
}

type WarrantyRegistration struct {
	tx         Transactor
	warranties WarrantyRepo
	outbox     OutboxRepo
	now        func() time.Time
}

func NewWarrantyRegistration(tx Transactor, warranties WarrantyRepo, outbox OutboxRepo) *WarrantyRegistration {
	return &WarrantyRegistration{tx: tx, warranties: warranties, outbox: outbox, now: time.Now}
}

// WithClock replaces the time source; payment dates and timestamps use it.
func (r *WarrantyRegistration) WithClock(now func() time.Time) *WarrantyRegistration {
	r.now = now
	return r
}

// RegisterWarranty is phase one: the warranty row, status active. The payment
// may follow later through RegisterPayment, or never.
func (r *WarrantyRegistration) RegisterWarranty(ctx context.Context, in RegisterWarrantyInput) (*domain.Warranty, error) {
	w, err := r.newWarranty(in)
	if err != nil {
		return nil, err
	}
	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		return r.insertWarranty(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	logging.FromCtx(ctx).Info("warranty registered", "warranty_id", w.ID, "product_id", w.ProductID,
		"expiry_date", w.ExpiryDate.Format(time.DateOnly))
	return r.warranties.GetByID(ctx, w.ID)
}

// RegisterPayment is phase two. The warranty must already exist; the payment
// date is stamped from the server clock.
func (r *WarrantyRegistration) RegisterPayment(ctx context.Context, warrantyID string, in PaymentInput) (*domain.WarrantyPayment, error) {
	if strings.TrimSpace(warrantyID) == "" {
		return nil, invalid("warranty_id", "Warranty ID is required")
	}
	p, err := r.newPayment(warrantyID, in)
	if err != nil {
		return nil, err
	}
	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := r.warranties.LockByID(ctx, warrantyID); err != nil {
			return err
		}
		return r.insertPayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	logging.FromCtx(ctx).Info("warranty payment registered", "warranty_id", warrantyID, "payment_id", p.ID,
		"amount", p.Amount.StringFixed(2), "method", p.PaymentMethod)
	return p, nil
}

type Registration struct {
	Warranty *domain.Warranty        `json:"warranty"`
	Payment  *domain.WarrantyPayment `json:"payment"`
}

// RegisterWithPayment runs both phases in one transaction: either both rows
// exist afterwards or neither does.
func (r *WarrantyRegistration) RegisterWithPayment(ctx context.Context, w RegisterWarrantyInput, pay PaymentInput) (*Registration, error) {
	wr, err := r.newWarranty(w)
	if err != nil {
		return nil, err
	}
	p, err := r.newPayment(wr.ID, pay)
	if err != nil {
		return nil, err
	}
	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.insertWarranty(ctx, wr); err != nil {
			return err
		}
		return r.insertPayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	stored, err := r.warranties.GetByID(ctx, wr.ID)
	if err != nil {
		return nil, err
	}
	return &Registration{Warranty: stored, Payment: p}, nil
}

func (r *WarrantyRegistration) Get(ctx context.Context, id string) (*domain.Warranty, error) {
	if id == "" {
		return nil, invalid("id", "Warranty ID is required")
	}
	return r.warranties.GetByID(ctx, id)
}

func (r *WarrantyRegistration) List(ctx context.Context, q WarrantyQuery) ([]domain.Warranty, int, error) {
	q.Search = strings.TrimSpace(q.Search)
	if !warrantySortColumns[q.SortBy] {
		q.SortBy = "product_id"
		q.Desc = false
	}
	q.Page, q.Limit = PageBounds(q.Page, q.Limit)
	return r.warranties.List(ctx, q)
}

func (r *WarrantyRegistration) Update(ctx context.Context, id string, p WarrantyPatch) (*domain.Warranty, error) {
	if id == "" {
		return nil, invalid("id", "Warranty ID is required")
	}
	if p.ProductID != nil && strings.TrimSpace(*p.ProductID) == "" {
		return nil, invalid("product_id", "Product is required")
	}
	if p.CustomerName != nil && strings.TrimSpace(*p.CustomerName) == "" {
		return nil, invalid("customer_name", "Customer name is required")
	}
	if p.PeriodMonths != nil && *p.PeriodMonths <= 0 {
		return nil, invalid("warranty_period_months", "Warranty period must be a positive number of months")
	}
	if p.Status != nil {
		if _, err := domain.ParseWarrantyStatus(*p.Status); err != nil {
			return nil, invalid("status", "Invalid warranty status %q", *p.Status)
		}
	}

	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := r.warranties.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if p.ProductID != nil {
			w.ProductID = strings.TrimSpace(*p.ProductID)
		}
		if p.CustomerName != nil {
			w.CustomerName = strings.TrimSpace(*p.CustomerName)
		}
		if p.CustomerEmail != nil {
			w.CustomerEmail = *p.CustomerEmail
		}
		if p.CustomerPhone != nil {
			w.CustomerPhone = *p.CustomerPhone
		}
		if p.PurchaseDate != nil {
			w.PurchaseDate = *p.PurchaseDate
		}
		if p.PeriodMonths != nil {
			w.WarrantyPeriodMonths = *p.PeriodMonths
		}
		if p.Status != nil {
			w.Status = domain.WarrantyStatus(*p.Status)
		}
		if p.Notes != nil {
			w.Notes = *p.Notes
		}
		if w.ExpiryDate, err = domain.ExpiryDate(w.PurchaseDate, w.WarrantyPeriodMonths); err != nil {
			return invalid("warranty_period_months", "%v", err)
		}
		w.UpdatedAt = r.now()
		if err := r.warranties.Update(ctx, w); err != nil {
			return err
		}
		return r.record(ctx, DomainEvent{
			Type:       EventWarrantyUpdated,
			EntityID:   w.ID,
			Reference:  w.CustomerName,
			Status:     string(w.Status),
			OccurredAt: w.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.warranties.GetByID(ctx, id)
}

// Delete removes the warranty together with its payments.
func (r *WarrantyRegistration) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalid("id", "Warranty ID is required")
	}
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := r.warranties.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.warranties.DeletePayments(ctx, id); err != nil {
			return err
		}
		if err := r.warranties.Delete(ctx, id); err != nil {
			return err
		}
		return r.record(ctx, DomainEvent{
			Type:       EventWarrantyDeleted,
			EntityID:   w.ID,
			Reference:  w.CustomerName,
			OccurredAt: r.now(),
		})
	})
}

func (r *WarrantyRegistration) newWarranty(in RegisterWarrantyInput) (*domain.Warranty, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, invalid("product_id", "Product is required")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, invalid("customer_name", "Customer name is required")
	}
	now := r.now()
	y, m, d := now.Date()
	purchase := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if in.PurchaseDate != nil {
		purchase = *in.PurchaseDate
	}
	expiry, err := domain.ExpiryDate(purchase, in.PeriodMonths)
	if err != nil {
		return nil, invalid("warranty_period_months", "Warranty period must be a positive number of months")
	}
	return &domain.Warranty{
		ID:                   uuid.NewString(),
		ProductID:            strings.TrimSpace(in.ProductID),
		CustomerName:         strings.TrimSpace(in.CustomerName),
		CustomerEmail:        in.CustomerEmail,
		CustomerPhone:        in.CustomerPhone,
		PurchaseDate:         purchase,
		WarrantyPeriodMonths: in.PeriodMonths,
		ExpiryDate:           expiry,
		Status:               domain.WarrantyActive,
		Notes:                in.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func (r *WarrantyRegistration) newPayment(warrantyID string, in PaymentInput) (*domain.WarrantyPayment, error) {
	if in.Amount.IsNegative() {
		return nil, invalid("amount", "Payment amount must not be negative")
	}
	if strings.TrimSpace(in.Method) == "" {
		return nil, invalid("payment_method", "Payment method is required")
	}
	status := domain.PaymentCompleted
	if in.Status != "" {
		st, err := domain.ParsePaymentStatus(in.Status)
		if err != nil {
			return nil, invalid("status", "Invalid payment status %q", in.Status)
		}
		status = st
	}
	return &domain.WarrantyPayment{
		ID:            uuid.NewString(),
		WarrantyID:    warrantyID,
		Amount:        in.Amount.Round(2),
		PaymentMethod: strings.TrimSpace(in.Method),
		TransactionID: in.TransactionID,
		PaymentDate:   r.now(),
		Status:        status,
	}, nil
}

func (r *WarrantyRegistration) insertWarranty(ctx context.Context, w *domain.Warranty) error {
	if err := r.warranties.Insert(ctx, w); err != nil {
		return err
	}
	return r.record(ctx, DomainEvent{
		Type:       EventWarrantyRegistered,
		EntityID:   w.ID,
		Reference:  w.CustomerName,
		Status:     string(w.Status),
		OccurredAt: w.CreatedAt,
	})
}

func (r *WarrantyRegistration) insertPayment(ctx context.Context, p *domain.WarrantyPayment) error {
	if err := r.warranties.InsertPayment(ctx, p); err != nil {
		return err
	}
	return r.record(ctx, DomainEvent{
		Type:       EventPaymentRegistered,
		EntityID:   p.WarrantyID,
		Reference:  p.PaymentMethod,
		Status:     string(p.Status),
		Amount:     p.Amount.StringFixed(2),
		OccurredAt: p.PaymentDate,
	})
}

func (r *WarrantyRegistration) record(ctx context.Context, ev DomainEvent) error {
	msg, err := ev.outbox()
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, msg)
}
