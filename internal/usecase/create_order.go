package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/google/uuid"
)

// Order numbers carry a random suffix; the unique index on order_number is
// what guarantees uniqueness, so a collision is retried with a fresh number.
const maxOrderNumberAttempts = 3

type CreateOrderInput struct {
	SupplierID           string
	Status               string
	OrderDate            *time.Time
	ExpectedDeliveryDate *time.Time
	Notes                string
	Items                []ItemInput

	// Optional. Scope is usually the authenticated subject.
	IdempotencyScope, IdempotencyKey string
}

// Create persists the order, its items and an outbox event in one transaction
// and returns the order as stored, joined with supplier and items.
func (l *OrderLifecycle) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if strings.TrimSpace(in.SupplierID) == "" {
		return nil, invalid("supplier_id", "Supplier is required")
	}
	if len(in.Items) == 0 {
		return nil, invalid("items", "At least one order item is required")
	}
	status := domain.OrderPending
	if in.Status != "" {
		st, err := domain.ParseOrderStatus(in.Status)
		if err != nil {
			return nil, invalid("status", "Invalid order status %q", in.Status)
		}
		status = st
	}

	now := l.now()
	items, total, err := buildItems(in.Items, now)
	if err != nil {
		return nil, err
	}

	useIdem := l.idem != nil && in.IdempotencyKey != ""
	if useIdem {
		// Fast path: idempotency recall
		if id, ok, _ := l.idem.Recall(ctx, in.IdempotencyScope, in.IdempotencyKey); ok {
			return l.Get(ctx, id)
		}
		ok, err := l.idem.TryLock(ctx, in.IdempotencyScope, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicate
		}
	}

	o := &domain.Order{
		ID:          uuid.NewString(),
		SupplierID:  strings.TrimSpace(in.SupplierID),
		Status:      status,
		OrderDate:   now,
		Notes:       in.Notes,
		TotalAmount: total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.OrderDate != nil {
		o.OrderDate = *in.OrderDate
	}
	if in.ExpectedDeliveryDate != nil {
		d := *in.ExpectedDeliveryDate
		o.ExpectedDeliveryDate = &d
	}
	for i := range items {
		items[i].OrderID = o.ID
	}

	for attempt := 1; ; attempt++ {
		o.OrderNumber = l.numbers(now)
		err = l.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := l.orders.Insert(ctx, o); err != nil {
				return err
			}
			if err := l.orders.InsertItems(ctx, o.ID, items); err != nil {
				return err
			}
			return l.record(ctx, DomainEvent{
				Type:       EventOrderCreated,
				EntityID:   o.ID,
				Reference:  o.OrderNumber,
				Status:     string(o.Status),
				Amount:     o.TotalAmount.StringFixed(2),
				OccurredAt: now,
			})
		})
		if errors.Is(err, ErrConflict) && attempt < maxOrderNumberAttempts {
			logging.FromCtx(ctx).Warn("order number collision, retrying", "order_number", o.OrderNumber, "attempt", attempt)
			continue
		}
		break
	}
	if err != nil {
		if useIdem {
			_ = l.idem.Release(ctx, in.IdempotencyScope, in.IdempotencyKey)
		}
		return nil, err
	}

	if useIdem {
		_ = l.idem.Remember(ctx, in.IdempotencyScope, in.IdempotencyKey, o.ID)
	}
	logging.FromCtx(ctx).Info("order created",
		"order_id", o.ID, "order_number", o.OrderNumber, "items", len(items), "total", o.TotalAmount.StringFixed(2))
	return l.orders.GetByID(ctx, o.ID)
}
