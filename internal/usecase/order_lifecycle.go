package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

var orderSortColumns = map[string]bool{
	"created_at":             true,
	"order_date":             true,
	"order_number":           true,
	"total_amount":           true,
	"status":                 true,
	"expected_delivery_date": true,
}

type ItemInput struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// OrderPatch lists the fields a caller may change. Identifiers, timestamps,
// the order number and the total are not settable.
type OrderPatch struct {
	SupplierID           *string
	Status               *string
	OrderDate            *time.Time
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	Notes                *string
}

type UpdateOrderInput struct {
	Patch OrderPatch
	// NewItems replaces the whole item set when non-nil.
	NewItems []ItemInput
}

type OrderLifecycle struct {
	tx     Transactor
	orders OrderRepo
	outbox OutboxRepo
	idem   IdempotencyStore
	cache  OrderCache

	now     func() time.Time
	numbers func(time.Time) string
}

type OrderOption func(*OrderLifecycle)

// WithOrderCache enables read-through caching of single orders.
func WithOrderCache(c OrderCache) OrderOption { return func(l *OrderLifecycle) { l.cache = c } }

func WithIdempotency(s IdempotencyStore) OrderOption {
	return func(l *OrderLifecycle) { l.idem = s }
}

func WithOrderClock(now func() time.Time) OrderOption {
	return func(l *OrderLifecycle) { l.now = now }
}

func WithOrderNumbers(gen func(time.Time) string) OrderOption {
	return func(l *OrderLifecycle) { l.numbers = gen }
}

func NewOrderLifecycle(tx Transactor, orders OrderRepo, outbox OutboxRepo, opts ...OrderOption) *OrderLifecycle {
	l := &OrderLifecycle{
		tx:      tx,
		orders:  orders,
		outbox:  outbox,
		now:     time.Now,
		numbers: NewOrderNumber,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *OrderLifecycle) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, invalid("id", "Order ID is required")
	}
	if l.cache != nil {
		o, ok, err := l.cache.Get(ctx, id)
		if err != nil {
			logging.FromCtx(ctx).Warn("order cache read failed", "order_id", id, "err", err)
		}
		if ok {
			return o, nil
		}
	}

	o, err := l.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		if err := l.cache.Set(ctx, o); err != nil {
			logging.FromCtx(ctx).Warn("order cache write failed", "order_id", id, "err", err)
		}
	}
	return o, nil
}

func (l *OrderLifecycle) List(ctx context.Context, q OrderQuery) ([]domain.Order, int, error) {
	q = normalizeOrderQuery(q)
	return l.orders.List(ctx, q)
}

func normalizeOrderQuery(q OrderQuery) OrderQuery {
	q.Search = strings.TrimSpace(q.Search)
	if !orderSortColumns[q.SortBy] {
		q.SortBy = "created_at"
		q.Desc = true
	}
	q.Page, q.Limit = PageBounds(q.Page, q.Limit)
	return q
}

// PageBounds applies the list defaults: page 1, limit 10, at most 100.
func PageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// Update applies the patch and, when NewItems is set, replaces the item set and
// recomputes the total. Without NewItems the total is left as stored.
func (l *OrderLifecycle) Update(ctx context.Context, id string, in UpdateOrderInput) (*domain.Order, error) {
	if id == "" {
		return nil, invalid("id", "Order ID is required")
	}
	if err := validatePatch(in.Patch); err != nil {
		return nil, err
	}

	var (
		items []domain.OrderItem
		total decimal.Decimal
	)
	if in.NewItems != nil {
		if len(in.NewItems) == 0 {
			return nil, invalid("newItems", "At least one order item is required")
		}
		var err error
		items, total, err = buildItems(in.NewItems, l.now())
		if err != nil {
			return nil, err
		}
	}

	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := l.orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		applyPatch(o, in.Patch)

		if items != nil {
			if err := l.orders.DeleteItems(ctx, id); err != nil {
				return err
			}
			if err := l.orders.InsertItems(ctx, id, items); err != nil {
				return err
			}
			o.TotalAmount = total
		}
		o.UpdatedAt = l.now()
		if err := l.orders.Update(ctx, o); err != nil {
			return err
		}
		return l.record(ctx, DomainEvent{
			Type:       EventOrderUpdated,
			EntityID:   o.ID,
			Reference:  o.OrderNumber,
			Status:     string(o.Status),
			Amount:     o.TotalAmount.StringFixed(2),
			OccurredAt: o.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	l.evict(ctx, id)
	logging.FromCtx(ctx).Info("order updated", "order_id", id, "items_replaced", items != nil)
	return l.orders.GetByID(ctx, id)
}

func validatePatch(p OrderPatch) error {
	if p.SupplierID != nil && strings.TrimSpace(*p.SupplierID) == "" {
		return invalid("supplier_id", "Supplier is required")
	}
	if p.Status != nil {
		if _, err := domain.ParseOrderStatus(*p.Status); err != nil {
			return invalid("status", "Invalid order status %q", *p.Status)
		}
	}
	return nil
}

func applyPatch(o *domain.Order, p OrderPatch) {
	if p.SupplierID != nil {
		o.SupplierID = strings.TrimSpace(*p.SupplierID)
	}
	if p.Status != nil {
		o.Status = domain.OrderStatus(*p.Status)
	}
	if p.OrderDate != nil {
		o.OrderDate = *p.OrderDate
	}
	if p.ExpectedDeliveryDate != nil {
		d := *p.ExpectedDeliveryDate
		o.ExpectedDeliveryDate = &d
	}
	if p.ActualDeliveryDate != nil {
		d := *p.ActualDeliveryDate
		o.ActualDeliveryDate = &d
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
}

// Delete removes the items and then the order in one transaction. A second
// call for the same id returns ErrNotFound.
func (l *OrderLifecycle) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalid("id", "Order ID is required")
	}
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := l.orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := l.orders.DeleteItems(ctx, id); err != nil {
			return err
		}
		if err := l.orders.Delete(ctx, id); err != nil {
			return err
		}
		return l.record(ctx, DomainEvent{
			Type:       EventOrderDeleted,
			EntityID:   o.ID,
			Reference:  o.OrderNumber,
			Amount:     o.TotalAmount.StringFixed(2),
			OccurredAt: l.now(),
		})
	})
	if err != nil {
		return err
	}
	l.evict(ctx, id)
	logging.FromCtx(ctx).Info("order deleted", "order_id", id)
	return nil
}

var deliveryTransitions = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderShipped:   domain.OrderConfirmed,
	domain.OrderDelivered: domain.OrderShipped,
}

// ApplyDeliveryUpdate moves an order to shipped or delivered when it is in the
// preceding state. It reports whether the row changed; a stale or repeated
// update is not an error.
func (l *OrderLifecycle) ApplyDeliveryUpdate(ctx context.Context, orderID string, to domain.OrderStatus, at time.Time) (bool, error) {
	from, ok := deliveryTransitions[to]
	if !ok {
		return false, invalid("status", "Unsupported delivery status %q", to)
	}
	var deliveredAt *time.Time
	if to == domain.OrderDelivered {
		deliveredAt = &at
	}

	var applied bool
	err := l.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := l.orders.LockByID(ctx, orderID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if o.Status != from {
			return nil
		}
		applied, err = l.orders.UpdateStatusIf(ctx, orderID, from, to, deliveredAt)
		if err != nil || !applied {
			return err
		}
		return l.record(ctx, DomainEvent{
			Type:       EventOrderUpdated,
			EntityID:   orderID,
			Reference:  o.OrderNumber,
			Status:     string(to),
			OccurredAt: at,
		})
	})
	if err != nil {
		return false, err
	}
	if applied {
		l.evict(ctx, orderID)
	}
	return applied, nil
}

func (l *OrderLifecycle) record(ctx context.Context, ev DomainEvent) error {
	msg, err := ev.outbox()
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	return l.outbox.Insert(ctx, msg)
}

// Cache eviction is best-effort; the entry expires on its own TTL otherwise.
func (l *OrderLifecycle) evict(ctx context.Context, id string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Evict(ctx, id); err != nil {
		logging.FromCtx(ctx).Warn("order cache evict failed", "order_id", id, "err", err)
	}
}

func buildItems(in []ItemInput, now time.Time) ([]domain.OrderItem, decimal.Decimal, error) {
	lines := make([]domain.LineInput, 0, len(in))
	items := make([]domain.OrderItem, 0, len(in))
	for i, it := range in {
		if strings.TrimSpace(it.ProductID) == "" {
			return nil, decimal.Zero, invalid("items", "Item %d: product is required", i)
		}
		lt, err := domain.LineTotal(it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, decimal.Zero, invalid("items", "Item %d: %v", i, err)
		}
		lines = append(lines, domain.LineInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
		items = append(items, domain.OrderItem{
			ID:         uuid.NewString(),
			ProductID:  strings.TrimSpace(it.ProductID),
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: lt,
			CreatedAt:  now,
		})
	}
	total, err := domain.OrderTotal(lines)
	if err != nil {
		return nil, decimal.Zero, invalid("items", "%v", err)
	}
	return items, total, nil
}
