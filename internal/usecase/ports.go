package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
)

// Transactor runs fn inside one database transaction. Repositories called with
// the ctx handed to fn take part in it; any error from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderQuery struct {
	Search     string
	SupplierID string
	Status     string
	SortBy     string
	Desc       bool
	Page       int
	Limit      int
}

type OrderRepo interface {
	// Insert returns ErrConflict when the order number is already taken.
	Insert(ctx context.Context, o *domain.Order) error
	InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	DeleteItems(ctx context.Context, orderID string) error
	// LockByID reads the bare order row and holds it until the tx ends.
	LockByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	Delete(ctx context.Context, id string) error
	UpdateStatusIf(ctx context.Context, id string, from, to domain.OrderStatus, deliveredAt *time.Time) (bool, error)
	// GetByID returns the order joined with its supplier and items (+ product).
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, q OrderQuery) ([]domain.Order, int, error)
}

type WarrantyQuery struct {
	Search    string
	ProductID string
	Status    string
	SortBy    string
	Desc      bool
	Page      int
	Limit     int
}

type WarrantyRepo interface {
	Insert(ctx context.Context, w *domain.Warranty) error
	LockByID(ctx context.Context, id string) (*domain.Warranty, error)
	Update(ctx context.Context, w *domain.Warranty) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Warranty, error)
	List(ctx context.Context, q WarrantyQuery) ([]domain.Warranty, int, error)

	InsertPayment(ctx context.Context, p *domain.WarrantyPayment) error
	DeletePayments(ctx context.Context, warrantyID string) error
}

type SupplierRepo interface {
	Insert(ctx context.Context, s *domain.Supplier) error
	List(ctx context.Context, search string) ([]domain.Supplier, error)
}

// Stock filters for product lists.
const (
	StockLow = "low" // at or below the minimum level
	StockOut = "out"
	StockIn  = "in"
)

type ProductQuery struct {
	Search     string
	CategoryID string
	Stock      string
	SortBy     string
	Desc       bool
	Page       int
	Limit      int
}

type ProductRepo interface {
	Insert(ctx context.Context, p *domain.Product) error
	LockByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	// Delete returns ErrConflict while order items or warranties still
	// reference the product.
	Delete(ctx context.Context, id string) error
	// GetByID returns the product joined with its category.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, q ProductQuery) ([]domain.Product, int, error)
}

type CategoryRepo interface {
	Insert(ctx context.Context, c *domain.Category) error
	LockByID(ctx context.Context, id string) (*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context, search string) ([]domain.Category, error)
}

// OutboxEvent is written in the same transaction as the change it describes
// and published later by the relay.
type OutboxEvent struct {
	Channel string
	Payload []byte
}

type OutboxRepo interface {
	Insert(ctx context.Context, ev OutboxEvent) error
}

// OutboxMessage is a stored event waiting to be published.
type OutboxMessage struct {
	ID         int64
	Channel    string
	Payload    []byte
	RetryCount int
}

// OutboxStore is the relay's view of the outbox table.
type OutboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	// MarkFailed schedules another attempt at retryAt, or parks the row for
	// good when dead is true.
	MarkFailed(ctx context.Context, id int64, reason string, retryAt time.Time, dead bool) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderCache interface {
	Get(ctx context.Context, id string) (*domain.Order, bool, error)
	Set(ctx context.Context, o *domain.Order) error
	Evict(ctx context.Context, id string) error
}

type ActivityFeed interface {
	Push(ctx context.Context, a Activity) error
	Recent(ctx context.Context, n int) ([]Activity, error)
}
