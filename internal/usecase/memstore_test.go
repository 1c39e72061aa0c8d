package usecase

import (
	"context"
	"maps"
	"slices"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
)

// memDB is an in-memory stand-in for the MySQL adapters. WithinTx snapshots
// every table and restores the snapshot when fn fails.
type memDB struct {
	orders     map[string]domain.Order
	items      map[string][]domain.OrderItem
	numbers    map[string]bool
	suppliers  map[string]domain.Supplier
	products   map[string]domain.ProductRef
	warranties map[string]domain.Warranty
	payments   map[string][]domain.WarrantyPayment
	outbox     []OutboxEvent

	// fail makes the named operation return the error.
	fail map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		orders:     map[string]domain.Order{},
		items:      map[string][]domain.OrderItem{},
		numbers:    map[string]bool{},
		suppliers:  map[string]domain.Supplier{"S1": {ID: "S1", Name: "Acme Supply"}},
		products:   map[string]domain.ProductRef{"P1": {ID: "P1", Name: "Drill", SKU: "DR-1"}, "P2": {ID: "P2", Name: "Saw", SKU: "SW-2"}},
		warranties: map[string]domain.Warranty{},
		payments:   map[string][]domain.WarrantyPayment{},
		fail:       map[string]error{},
	}
}

type memSnapshot struct {
	orders     map[string]domain.Order
	items      map[string][]domain.OrderItem
	numbers    map[string]bool
	warranties map[string]domain.Warranty
	payments   map[string][]domain.WarrantyPayment
	outbox     []OutboxEvent
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := memSnapshot{
		orders:     maps.Clone(db.orders),
		items:      map[string][]domain.OrderItem{},
		numbers:    maps.Clone(db.numbers),
		warranties: maps.Clone(db.warranties),
		payments:   map[string][]domain.WarrantyPayment{},
		outbox:     slices.Clone(db.outbox),
	}
	for k, v := range db.items {
		snap.items[k] = slices.Clone(v)
	}
	for k, v := range db.payments {
		snap.payments[k] = slices.Clone(v)
	}
	if err := fn(ctx); err != nil {
		db.orders, db.items, db.numbers = snap.orders, snap.items, snap.numbers
		db.warranties, db.payments, db.outbox = snap.warranties, snap.payments, snap.outbox
		return err
	}
	return nil
}

func (db *memDB) check(op string) error { return db.fail[op] }

func (db *memDB) eventTypes() []string {
	out := make([]string, 0, len(db.outbox))
	for _, ev := range db.outbox {
		out = append(out, ev.Channel)
	}
	return out
}

type memOrders struct{ db *memDB }

func (m memOrders) Insert(_ context.Context, o *domain.Order) error {
	if err := m.db.check("orders.Insert"); err != nil {
		return err
	}
	if m.db.numbers[o.OrderNumber] {
		return ErrConflict
	}
	row := *o
	row.Items, row.Supplier = nil, nil
	m.db.orders[o.ID] = row
	m.db.numbers[o.OrderNumber] = true
	return nil
}

func (m memOrders) InsertItems(_ context.Context, orderID string, items []domain.OrderItem) error {
	if err := m.db.check("orders.InsertItems"); err != nil {
		return err
	}
	for _, it := range items {
		it.OrderID = orderID
		it.Product = nil
		m.db.items[orderID] = append(m.db.items[orderID], it)
	}
	return nil
}

func (m memOrders) DeleteItems(_ context.Context, orderID string) error {
	if err := m.db.check("orders.DeleteItems"); err != nil {
		return err
	}
	delete(m.db.items, orderID)
	return nil
}

func (m memOrders) LockByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := m.db.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m memOrders) Update(_ context.Context, o *domain.Order) error {
	if err := m.db.check("orders.Update"); err != nil {
		return err
	}
	if _, ok := m.db.orders[o.ID]; !ok {
		return ErrNotFound
	}
	row := *o
	row.Items, row.Supplier = nil, nil
	m.db.orders[o.ID] = row
	return nil
}

func (m memOrders) Delete(_ context.Context, id string) error {
	o, ok := m.db.orders[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.db.orders, id)
	delete(m.db.numbers, o.OrderNumber)
	return nil
}

func (m memOrders) UpdateStatusIf(_ context.Context, id string, from, to domain.OrderStatus, deliveredAt *time.Time) (bool, error) {
	o, ok := m.db.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if deliveredAt != nil {
		o.ActualDeliveryDate = deliveredAt
	}
	m.db.orders[id] = o
	return true, nil
}

func (m memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := m.db.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.join(o), nil
}

func (m memOrders) join(o domain.Order) *domain.Order {
	if s, ok := m.db.suppliers[o.SupplierID]; ok {
		o.Supplier = &s
	}
	o.Items = []domain.OrderItem{}
	for _, it := range m.db.items[o.ID] {
		if p, ok := m.db.products[it.ProductID]; ok {
			it.Product = &p
		}
		o.Items = append(o.Items, it)
	}
	return &o
}

func (m memOrders) List(_ context.Context, q OrderQuery) ([]domain.Order, int, error) {
	var out []domain.Order
	for _, o := range m.db.orders {
		if q.SupplierID != "" && o.SupplierID != q.SupplierID {
			continue
		}
		if q.Status != "" && string(o.Status) != q.Status {
			continue
		}
		out = append(out, *m.join(o))
	}
	return out, len(out), nil
}

type memWarranties struct{ db *memDB }

func (m memWarranties) Insert(_ context.Context, w *domain.Warranty) error {
	if err := m.db.check("warranties.Insert"); err != nil {
		return err
	}
	row := *w
	row.Product = nil
	m.db.warranties[w.ID] = row
	return nil
}

func (m memWarranties) LockByID(_ context.Context, id string) (*domain.Warranty, error) {
	w, ok := m.db.warranties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (m memWarranties) Update(_ context.Context, w *domain.Warranty) error {
	if _, ok := m.db.warranties[w.ID]; !ok {
		return ErrNotFound
	}
	m.db.warranties[w.ID] = *w
	return nil
}

func (m memWarranties) Delete(_ context.Context, id string) error {
	if _, ok := m.db.warranties[id]; !ok {
		return ErrNotFound
	}
	delete(m.db.warranties, id)
	return nil
}

func (m memWarranties) GetByID(_ context.Context, id string) (*domain.Warranty, error) {
	w, ok := m.db.warranties[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p, ok := m.db.products[w.ProductID]; ok {
		w.Product = &p
	}
	return &w, nil
}

func (m memWarranties) List(_ context.Context, q WarrantyQuery) ([]domain.Warranty, int, error) {
	var out []domain.Warranty
	for _, w := range m.db.warranties {
		out = append(out, w)
	}
	return out, len(out), nil
}

func (m memWarranties) InsertPayment(_ context.Context, p *domain.WarrantyPayment) error {
	if err := m.db.check("warranties.InsertPayment"); err != nil {
		return err
	}
	m.db.payments[p.WarrantyID] = append(m.db.payments[p.WarrantyID], *p)
	return nil
}

func (m memWarranties) DeletePayments(_ context.Context, warrantyID string) error {
	delete(m.db.payments, warrantyID)
	return nil
}

type memOutbox struct{ db *memDB }

func (m memOutbox) Insert(_ context.Context, ev OutboxEvent) error {
	if err := m.db.check("outbox.Insert"); err != nil {
		return err
	}
	m.db.outbox = append(m.db.outbox, ev)
	return nil
}

type memIdem struct {
	locks map[string]bool
	ids   map[string]string
}

func newMemIdem() *memIdem { return &memIdem{locks: map[string]bool{}, ids: map[string]string{}} }

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	if m.locks[scope+":"+key] {
		return false, nil
	}
	m.locks[scope+":"+key] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.ids[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := m.ids[scope+":"+key]
	return v, ok, nil
}

type memCache struct {
	entries map[string]domain.Order
	evicted []string
}

func (m *memCache) Get(_ context.Context, id string) (*domain.Order, bool, error) {
	o, ok := m.entries[id]
	if !ok {
		return nil, false, nil
	}
	return &o, true, nil
}

func (m *memCache) Set(_ context.Context, o *domain.Order) error {
	m.entries[o.ID] = *o
	return nil
}

func (m *memCache) Evict(_ context.Context, id string) error {
	delete(m.entries, id)
	m.evicted = append(m.evicted, id)
	return nil
}

var (
	_ Transactor       = (*memDB)(nil)
	_ OrderRepo        = memOrders{}
	_ WarrantyRepo     = memWarranties{}
	_ OutboxRepo       = memOutbox{}
	_ IdempotencyStore = (*memIdem)(nil)
	_ OrderCache       = (*memCache)(nil)
)
