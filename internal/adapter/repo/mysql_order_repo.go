package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

const orderColumns = `o.id,o.order_number,o.supplier_id,o.status,o.order_date,o.expected_delivery_date,
o.actual_delivery_date,o.notes,o.total_amount,o.created_at,o.updated_at`

const orderJoinColumns = orderColumns + `,
s.id,s.name,s.email,s.phone,s.address,s.created_at,s.updated_at`

func (r *MySQLOrderRepo) Insert(ctx context.Context, o *domain.Order) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO orders (id,order_number,supplier_id,status,order_date,expected_delivery_date,actual_delivery_date,notes,total_amount,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.OrderNumber, o.SupplierID, o.Status, o.OrderDate,
		nullTime(o.ExpectedDeliveryDate), nullTime(o.ActualDeliveryDate),
		o.Notes, o.TotalAmount, o.CreatedAt, o.UpdatedAt)
	return mapErr("insert order", err)
}

func (r *MySQLOrderRepo) InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args = make([]any, 0, len(items)*7)
	)
	sb.WriteString(`INSERT INTO order_items (id,order_id,product_id,quantity,unit_price,total_price,created_at) VALUES `)
	for i, it := range items {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?)")
		args = append(args, it.ID, orderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice, it.CreatedAt)
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, sb.String(), args...)
	return mapErr("insert order items", err)
}

func (r *MySQLOrderRepo) DeleteItems(ctx context.Context, orderID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID)
	return mapErr("delete order items", err)
}

func (r *MySQLOrderRepo) LockByID(ctx context.Context, id string) (*domain.Order, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = ? FOR UPDATE`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, mapErr("lock order", err)
	}
	return o, nil
}

func (r *MySQLOrderRepo) Update(ctx context.Context, o *domain.Order) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE orders
SET supplier_id = ?, status = ?, order_date = ?, expected_delivery_date = ?, actual_delivery_date = ?,
    notes = ?, total_amount = ?, updated_at = ?
WHERE id = ?`,
		o.SupplierID, o.Status, o.OrderDate, nullTime(o.ExpectedDeliveryDate), nullTime(o.ActualDeliveryDate),
		o.Notes, o.TotalAmount, o.UpdatedAt, o.ID)
	return mapErr("update order", err)
}

func (r *MySQLOrderRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return affectedOne("delete order", res, err)
}

func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, from, to domain.OrderStatus, deliveredAt *time.Time) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE orders
SET status = ?, actual_delivery_date = COALESCE(?, actual_delivery_date), updated_at = NOW(3)
WHERE id = ? AND status = ?`,
		to, nullTime(deliveredAt), id, from,
	)
	if err != nil {
		return false, mapErr("update order status", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, mapErr("update order status", err)
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := conn(ctx, r.db)
	row := q.QueryRowContext(ctx, `
SELECT `+orderJoinColumns+`
FROM orders o LEFT JOIN suppliers s ON s.id = o.supplier_id
WHERE o.id = ?`, id)
	o, err := scanJoinedOrder(row)
	if err != nil {
		return nil, mapErr("get order", err)
	}
	items, err := r.itemsFor(ctx, q, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o, nil
}

func (r *MySQLOrderRepo) List(ctx context.Context, f usecase.OrderQuery) ([]domain.Order, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Search != "" {
		like := contains(f.Search)
		where = append(where, "(o.order_number LIKE ? OR o.notes LIKE ? OR s.name LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.SupplierID != "" {
		where = append(where, "o.supplier_id = ?")
		args = append(args, f.SupplierID)
	}
	if f.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, f.Status)
	}
	from := ` FROM orders o LEFT JOIN suppliers s ON s.id = o.supplier_id`
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count orders", err)
	}

	// SortBy is checked against an allow-list by the use case.
	page := `SELECT ` + orderJoinColumns + from +
		` ORDER BY o.` + orderBy(f.SortBy, f.Desc) + ` LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, page, append(args, f.Limit, offset(f.Page, f.Limit))...)
	if err != nil {
		return nil, 0, mapErr("list orders", err)
	}
	defer rows.Close()

	out := []domain.Order{}
	ids := []string{}
	for rows.Next() {
		o, err := scanJoinedOrder(rows)
		if err != nil {
			return nil, 0, mapErr("scan order", err)
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapErr("list orders", err)
	}
	rows.Close()

	items, err := r.itemsFor(ctx, q, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
		if out[i].Items == nil {
			out[i].Items = []domain.OrderItem{}
		}
	}
	return out, total, nil
}

func (r *MySQLOrderRepo) itemsFor(ctx context.Context, q querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	res := map[string][]domain.OrderItem{}
	if len(orderIDs) == 0 {
		return res, nil
	}
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, `
SELECT i.id,i.order_id,i.product_id,i.quantity,i.unit_price,i.total_price,i.created_at,
       p.id,p.name,p.sku,p.selling_price
FROM order_items i LEFT JOIN products p ON p.id = i.product_id
WHERE i.order_id IN (?`+strings.Repeat(",?", len(orderIDs)-1)+`)
ORDER BY i.created_at, i.id`, args...)
	if err != nil {
		return nil, mapErr("list order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it domain.OrderItem
			p  productCols
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.CreatedAt,
			&p.ID, &p.Name, &p.SKU, &p.SellingPrice); err != nil {
			return nil, mapErr("scan order item", err)
		}
		it.Product = p.ref()
		res[it.OrderID] = append(res[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list order items", err)
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func orderDest(o *domain.Order, expected, actual *sql.NullTime) []any {
	return []any{&o.ID, &o.OrderNumber, &o.SupplierID, &o.Status, &o.OrderDate, expected,
		actual, &o.Notes, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt}
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                domain.Order
		expected, actual sql.NullTime
	)
	if err := row.Scan(orderDest(&o, &expected, &actual)...); err != nil {
		return nil, err
	}
	o.ExpectedDeliveryDate, o.ActualDeliveryDate = timePtr(expected), timePtr(actual)
	return &o, nil
}

func scanJoinedOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                domain.Order
		expected, actual sql.NullTime
		s                supplierCols
	)
	dest := append(orderDest(&o, &expected, &actual),
		&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.ExpectedDeliveryDate, o.ActualDeliveryDate = timePtr(expected), timePtr(actual)
	o.Supplier = s.supplier()
	return &o, nil
}

// affectedOne maps "no row touched" to ErrNotFound.
func affectedOne(op string, res sql.Result, err error) error {
	if err != nil {
		return mapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(op, err)
	}
	if n == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
