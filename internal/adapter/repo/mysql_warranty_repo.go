package repo

import (
	"context"
	"database/sql"
	"strings"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type MySQLWarrantyRepo struct{ db *sql.DB }

func NewMySQLWarrantyRepo(db *sql.DB) *MySQLWarrantyRepo { return &MySQLWarrantyRepo{db: db} }

const warrantyColumns = `w.id,w.product_id,w.customer_name,w.customer_email,w.customer_phone,w.purchase_date,
w.warranty_period_months,w.expiry_date,w.status,w.notes,w.created_at,w.updated_at`

const warrantyJoinColumns = warrantyColumns + `,p.id,p.name,p.sku,p.selling_price`

func (r *MySQLWarrantyRepo) Insert(ctx context.Context, w *domain.Warranty) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO warranties (id,product_id,customer_name,customer_email,customer_phone,purchase_date,
                        warranty_period_months,expiry_date,status,notes,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		w.ID, w.ProductID, w.CustomerName, w.CustomerEmail, w.CustomerPhone, w.PurchaseDate,
		w.WarrantyPeriodMonths, w.ExpiryDate, w.Status, w.Notes, w.CreatedAt, w.UpdatedAt)
	return mapErr("insert warranty", err)
}

func (r *MySQLWarrantyRepo) LockByID(ctx context.Context, id string) (*domain.Warranty, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+warrantyColumns+` FROM warranties w WHERE w.id = ? FOR UPDATE`, id)
	var w domain.Warranty
	if err := row.Scan(warrantyDest(&w)...); err != nil {
		return nil, mapErr("lock warranty", err)
	}
	return &w, nil
}

func (r *MySQLWarrantyRepo) Update(ctx context.Context, w *domain.Warranty) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE warranties
SET product_id = ?, customer_name = ?, customer_email = ?, customer_phone = ?, purchase_date = ?,
    warranty_period_months = ?, expiry_date = ?, status = ?, notes = ?, updated_at = ?
WHERE id = ?`,
		w.ProductID, w.CustomerName, w.CustomerEmail, w.CustomerPhone, w.PurchaseDate,
		w.WarrantyPeriodMonths, w.ExpiryDate, w.Status, w.Notes, w.UpdatedAt, w.ID)
	return mapErr("update warranty", err)
}

func (r *MySQLWarrantyRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM warranties WHERE id = ?`, id)
	return affectedOne("delete warranty", res, err)
}

func (r *MySQLWarrantyRepo) GetByID(ctx context.Context, id string) (*domain.Warranty, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT `+warrantyJoinColumns+`
FROM warranties w LEFT JOIN products p ON p.id = w.product_id
WHERE w.id = ?`, id)
	w, err := scanJoinedWarranty(row)
	if err != nil {
		return nil, mapErr("get warranty", err)
	}
	return w, nil
}

func (r *MySQLWarrantyRepo) List(ctx context.Context, f usecase.WarrantyQuery) ([]domain.Warranty, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Search != "" {
		like := contains(f.Search)
		where = append(where, "(w.customer_name LIKE ? OR w.customer_email LIKE ? OR w.notes LIKE ? OR p.name LIKE ? OR p.sku LIKE ?)")
		args = append(args, like, like, like, like, like)
	}
	if f.ProductID != "" {
		where = append(where, "w.product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.Status != "" {
		where = append(where, "w.status = ?")
		args = append(args, f.Status)
	}
	from := ` FROM warranties w LEFT JOIN products p ON p.id = w.product_id`
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count warranties", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+warrantyJoinColumns+from+` ORDER BY w.`+orderBy(f.SortBy, f.Desc)+` LIMIT ? OFFSET ?`,
		append(args, f.Limit, offset(f.Page, f.Limit))...)
	if err != nil {
		return nil, 0, mapErr("list warranties", err)
	}
	defer rows.Close()

	out := []domain.Warranty{}
	for rows.Next() {
		w, err := scanJoinedWarranty(rows)
		if err != nil {
			return nil, 0, mapErr("scan warranty", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapErr("list warranties", err)
	}
	return out, total, nil
}

func (r *MySQLWarrantyRepo) InsertPayment(ctx context.Context, p *domain.WarrantyPayment) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO warranty_payments (id,warranty_id,amount,payment_method,transaction_id,payment_date,status)
VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.WarrantyID, p.Amount, p.PaymentMethod, p.TransactionID, p.PaymentDate, p.Status)
	return mapErr("insert warranty payment", err)
}

func (r *MySQLWarrantyRepo) DeletePayments(ctx context.Context, warrantyID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM warranty_payments WHERE warranty_id = ?`, warrantyID)
	return mapErr("delete warranty payments", err)
}

func warrantyDest(w *domain.Warranty) []any {
	return []any{&w.ID, &w.ProductID, &w.CustomerName, &w.CustomerEmail, &w.CustomerPhone, &w.PurchaseDate,
		&w.WarrantyPeriodMonths, &w.ExpiryDate, &w.Status, &w.Notes, &w.CreatedAt, &w.UpdatedAt}
}

func scanJoinedWarranty(row rowScanner) (*domain.Warranty, error) {
	var (
		w domain.Warranty
		p productCols
	)
	dest := append(warrantyDest(&w), &p.ID, &p.Name, &p.SKU, &p.SellingPrice)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	w.Product = p.ref()
	return &w, nil
}

var _ usecase.WarrantyRepo = (*MySQLWarrantyRepo)(nil)
