package repo

import (
	"context"
	"database/sql"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type MySQLSupplierRepo struct{ db *sql.DB }

func NewMySQLSupplierRepo(db *sql.DB) *MySQLSupplierRepo { return &MySQLSupplierRepo{db: db} }

func (r *MySQLSupplierRepo) Insert(ctx context.Context, s *domain.Supplier) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO suppliers (id,name,email,phone,address,created_at,updated_at)
VALUES (?,?,?,?,?,?,?)`,
		s.ID, s.Name, s.Email, s.Phone, s.Address, s.CreatedAt, s.UpdatedAt)
	return mapErr("insert supplier", err)
}

func (r *MySQLSupplierRepo) List(ctx context.Context, search string) ([]domain.Supplier, error) {
	query := `SELECT id,name,email,phone,address,created_at,updated_at FROM suppliers`
	var args []any
	if search != "" {
		like := contains(search)
		query += ` WHERE name LIKE ? OR email LIKE ? OR phone LIKE ? OR address LIKE ?`
		args = append(args, like, like, like, like)
	}
	query += ` ORDER BY name ASC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list suppliers", err)
	}
	defer rows.Close()

	out := []domain.Supplier{}
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, mapErr("scan supplier", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list suppliers", err)
	}
	return out, nil
}

var _ usecase.SupplierRepo = (*MySQLSupplierRepo)(nil)
