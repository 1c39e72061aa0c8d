package repo

import (
	"context"
	"database/sql"
	"strings"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

const productColumns = `p.id,p.name,p.description,p.sku,p.category_id,p.supplier_id,p.real_price,p.purchase_price,
p.selling_price,p.price_correction,p.stock_quantity,p.min_stock_level,p.max_stock_level,p.is_active,p.created_at,p.updated_at`

const productJoinColumns = productColumns + `,c.id,c.name,c.description,c.created_at,c.updated_at`

func (r *MySQLProductRepo) Insert(ctx context.Context, p *domain.Product) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO products (id,name,description,sku,category_id,supplier_id,real_price,purchase_price,selling_price,
                      price_correction,stock_quantity,min_stock_level,max_stock_level,is_active,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Description, p.SKU, p.CategoryID, nullString(p.SupplierID), p.RealPrice, p.PurchasePrice,
		p.SellingPrice, p.PriceCorrection, p.StockQuantity, p.MinStockLevel, nullInt(p.MaxStockLevel), p.IsActive,
		p.CreatedAt, p.UpdatedAt)
	return mapErr("insert product", err)
}

func (r *MySQLProductRepo) LockByID(ctx context.Context, id string) (*domain.Product, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ? FOR UPDATE`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, mapErr("lock product", err)
	}
	return p, nil
}

func (r *MySQLProductRepo) Update(ctx context.Context, p *domain.Product) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE products
SET name = ?, description = ?, sku = ?, category_id = ?, supplier_id = ?, real_price = ?, purchase_price = ?,
    selling_price = ?, price_correction = ?, stock_quantity = ?, min_stock_level = ?, max_stock_level = ?,
    is_active = ?, updated_at = ?
WHERE id = ?`,
		p.Name, p.Description, p.SKU, p.CategoryID, nullString(p.SupplierID), p.RealPrice, p.PurchasePrice,
		p.SellingPrice, p.PriceCorrection, p.StockQuantity, p.MinStockLevel, nullInt(p.MaxStockLevel),
		p.IsActive, p.UpdatedAt, p.ID)
	return mapErr("update product", err)
}

func (r *MySQLProductRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return affectedOne("delete product", res, err)
}

func (r *MySQLProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT `+productJoinColumns+`
FROM products p JOIN categories c ON c.id = p.category_id
WHERE p.id = ?`, id)
	p, err := scanJoinedProduct(row)
	if err != nil {
		return nil, mapErr("get product", err)
	}
	return p, nil
}

func (r *MySQLProductRepo) List(ctx context.Context, f usecase.ProductQuery) ([]domain.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Search != "" {
		like := contains(f.Search)
		where = append(where, "(p.name LIKE ? OR p.description LIKE ? OR p.sku LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	switch f.Stock {
	case usecase.StockLow:
		where = append(where, "p.stock_quantity <= p.min_stock_level")
	case usecase.StockOut:
		where = append(where, "p.stock_quantity = 0")
	case usecase.StockIn:
		where = append(where, "p.stock_quantity > 0")
	}
	from := ` FROM products p JOIN categories c ON c.id = p.category_id`
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count products", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+productJoinColumns+from+` ORDER BY p.`+orderBy(f.SortBy, f.Desc)+` LIMIT ? OFFSET ?`,
		append(args, f.Limit, offset(f.Page, f.Limit))...)
	if err != nil {
		return nil, 0, mapErr("list products", err)
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := scanJoinedProduct(rows)
		if err != nil {
			return nil, 0, mapErr("scan product", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapErr("list products", err)
	}
	return out, total, nil
}

type productNulls struct {
	supplierID sql.NullString
	maxStock   sql.NullInt64
}

func productDest(p *domain.Product, n *productNulls) []any {
	return []any{&p.ID, &p.Name, &p.Description, &p.SKU, &p.CategoryID, &n.supplierID, &p.RealPrice, &p.PurchasePrice,
		&p.SellingPrice, &p.PriceCorrection, &p.StockQuantity, &p.MinStockLevel, &n.maxStock, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt}
}

func (n productNulls) apply(p *domain.Product) {
	if n.supplierID.Valid {
		s := n.supplierID.String
		p.SupplierID = &s
	}
	if n.maxStock.Valid {
		m := int(n.maxStock.Int64)
		p.MaxStockLevel = &m
	}
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p domain.Product
		n productNulls
	)
	if err := row.Scan(productDest(&p, &n)...); err != nil {
		return nil, err
	}
	n.apply(&p)
	return &p, nil
}

func scanJoinedProduct(row rowScanner) (*domain.Product, error) {
	var (
		p   domain.Product
		n   productNulls
		cat domain.Category
	)
	dest := append(productDest(&p, &n), &cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	n.apply(&p)
	p.Category = &cat
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

type MySQLCategoryRepo struct{ db *sql.DB }

func NewMySQLCategoryRepo(db *sql.DB) *MySQLCategoryRepo { return &MySQLCategoryRepo{db: db} }

const categoryColumns = `id,name,description,created_at,updated_at`

func (r *MySQLCategoryRepo) Insert(ctx context.Context, c *domain.Category) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO categories (id,name,description,created_at,updated_at) VALUES (?,?,?,?,?)`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return mapErr("insert category", err)
}

func (r *MySQLCategoryRepo) LockByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.get(ctx, "lock category", `SELECT `+categoryColumns+` FROM categories WHERE id = ? FOR UPDATE`, id)
}

func (r *MySQLCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.get(ctx, "get category", `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
}

func (r *MySQLCategoryRepo) get(ctx context.Context, op, query, id string) (*domain.Category, error) {
	var c domain.Category
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return &c, nil
}

func (r *MySQLCategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Description, c.UpdatedAt, c.ID)
	return mapErr("update category", err)
}

func (r *MySQLCategoryRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return affectedOne("delete category", res, err)
}

func (r *MySQLCategoryRepo) List(ctx context.Context, search string) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if search != "" {
		like := contains(search)
		query += ` WHERE name LIKE ? OR description LIKE ?`
		args = append(args, like, like)
	}
	query += ` ORDER BY name ASC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list categories", err)
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, mapErr("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list categories", err)
	}
	return out, nil
}

var (
	_ usecase.ProductRepo  = (*MySQLProductRepo)(nil)
	_ usecase.CategoryRepo = (*MySQLCategoryRepo)(nil)
)
