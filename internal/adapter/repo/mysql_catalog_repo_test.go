package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

func joinedProductRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "sku", "category_id", "supplier_id", "real_price", "purchase_price",
		"selling_price", "price_correction", "stock_quantity", "min_stock_level", "max_stock_level", "is_active",
		"created_at", "updated_at",
		"c.id", "c.name", "c.description", "c.created_at", "c.updated_at",
	})
}

func TestProductGetByID_JoinsCategory(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLProductRepo(db)

	mock.ExpectQuery(q("FROM products p JOIN categories c ON c.id = p.category_id")).WithArgs("p-1").
		WillReturnRows(joinedProductRows().AddRow(
			"p-1", "Drill", "", "DR-1", "c-1", nil, "35.00", "30.00", "39.90", "0.00", 4, 5, 50, true, ts, ts,
			"c-1", "Tools", "", ts, ts))

	p, err := r.GetByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Nil(t, p.SupplierID)
	require.NotNil(t, p.MaxStockLevel)
	assert.Equal(t, 50, *p.MaxStockLevel)
	assert.Equal(t, "39.90", p.SellingPrice.StringFixed(2))
	require.NotNil(t, p.Category)
	assert.Equal(t, "Tools", p.Category.Name)
}

func TestProductInsert_NullableColumns(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLProductRepo(db)
	p := &domain.Product{ID: "p-1", Name: "Drill", SKU: "DR-1", CategoryID: "c-1",
		SellingPrice: decimal.RequireFromString("39.90"), IsActive: true, CreatedAt: ts, UpdatedAt: ts}

	mock.ExpectExec(q("INSERT INTO products")).
		WithArgs("p-1", "Drill", "", "DR-1", "c-1", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), 0, 0, nil, true, ts, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, r.Insert(context.Background(), p))

	mock.ExpectExec(q("INSERT INTO products")).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.ErrorIs(t, r.Insert(context.Background(), p), usecase.ErrConflict)
}

func TestProductList_StockFilterAndSearch(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLProductRepo(db)

	like := `%dr\_1%`
	mock.ExpectQuery(q("SELECT COUNT(*) FROM products p JOIN categories c ON c.id = p.category_id WHERE")).
		WithArgs(like, like, like, "c-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(q("p.stock_quantity <= p.min_stock_level ORDER BY p.stock_quantity DESC LIMIT ? OFFSET ?")).
		WithArgs(like, like, like, "c-1", 20, 0).
		WillReturnRows(joinedProductRows().AddRow(
			"p-1", "Drill", "", "DR_1", "c-1", "s-1", "35.00", "30.00", "39.90", "0.00", 4, 5, nil, true, ts, ts,
			"c-1", "Tools", "", ts, ts))

	out, total, err := r.List(context.Background(), usecase.ProductQuery{
		Search: "dr_1", CategoryID: "c-1", Stock: usecase.StockLow, SortBy: "stock_quantity", Desc: true,
		Page: 1, Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].SupplierID)
	assert.Equal(t, "s-1", *out[0].SupplierID)
	assert.Nil(t, out[0].MaxStockLevel)
}

func TestCategoryDelete_InUseIsConflict(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLCategoryRepo(db)

	mock.ExpectExec(q("DELETE FROM categories")).WithArgs("c-1").
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})
	assert.ErrorIs(t, r.Delete(context.Background(), "c-1"), usecase.ErrConflict)

	mock.ExpectExec(q("DELETE FROM categories")).WithArgs("c-2").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, r.Delete(context.Background(), "c-2"), usecase.ErrNotFound)
}

func TestCategoryList_SearchByNameAndDescription(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLCategoryRepo(db)

	mock.ExpectQuery(q("WHERE name LIKE ? OR description LIKE ? ORDER BY name ASC")).WithArgs("%tool%", "%tool%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
			AddRow("c-1", "Tools", "Hand tools", ts, ts))

	out, err := r.List(context.Background(), "tool")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Hand tools", out[0].Description)
}
