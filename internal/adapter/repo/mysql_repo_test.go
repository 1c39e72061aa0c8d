package repo

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

var ts = time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func orderRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_number", "supplier_id", "status", "order_date", "expected_delivery_date",
		"actual_delivery_date", "notes", "total_amount", "created_at", "updated_at",
	}).AddRow("o-1", "ORD-1-AAAAA", "s-1", "pending", ts, nil, nil, "", "25.00", ts, ts)
}

func joinedOrderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_number", "supplier_id", "status", "order_date", "expected_delivery_date",
		"actual_delivery_date", "notes", "total_amount", "created_at", "updated_at",
		"s.id", "s.name", "s.email", "s.phone", "s.address", "s.created_at", "s.updated_at",
	})
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_id", "product_id", "quantity", "unit_price", "total_price", "created_at",
		"p.id", "p.name", "p.sku", "p.selling_price",
	})
}

func TestTransactor_CommitsAndRollsBack(t *testing.T) {
	db, mock := newMock(t)
	tx := NewTransactor(db)
	outbox := NewMySQLOutboxRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO outbox")).
		WithArgs("order.created", []byte(`{}`), outboxPending).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		return outbox.Insert(ctx, usecase.OutboxEvent{Channel: "order.created", Payload: []byte(`{}`)})
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = tx.WithinTx(ctx, func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestTransactor_NestedCallJoinsOuterTx(t *testing.T) {
	db, mock := newMock(t)
	tx := NewTransactor(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return tx.WithinTx(ctx, func(context.Context) error { return nil })
	})
	assert.NoError(t, err)
}

func TestOrderInsert_MapsDriverErrors(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	o := &domain.Order{ID: "o-1", OrderNumber: "ORD-1-AAAAA", SupplierID: "s-1", Status: domain.OrderPending,
		OrderDate: ts, TotalAmount: decimal.RequireFromString("25"), CreatedAt: ts, UpdatedAt: ts}

	mock.ExpectExec(q("INSERT INTO orders")).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.ErrorIs(t, r.Insert(context.Background(), o), usecase.ErrConflict)

	mock.ExpectExec(q("INSERT INTO orders")).WillReturnError(&mysql.MySQLError{Number: 1452})
	assert.ErrorIs(t, r.Insert(context.Background(), o), usecase.ErrValidation)

	driverErr := errors.New("connection reset")
	mock.ExpectExec(q("INSERT INTO orders")).WillReturnError(driverErr)
	err := r.Insert(context.Background(), o)
	assert.ErrorIs(t, err, usecase.ErrStorage)
	assert.ErrorIs(t, err, driverErr)
}

func TestOrderInsertItems_SingleStatement(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	items := []domain.OrderItem{
		{ID: "i-1", ProductID: "p-1", Quantity: 2, UnitPrice: decimal.RequireFromString("10"), TotalPrice: decimal.RequireFromString("20"), CreatedAt: ts},
		{ID: "i-2", ProductID: "p-2", Quantity: 1, UnitPrice: decimal.RequireFromString("5"), TotalPrice: decimal.RequireFromString("5"), CreatedAt: ts},
	}

	mock.ExpectExec(q("VALUES (?,?,?,?,?,?,?),(?,?,?,?,?,?,?)")).WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, r.InsertItems(context.Background(), "o-1", items))

	// nothing to insert, no statement
	require.NoError(t, r.InsertItems(context.Background(), "o-1", nil))
}

func TestOrderLockByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)

	mock.ExpectQuery(q("FOR UPDATE")).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err := r.LockByID(context.Background(), "missing")
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	mock.ExpectQuery(q("FOR UPDATE")).WithArgs("o-1").WillReturnRows(orderRow())
	o, err := r.LockByID(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Nil(t, o.ExpectedDeliveryDate)
	assert.Equal(t, "25.00", o.TotalAmount.StringFixed(2))
}

func TestOrderGetByID_JoinsSupplierAndItems(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	expected := ts.AddDate(0, 0, 7)

	mock.ExpectQuery(q("LEFT JOIN suppliers s")).WithArgs("o-1").WillReturnRows(joinedOrderRows().
		AddRow("o-1", "ORD-1-AAAAA", "s-1", "confirmed", ts, expected, nil, "rush", "25.00", ts, ts,
			"s-1", "Acme Supply", "sales@acme.test", "", "", ts, ts))
	mock.ExpectQuery(q("FROM order_items i LEFT JOIN products p")).WithArgs("o-1").WillReturnRows(itemRows().
		AddRow("i-1", "o-1", "p-1", 2, "10.00", "20.00", ts, "p-1", "Drill", "DR-1", "39.90").
		AddRow("i-2", "o-1", "p-gone", 1, "5.00", "5.00", ts, nil, nil, nil, nil))

	o, err := r.GetByID(context.Background(), "o-1")
	require.NoError(t, err)
	require.NotNil(t, o.Supplier)
	assert.Equal(t, "Acme Supply", o.Supplier.Name)
	require.NotNil(t, o.ExpectedDeliveryDate)
	assert.True(t, expected.Equal(*o.ExpectedDeliveryDate))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "DR-1", o.Items[0].Product.SKU)
	assert.Nil(t, o.Items[1].Product)
}

func TestOrderList_FiltersSortsAndPages(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM orders o LEFT JOIN suppliers s ON s.id = o.supplier_id WHERE")).
		WithArgs("%acme%", "%acme%", "%acme%", "confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(q("ORDER BY o.total_amount DESC LIMIT ? OFFSET ?")).
		WithArgs("%acme%", "%acme%", "%acme%", "confirmed", 10, 10).
		WillReturnRows(joinedOrderRows().
			AddRow("o-11", "ORD-11-AAAAA", "s-1", "confirmed", ts, nil, nil, "", "1.00", ts, ts,
				"s-1", "Acme Supply", "", "", "", ts, ts))
	mock.ExpectQuery(q("WHERE i.order_id IN (?)")).WithArgs("o-11").WillReturnRows(itemRows())

	out, total, err := r.List(context.Background(), usecase.OrderQuery{
		Search: "acme", Status: "confirmed", SortBy: "total_amount", Desc: true, Page: 2, Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, out, 1)
	assert.NotNil(t, out[0].Items)
	assert.Empty(t, out[0].Items)
}

func TestContainsEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%acme%", contains("acme"))
	assert.Equal(t, `%50\%\_off%`, contains("50%_off"))
	assert.Equal(t, `%a\\b%`, contains(`a\b`))
}

func TestSupplierList_SearchIsLiteral(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLSupplierRepo(db)

	like := `%100\%%`
	mock.ExpectQuery(q("WHERE name LIKE ?")).WithArgs(like, like, like, like).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "address", "created_at", "updated_at"}))

	out, err := r.List(context.Background(), "100%")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOrderUpdateStatusIf(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	ctx := context.Background()

	mock.ExpectExec(q("WHERE id = ? AND status = ?")).
		WithArgs(domain.OrderShipped, nil, "o-1", domain.OrderConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := r.UpdateStatusIf(ctx, "o-1", domain.OrderConfirmed, domain.OrderShipped, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(q("WHERE id = ? AND status = ?")).
		WithArgs(domain.OrderDelivered, ts, "o-1", domain.OrderShipped).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = r.UpdateStatusIf(ctx, "o-1", domain.OrderShipped, domain.OrderDelivered, &ts)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderDelete_NotFound(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)

	mock.ExpectExec(q("DELETE FROM orders")).WithArgs("o-1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, r.Delete(context.Background(), "o-1"), usecase.ErrNotFound)
}

func TestWarrantyGetByID_JoinsProduct(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLWarrantyRepo(db)

	rows := sqlmock.NewRows([]string{
		"id", "product_id", "customer_name", "customer_email", "customer_phone", "purchase_date",
		"warranty_period_months", "expiry_date", "status", "notes", "created_at", "updated_at",
		"p.id", "p.name", "p.sku", "p.selling_price",
	}).AddRow("w-1", "p-1", "Dana Ortiz", "", "", ts, 12, ts.AddDate(1, 0, 0), "active", "", ts, ts,
		"p-1", "Drill", "DR-1", "39.90")
	mock.ExpectQuery(q("FROM warranties w LEFT JOIN products p")).WithArgs("w-1").WillReturnRows(rows)

	w, err := r.GetByID(context.Background(), "w-1")
	require.NoError(t, err)
	assert.Equal(t, domain.WarrantyActive, w.Status)
	assert.Equal(t, 12, w.WarrantyPeriodMonths)
	require.NotNil(t, w.Product)
	assert.Equal(t, "39.90", w.Product.SellingPrice.StringFixed(2))

	mock.ExpectQuery(q("FROM warranties w LEFT JOIN products p")).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestWarrantyList_DefaultOrder(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLWarrantyRepo(db)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM warranties w")).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(q("ORDER BY w.product_id ASC LIMIT ? OFFSET ?")).WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	out, total, err := r.List(context.Background(), usecase.WarrantyQuery{SortBy: "product_id", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, out)
}

func TestSupplierList_Search(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLSupplierRepo(db)

	mock.ExpectQuery(q("WHERE name LIKE ? OR email LIKE ? OR phone LIKE ? OR address LIKE ? ORDER BY name ASC")).
		WithArgs("%acme%", "%acme%", "%acme%", "%acme%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "address", "created_at", "updated_at"}).
			AddRow("s-1", "Acme Supply", "", "", "", ts, ts))

	out, err := r.List(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Acme Supply", out[0].Name)
}

func TestOutbox_RelayStatements(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOutboxRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(q("WHERE status = ? AND next_attempt_at <= NOW(3)")).WithArgs(outboxPending, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "channel", "payload", "retry_count"}).
			AddRow(int64(7), "order.created", []byte(`{"type":"order.created"}`), 0))
	msgs, err := r.FetchPending(ctx, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(7), msgs[0].ID)

	mock.ExpectExec(q("UPDATE outbox SET status = ?")).WithArgs(outboxSent, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.MarkSent(ctx, 7))

	mock.ExpectExec(q("retry_count = retry_count + 1")).WithArgs(outboxDead, ts, "nack", int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.MarkFailed(ctx, 8, "nack", ts, true))
}
