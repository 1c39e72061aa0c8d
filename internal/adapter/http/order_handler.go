package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/aq2208/stockroom-api/internal/adapter/http/middleware"
	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type OrderService interface {
	Create(ctx context.Context, in usecase.CreateOrderInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, q usecase.OrderQuery) ([]domain.Order, int, error)
	Update(ctx context.Context, id string, in usecase.UpdateOrderInput) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
}

type OrderHandler struct {
	orders OrderService
}

func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type itemReq struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createOrderReq struct {
	SupplierID           string    `json:"supplier_id"`
	Status               string    `json:"status"`
	OrderDate            *string   `json:"order_date"`
	ExpectedDeliveryDate *string   `json:"expected_delivery_date"`
	Notes                string    `json:"notes"`
	Items                []itemReq `json:"items"`
}

// Read-only columns (id, order_number, total_amount, timestamps) are not
// bindable and are dropped silently. So is "items": the replacement set travels
// as newItems.
type updateOrderReq struct {
	SupplierID           *string    `json:"supplier_id"`
	Status               *string    `json:"status"`
	OrderDate            *string    `json:"order_date"`
	ExpectedDeliveryDate *string    `json:"expected_delivery_date"`
	ActualDeliveryDate   *string    `json:"actual_delivery_date"`
	Notes                *string    `json:"notes"`
	NewItems             *[]itemReq `json:"newItems"`
}

func toItemInputs(items []itemReq) []usecase.ItemInput {
	out := make([]usecase.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, usecase.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return out
}

// GET /v1/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	q := usecase.OrderQuery{
		Search:     strings.TrimSpace(c.Query("search")),
		SupplierID: c.Query("supplierId"),
		Status:     c.Query("status"),
		SortBy:     c.Query("sortBy"),
		Desc:       !strings.EqualFold(c.DefaultQuery("order", "desc"), "asc"),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	}
	orders, total, err := h.orders.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err, "Order not found", "Failed to fetch orders")
		return
	}
	page, limit := usecase.PageBounds(q.Page, q.Limit)
	okList(c, orders, total, page, limit)
}

// POST /v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	orderDate, err := parseDate("order_date", req.OrderDate)
	if err != nil {
		writeError(c, err, "", "")
		return
	}
	expected, err := parseDate("expected_delivery_date", req.ExpectedDeliveryDate)
	if err != nil {
		writeError(c, err, "", "")
		return
	}

	o, err := h.orders.Create(c.Request.Context(), usecase.CreateOrderInput{
		SupplierID:           req.SupplierID,
		Status:               req.Status,
		OrderDate:            orderDate,
		ExpectedDeliveryDate: expected,
		Notes:                req.Notes,
		Items:                toItemInputs(req.Items),
		IdempotencyScope:     middleware.Subject(c),
		IdempotencyKey:       c.GetHeader("X-Idempotency-Key"), // prevent duplicated requests
	})
	if err != nil {
		writeError(c, err, "Supplier not found", "Failed to create order")
		return
	}
	middleware.RecordOrderWrite("create")
	ok(c, http.StatusOK, o, "Order created successfully")
}

// GET /v1/orders/:id
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Order not found", "Failed to fetch order")
		return
	}
	ok(c, http.StatusOK, o, "")
}

// PUT /v1/orders/:id
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req updateOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	patch := usecase.OrderPatch{
		SupplierID: req.SupplierID,
		Status:     req.Status,
		Notes:      req.Notes,
	}
	var err error
	if patch.OrderDate, err = parseDate("order_date", req.OrderDate); err != nil {
		writeError(c, err, "", "")
		return
	}
	if patch.ExpectedDeliveryDate, err = parseDate("expected_delivery_date", req.ExpectedDeliveryDate); err != nil {
		writeError(c, err, "", "")
		return
	}
	if patch.ActualDeliveryDate, err = parseDate("actual_delivery_date", req.ActualDeliveryDate); err != nil {
		writeError(c, err, "", "")
		return
	}
	in := usecase.UpdateOrderInput{Patch: patch}
	if req.NewItems != nil {
		in.NewItems = toItemInputs(*req.NewItems)
	}

	o, err := h.orders.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err, "Order not found", "Failed to update order")
		return
	}
	middleware.RecordOrderWrite("update")
	ok(c, http.StatusOK, o, "Order updated successfully")
}

// DELETE /v1/orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Order not found", "Failed to delete order")
		return
	}
	middleware.RecordOrderWrite("delete")
	ok(c, http.StatusOK, nil, "Order deleted successfully")
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
