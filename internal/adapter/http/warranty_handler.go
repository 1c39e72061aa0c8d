package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type WarrantyService interface {
	RegisterWarranty(ctx context.Context, in usecase.RegisterWarrantyInput) (*domain.Warranty, error)
	RegisterPayment(ctx context.Context, warrantyID string, in usecase.PaymentInput) (*domain.WarrantyPayment, error)
	RegisterWithPayment(ctx context.Context, w usecase.RegisterWarrantyInput, pay usecase.PaymentInput) (*usecase.Registration, error)
	Get(ctx context.Context, id string) (*domain.Warranty, error)
	List(ctx context.Context, q usecase.WarrantyQuery) ([]domain.Warranty, int, error)
	Update(ctx context.Context, id string, p usecase.WarrantyPatch) (*domain.Warranty, error)
	Delete(ctx context.Context, id string) error
}

type WarrantyHandler struct {
	warranties WarrantyService
}

func NewWarrantyHandler(warranties WarrantyService) *WarrantyHandler {
	return &WarrantyHandler{warranties: warranties}
}

// expiry_date is derived and never read from the request.
type registerWarrantyReq struct {
	ProductID            string  `json:"product_id"`
	CustomerName         string  `json:"customer_name"`
	CustomerEmail        string  `json:"customer_email"`
	CustomerPhone        string  `json:"customer_phone"`
	PurchaseDate         *string `json:"purchase_date"`
	WarrantyPeriodMonths int     `json:"warranty_period_months"`
	Notes                string  `json:"notes"`
}

type paymentReq struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
}

type registerWithPaymentReq struct {
	Warranty registerWarrantyReq `json:"warranty"`
	Payment  paymentReq          `json:"payment"`
}

type updateWarrantyReq struct {
	ProductID            *string `json:"product_id"`
	CustomerName         *string `json:"customer_name"`
	CustomerEmail        *string `json:"customer_email"`
	CustomerPhone        *string `json:"customer_phone"`
	PurchaseDate         *string `json:"purchase_date"`
	WarrantyPeriodMonths *int    `json:"warranty_period_months"`
	Status               *string `json:"status"`
	Notes                *string `json:"notes"`
}

func (r registerWarrantyReq) input() (usecase.RegisterWarrantyInput, error) {
	purchase, err := parseDate("purchase_date", r.PurchaseDate)
	if err != nil {
		return usecase.RegisterWarrantyInput{}, err
	}
	return usecase.RegisterWarrantyInput{
		ProductID:     r.ProductID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		PurchaseDate:  purchase,
		PeriodMonths:  r.WarrantyPeriodMonths,
		Notes:         r.Notes,
	}, nil
}

func (r paymentReq) input() usecase.PaymentInput {
	return usecase.PaymentInput{
		Amount:        r.Amount,
		Method:        r.PaymentMethod,
		TransactionID: r.TransactionID,
		Status:        r.Status,
	}
}

// GET /v1/warranties
func (h *WarrantyHandler) ListWarranties(c *gin.Context) {
	q := usecase.WarrantyQuery{
		Search:    strings.TrimSpace(c.Query("search")),
		ProductID: c.Query("productId"),
		Status:    c.Query("status"),
		SortBy:    c.Query("sortBy"),
		Desc:      strings.EqualFold(c.Query("order"), "desc"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	}
	out, total, err := h.warranties.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err, "Warranty not found", "Failed to fetch warranties")
		return
	}
	page, limit := usecase.PageBounds(q.Page, q.Limit)
	okList(c, out, total, page, limit)
}

// POST /v1/warranties
func (h *WarrantyHandler) RegisterWarranty(c *gin.Context) {
	var req registerWarrantyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(c, err, "", "")
		return
	}
	w, err := h.warranties.RegisterWarranty(c.Request.Context(), in)
	if err != nil {
		writeError(c, err, "Product not found", "Failed to register warranty")
		return
	}
	ok(c, http.StatusOK, w, "Warranty registered successfully")
}

// POST /v1/warranties/register runs both phases in one call.
func (h *WarrantyHandler) RegisterWithPayment(c *gin.Context) {
	var req registerWithPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	in, err := req.Warranty.input()
	if err != nil {
		writeError(c, err, "", "")
		return
	}
	reg, err := h.warranties.RegisterWithPayment(c.Request.Context(), in, req.Payment.input())
	if err != nil {
		writeError(c, err, "Product not found", "Failed to register warranty")
		return
	}
	ok(c, http.StatusOK, reg, "Warranty and payment registered successfully")
}

// POST /v1/warranties/:id/payments
func (h *WarrantyHandler) RegisterPayment(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	p, err := h.warranties.RegisterPayment(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		writeError(c, err, "Warranty not found", "Failed to register payment")
		return
	}
	ok(c, http.StatusOK, p, "Payment registered successfully")
}

// GET /v1/warranties/:id
func (h *WarrantyHandler) GetWarranty(c *gin.Context) {
	w, err := h.warranties.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Warranty not found", "Failed to fetch warranty")
		return
	}
	ok(c, http.StatusOK, w, "")
}

// PUT /v1/warranties/:id
func (h *WarrantyHandler) UpdateWarranty(c *gin.Context) {
	var req updateWarrantyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	purchase, err := parseDate("purchase_date", req.PurchaseDate)
	if err != nil {
		writeError(c, err, "", "")
		return
	}
	w, err := h.warranties.Update(c.Request.Context(), c.Param("id"), usecase.WarrantyPatch{
		ProductID:     req.ProductID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		PurchaseDate:  purchase,
		PeriodMonths:  req.WarrantyPeriodMonths,
		Status:        req.Status,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(c, err, "Warranty not found", "Failed to update warranty")
		return
	}
	ok(c, http.StatusOK, w, "Warranty updated successfully")
}

// DELETE /v1/warranties/:id
func (h *WarrantyHandler) DeleteWarranty(c *gin.Context) {
	if err := h.warranties.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Warranty not found", "Failed to delete warranty")
		return
	}
	ok(c, http.StatusOK, nil, "Warranty deleted successfully")
}
