package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type SupplierService interface {
	List(ctx context.Context, search string) ([]domain.Supplier, error)
	Create(ctx context.Context, in usecase.SupplierInput) (*domain.Supplier, error)
}

type SupplierHandler struct {
	suppliers SupplierService
}

func NewSupplierHandler(suppliers SupplierService) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

type createSupplierReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	out, err := h.suppliers.List(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		writeError(c, err, "Supplier not found", "Failed to fetch suppliers")
		return
	}
	ok(c, http.StatusOK, out, "")
}

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req createSupplierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	s, err := h.suppliers.Create(c.Request.Context(), usecase.SupplierInput(req))
	if err != nil {
		writeError(c, err, "Supplier not found", "Failed to create supplier")
		return
	}
	ok(c, http.StatusCreated, s, "Supplier created successfully")
}
