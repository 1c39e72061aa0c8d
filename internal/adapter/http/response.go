package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Page    int    `json:"page,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

func ok(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

func okList(c *gin.Context, data any, total, page, limit int) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Total: &total, Page: page, Limit: limit})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Success: false, Error: msg})
}

// writeError maps use case errors onto status codes. notFound and fallback are
// the user-facing messages for 404 and for storage failures.
func writeError(c *gin.Context, err error, notFound, fallback string) {
	_ = c.Error(err)
	var ve *usecase.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, usecase.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrNotFound):
		fail(c, http.StatusNotFound, notFound)
	case errors.Is(err, usecase.ErrDuplicate), errors.Is(err, usecase.ErrConflict):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrStorage), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logging.From(c).Error(fallback, "err", err)
		fail(c, http.StatusInternalServerError, fallback)
	default:
		logging.From(c).Error(fallback, "err", err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

func badRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, msg)
}

// parseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, &usecase.ValidationError{Field: field, Msg: "Invalid " + field + ": expected YYYY-MM-DD or RFC 3339"}
	}
	t = t.UTC()
	return &t, nil
}
