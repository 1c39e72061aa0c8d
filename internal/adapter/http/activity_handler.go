package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/stockroom-api/internal/usecase"
)

type ActivityService interface {
	Recent(ctx context.Context, n int) ([]usecase.Activity, error)
}

type ActivityHandler struct {
	activity ActivityService
}

func NewActivityHandler(activity ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// GET /v1/activity?limit=n
func (h *ActivityHandler) Recent(c *gin.Context) {
	out, err := h.activity.Recent(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err, "", "Failed to fetch recent activity")
		return
	}
	ok(c, http.StatusOK, out, "")
}
