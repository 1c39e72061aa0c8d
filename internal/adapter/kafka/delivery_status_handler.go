package kafka

import (
	"context"
	"errors"
	"time"

	domain "github.com/aq2208/stockroom-api/internal/entity"
	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/aq2208/stockroom-api/internal/usecase"
)

type DeliveryUpdater interface {
	ApplyDeliveryUpdate(ctx context.Context, orderID string, to domain.OrderStatus, at time.Time) (bool, error)
}

// DeliveryStatusHandler applies supplier logistics updates to orders.
type DeliveryStatusHandler struct {
	orders DeliveryUpdater
	now    func() time.Time
}

func NewDeliveryStatusHandler(orders DeliveryUpdater) *DeliveryStatusHandler {
	return &DeliveryStatusHandler{orders: orders, now: time.Now}
}

func (h *DeliveryStatusHandler) Handle(ctx context.Context, ev usecase.DeliveryStatusMsg) error {
	l := logging.FromCtx(ctx).With("order_id", ev.OrderID, "status", ev.Status)

	// Map external status -> internal
	var to domain.OrderStatus
	switch ev.Status {
	case "SHIPPED":
		to = domain.OrderShipped
	case "DELIVERED":
		to = domain.OrderDelivered
	default:
		l.Warn("ignoring unknown delivery status")
		return nil
	}
	if ev.OrderID == "" {
		l.Warn("ignoring delivery update without order id")
		return nil
	}

	at := h.now().UTC()
	if ev.OccurredAt != nil {
		at = ev.OccurredAt.UTC()
	}

	applied, err := h.orders.ApplyDeliveryUpdate(ctx, ev.OrderID, to, at)
	if errors.Is(err, usecase.ErrValidation) {
		l.Warn("rejected delivery update", "err", err)
		return nil
	}
	if err != nil {
		return err
	}
	if !applied {
		l.Info("delivery update skipped, order not in preceding state")
	}
	return nil
}
