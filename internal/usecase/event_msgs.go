package usecase

import (
	"encoding/json"
	"time"
)

// Outbox channels double as AMQP routing keys.
const (
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderDeleted       = "order.deleted"
	EventWarrantyRegistered = "warranty.registered"
	EventWarrantyUpdated    = "warranty.updated"
	EventWarrantyDeleted    = "warranty.deleted"
	EventPaymentRegistered  = "warranty.payment_registered"
)

// DomainEvent is the payload stored in the outbox and published to RabbitMQ.
type DomainEvent struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	Reference  string    `json:"reference"`
	Status     string    `json:"status,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e DomainEvent) outbox() (OutboxEvent, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return OutboxEvent{}, err
	}
	return OutboxEvent{Channel: e.Type, Payload: b}, nil
}

// Sent by suppliers' logistics integration on Kafka.
type DeliveryStatusMsg struct {
	OrderID    string     `json:"orderId"`
	Status     string     `json:"status"` // SHIPPED | DELIVERED
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}
