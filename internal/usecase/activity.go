package usecase

import (
	"context"
	"time"
)

const defaultActivityLimit = 20

// Activity is one line of the dashboard's recent-activity feed.
type Activity struct {
	Type      string    `json:"type"`
	EntityID  string    `json:"entity_id"`
	Reference string    `json:"reference"`
	Status    string    `json:"status,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	At        time.Time `json:"at"`
}

type RecentActivity struct {
	feed ActivityFeed
}

func NewRecentActivity(feed ActivityFeed) *RecentActivity {
	return &RecentActivity{feed: feed}
}

// Record appends a published domain event to the feed.
func (r *RecentActivity) Record(ctx context.Context, ev DomainEvent) error {
	return r.feed.Push(ctx, Activity{
		Type:      ev.Type,
		EntityID:  ev.EntityID,
		Reference: ev.Reference,
		Status:    ev.Status,
		Amount:    ev.Amount,
		At:        ev.OccurredAt,
	})
}

func (r *RecentActivity) Recent(ctx context.Context, n int) ([]Activity, error) {
	if n <= 0 || n > maxLimit {
		n = defaultActivityLimit
	}
	return r.feed.Recent(ctx, n)
}
