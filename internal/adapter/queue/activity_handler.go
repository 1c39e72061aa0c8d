package queue

import (
	"context"

	"github.com/aq2208/stockroom-api/internal/usecase"
)

// NewActivityHandler feeds every published domain event into the recent
// activity list.
func NewActivityHandler(ra *usecase.RecentActivity) Handler {
	return JSONHandler[usecase.DomainEvent]{
		HandleFunc: func(ctx context.Context, ev usecase.DomainEvent) error {
			if ev.Type == "" {
				return ErrMalformed
			}
			return ra.Record(ctx, ev)
		},
	}
}
