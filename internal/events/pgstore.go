package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists events to the domain_events table.
type PGStore struct {
	Pool *pgxpool.Pool
}

// InsertEvent appends an event row and returns it with its assigned id.
func (s *PGStore) InsertEvent(ctx context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	if s == nil || s.Pool == nil {
		return Event{}, fmt.Errorf("events: pg store not configured")
	}
	var ev Event
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO domain_events (topic, aggregate_id, payload)
		 VALUES ($1, $2, $3)
		 RETURNING id, topic, aggregate_id, payload, occurred_at`,
		topic, aggregateID, payload,
	).Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	if err != nil {
		return Event{}, fmt.Errorf("events: insert event: %w", err)
	}
	return ev, nil
}
