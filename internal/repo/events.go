package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// DomainEvent is an append-only record of something that happened in the shop.
type DomainEvent struct {
	ID        pgtype.UUID
	Topic     string
	Payload   []byte
	CreatedAt pgtype.Timestamptz
}

// Events gives access to the domain event log.
type Events struct {
	DB DBTX
}

// Insert appends an event.
func (r Events) Insert(ctx context.Context, e DomainEvent) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO domain_events (id, topic, payload, created_at)
		VALUES ($1, $2, $3, now())`,
		e.ID, e.Topic, e.Payload)
	return err
}

// ListRecent returns the newest events, most recent first.
func (r Events) ListRecent(ctx context.Context, topic string, limit int32) ([]DomainEvent, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, topic, payload, created_at
		FROM domain_events
		WHERE ($1 = '' OR topic = $1)
		ORDER BY created_at DESC
		LIMIT $2`, topic, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DomainEvent
	for rows.Next() {
		var e DomainEvent
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
