// Copyright 2024-2026 Aiku AI

package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schema string

// Postgres is the pgx-backed Store implementation.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects to the database, verifies the connection and applies
// the schema.
func NewPostgres(ctx context.Context, databaseURL string, log zerolog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Debug().Str("component", "store").Msg("Database ready, schema applied")
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Record(ctx context.Context, originalID, messageID, channelID string) error {
	original, err := parseSnowflake(originalID)
	if err != nil {
		return err
	}
	message, err := parseSnowflake(messageID)
	if err != nil {
		return err
	}
	channel, err := parseSnowflake(channelID)
	if err != nil {
		return err
	}
	// ON CONFLICT upholds the at-most-one-row-per-destination invariant if
	// the same message is ever replayed.
	_, err = p.pool.Exec(ctx,
		`INSERT INTO relayed_message (original_message_id, message_id, channel_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (original_message_id, channel_id) DO NOTHING`,
		original, message, channel)
	if err != nil {
		return fmt.Errorf("insert relayed message: %w", err)
	}
	return nil
}

func (p *Postgres) LookupAll(ctx context.Context, originalID string) ([]Relayed, error) {
	original, err := parseSnowflake(originalID)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx,
		`SELECT message_id, channel_id FROM relayed_message WHERE original_message_id = $1`,
		original)
	if err != nil {
		return nil, fmt.Errorf("query relayed messages: %w", err)
	}
	defer rows.Close()

	var out []Relayed
	for rows.Next() {
		var message, channel int64
		if err := rows.Scan(&message, &channel); err != nil {
			return nil, fmt.Errorf("scan relayed message: %w", err)
		}
		out = append(out, Relayed{
			MessageID: fmt.Sprintf("%d", message),
			ChannelID: fmt.Sprintf("%d", channel),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relayed messages: %w", err)
	}
	return out, nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
