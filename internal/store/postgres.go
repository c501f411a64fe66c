// Package store persists regime snapshots to Postgres for later audit and
// reflection. Writes are best-effort: the decision path never blocks on a
// storage failure.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/tradestack/regime/models"
)

// Postgres implements models.SnapshotStore.
type Postgres struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects, pings, and ensures the snapshot table exists.
func Open(dsn string, log zerolog.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS regime_snapshots (
			taken_at   TIMESTAMPTZ PRIMARY KEY,
			trend      TEXT        NOT NULL,
			divergence BOOLEAN     NOT NULL,
			snapshot   JSONB       NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot table: %w", err)
	}

	return &Postgres{
		db:  db,
		log: log.With().Str("component", "store").Logger(),
	}, nil
}

// SaveSnapshot inserts one cycle snapshot keyed by its timestamp. A replayed
// timestamp upserts, snapshots are immutable so the payload is identical.
func (p *Postgres) SaveSnapshot(ctx context.Context, snap *models.RegimeSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO regime_snapshots (taken_at, trend, divergence, snapshot)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (taken_at) DO UPDATE SET snapshot = EXCLUDED.snapshot
	`, snap.Timestamp, string(snap.TrendRange.Classification), snap.HasDivergence(), payload)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	p.log.Debug().Time("taken_at", snap.Timestamp).Msg("Snapshot persisted")
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
