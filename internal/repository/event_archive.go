package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/domain/repository"
)

// EventSchema is the DDL for the admitted event archive, applied at
// startup.
const EventSchema = `
CREATE TABLE IF NOT EXISTS swarm_events (
    ts       DateTime,
    id       String,
    entity   String,
    subject  String,
    kind     LowCardinality(String),
    amount   Float64,
    label    String,
    cycle_id String
) ENGINE = MergeTree()
ORDER BY (subject, ts)
TTL ts + INTERVAL 90 DAY
`

// ClickHouseEventArchive stores every event the ledger admits so past
// cycles can be replayed offline.
type ClickHouseEventArchive struct {
	db    *sql.DB
	table string
}

func NewClickHouseEventArchive(db *sql.DB, table string) repository.EventArchive {
	if table == "" {
		table = "swarm_events"
	}
	return &ClickHouseEventArchive{db: db, table: table}
}

func (a *ClickHouseEventArchive) Archive(ctx context.Context, cycleID string, events []models.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*8)
	for _, ev := range events {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			ev.Timestamp,
			ev.ID,
			ev.Entity,
			ev.Subject,
			string(ev.Kind),
			ev.Amount,
			ev.Label,
			cycleID,
		)
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (ts, id, entity, subject, kind, amount, label, cycle_id) VALUES %s",
		a.table, strings.Join(values, ","),
	)
	if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("archive events: %w", err)
	}
	return nil
}
