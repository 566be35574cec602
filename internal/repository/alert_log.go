package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/internal/domain/repository"
)

// AlertSchema is the DDL for the alert log table, applied at startup.
const AlertSchema = `
CREATE TABLE IF NOT EXISTS swarm_alerts (
    ts            DateTime,
    subject       String,
    tier          LowCardinality(String),
    composite     Float64,
    confirmations UInt8,
    entry_price   Float64,
    cycle_id      String
) ENGINE = MergeTree()
ORDER BY (subject, ts)
TTL ts + INTERVAL 180 DAY
`

// ClickHouseAlertLog is the append-only alert log. Rows are never
// updated or deleted by the application; retention is the table's TTL.
type ClickHouseAlertLog struct {
	db    *sql.DB
	table string
}

func NewClickHouseAlertLog(db *sql.DB, table string) repository.AlertLog {
	if table == "" {
		table = "swarm_alerts"
	}
	return &ClickHouseAlertLog{db: db, table: table}
}

func (l *ClickHouseAlertLog) Append(ctx context.Context, alerts []models.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}

	values := make([]string, 0, len(alerts))
	args := make([]interface{}, 0, len(alerts)*7)
	for _, a := range alerts {
		if a.Subject == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			a.Timestamp,
			a.Subject,
			a.Tier,
			a.Composite,
			uint8(a.Confirmations),
			a.EntryPrice,
			a.CycleID,
		)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (ts, subject, tier, composite, confirmations, entry_price, cycle_id) VALUES %s",
		l.table, strings.Join(values, ","),
	)
	if _, err := l.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("append alerts: %w", err)
	}
	return nil
}

func (l *ClickHouseAlertLog) ListSince(ctx context.Context, since time.Time, minComposite float64) ([]models.AlertRecord, error) {
	q := fmt.Sprintf(
		"SELECT ts, subject, tier, composite, confirmations, entry_price, cycle_id FROM %s WHERE ts >= ? AND composite >= ? ORDER BY ts ASC",
		l.table,
	)
	rows, err := l.db.QueryContext(ctx, q, since, minComposite)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.AlertRecord
	for rows.Next() {
		var a models.AlertRecord
		var confirmations uint8
		if err := rows.Scan(&a.Timestamp, &a.Subject, &a.Tier, &a.Composite, &confirmations, &a.EntryPrice, &a.CycleID); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Confirmations = int(confirmations)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (l *ClickHouseAlertLog) Health(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *ClickHouseAlertLog) Close() error {
	return nil // pool owned by pkg/clickhouse
}
