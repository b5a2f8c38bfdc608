package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vietddude/ara/internal/core/domain"
)

// HistoryRepo implements history.Store using PostgreSQL.
type HistoryRepo struct {
	db *DB
}

// NewHistoryRepo creates a new PostgreSQL run history repository.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

type runRow struct {
	ID                  string    `db:"id"`
	Timestamp           time.Time `db:"ts"`
	Domains             []byte    `db:"domains"`
	KeyFindingsCount    int       `db:"key_findings_count"`
	ConfidenceAggregate float64   `db:"confidence_aggregate"`
}

func (r runRow) toEntry() (domain.RunHistoryEntry, error) {
	entry := domain.RunHistoryEntry{
		ID:                  r.ID,
		Timestamp:           r.Timestamp,
		KeyFindingsCount:    r.KeyFindingsCount,
		ConfidenceAggregate: r.ConfidenceAggregate,
	}
	if len(r.Domains) > 0 {
		if err := json.Unmarshal(r.Domains, &entry.Domains); err != nil {
			return entry, fmt.Errorf("failed to decode domains for run %s: %w", r.ID, err)
		}
	}
	return entry, nil
}

// Record saves a completed run summary.
func (r *HistoryRepo) Record(ctx context.Context, entry domain.RunHistoryEntry) error {
	domains, err := json.Marshal(entry.Domains)
	if err != nil {
		return fmt.Errorf("failed to encode domains: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO research_runs (id, ts, domains, key_findings_count, confidence_aggregate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.Timestamp, domains, entry.KeyFindingsCount, entry.ConfidenceAggregate,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Latest returns the most recent run, or (nil, nil) when none exist.
func (r *HistoryRepo) Latest(ctx context.Context) (*domain.RunHistoryEntry, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, ts, domains, key_findings_count, confidence_aggregate
		FROM research_runs
		ORDER BY ts DESC
		LIMIT 1`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	entry, err := row.toEntry()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Recent returns up to limit runs, newest first. limit <= 0 means all.
func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]domain.RunHistoryEntry, error) {
	query := `
		SELECT id, ts, domains, key_findings_count, confidence_aggregate
		FROM research_runs
		ORDER BY ts DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	entries := make([]domain.RunHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
