package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/forexai/pkg/id"
	"github.com/shopspring/decimal"
)

const columns = `id, uid, pair, created_at, recommendation, confidence,
	entry_price, target_price, stop_loss, status, outcome, profit,
	risk_reward, patterns, image, depth`

type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordAnalysis inserts r, assigning an id when it has none.
func (j *SQLite) RecordAnalysis(ctx context.Context, r Record) error {
	if r.ID == "" {
		r.ID = id.NewAt(r.Time)
	}
	patterns, err := json.Marshal(r.Patterns)
	if err != nil {
		return err
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO analyses (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UID, r.Pair, r.Time.UTC(), r.Recommendation, r.Confidence,
		r.Entry, r.Target, r.Stop, string(r.Status), string(r.Outcome), r.Profit.String(),
		r.RiskReward, string(patterns), r.Image, r.Depth,
	)
	if err != nil {
		return fmt.Errorf("record analysis %s: %w", r.ID, err)
	}
	return nil
}

func (j *SQLite) Get(ctx context.Context, analysisID string) (Record, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+columns+` FROM analyses WHERE id = ?`, analysisID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, analysisID)
	}
	return rec, err
}

func (j *SQLite) Delete(ctx context.Context, analysisID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, analysisID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, analysisID)
	}
	return nil
}

// Count returns the number of stored analyses.
func (j *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n)
	return n, err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec              Record
		status, outcome  string
		profit, patterns string
	)
	err := s.Scan(
		&rec.ID,
		&rec.UID,
		&rec.Pair,
		&rec.Time,
		&rec.Recommendation,
		&rec.Confidence,
		&rec.Entry,
		&rec.Target,
		&rec.Stop,
		&status,
		&outcome,
		&profit,
		&rec.RiskReward,
		&patterns,
		&rec.Image,
		&rec.Depth,
	)
	if err != nil {
		return Record{}, err
	}

	rec.Status = Status(status)
	rec.Outcome = Outcome(outcome)
	if rec.Profit, err = decimal.NewFromString(profit); err != nil {
		return Record{}, fmt.Errorf("analysis %s profit %q: %w", rec.ID, profit, err)
	}
	if err := json.Unmarshal([]byte(patterns), &rec.Patterns); err != nil {
		return Record{}, fmt.Errorf("analysis %s patterns: %w", rec.ID, err)
	}
	return rec, nil
}
