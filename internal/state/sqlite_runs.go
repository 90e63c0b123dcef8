package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/fieldlineage/internal/lineage"
)

const runColumns = `id, sql_text, db_type, success, error, tables, dependencies, created_at`

// SaveRun records result and returns the stored run.
func (s *Store) SaveRun(ctx context.Context, result *lineage.LineageResult) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:                generateID(),
		SQL:               result.SQL,
		DBType:            result.DBType,
		Success:           result.Success,
		Error:             result.Error,
		Tables:            result.Tables,
		FieldDependencies: result.FieldDependencies,
		CreatedAt:         time.Now().UTC(),
	}

	tables, err := json.Marshal(run.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tables: %w", err)
	}
	deps, err := json.Marshal(run.FieldDependencies)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dependencies: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SQL, run.DBType, run.Success, nullString(run.Error),
		string(tables), string(deps), run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Debug("saved run", slog.String("id", run.ID), slog.Bool("success", run.Success))
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	s.logger.Debug("deleted run", slog.String("id", id))
	return nil
}

// Prune deletes all but the keep most recent runs and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE seq NOT IN (SELECT seq FROM runs ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	s.logger.Debug("pruned runs", slog.Int64("removed", n), slog.Int("kept", keep))
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run       Run
		errMsg    sql.NullString
		tables    string
		deps      string
		createdAt string
	)
	if err := sc.Scan(&run.ID, &run.SQL, &run.DBType, &run.Success, &errMsg, &tables, &deps, &createdAt); err != nil {
		return nil, err
	}
	run.Error = errMsg.String

	if err := json.Unmarshal([]byte(tables), &run.Tables); err != nil {
		return nil, fmt.Errorf("failed to decode tables of run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(deps), &run.FieldDependencies); err != nil {
		return nil, fmt.Errorf("failed to decode dependencies of run %s: %w", run.ID, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at of run %s: %w", run.ID, err)
	}
	run.CreatedAt = ts
	return &run, nil
}

// nullString returns a sql.NullString for optional string fields.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
