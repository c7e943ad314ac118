package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Run is one row of the ledger.
type Run struct {
	RunID        string    `json:"run_id"`
	Status       Status    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	AssetsDir    string    `json:"assets_dir"`
	ArchiveDir   string    `json:"archive_dir,omitempty"`
	ReportPath   string    `json:"report_path,omitempty"`
	Assets       int       `json:"assets"`
	Skipped      int       `json:"skipped"`
	ErrorMessage string    `json:"error,omitempty"`

	Variants []VariantTotals `json:"variants,omitempty"`
}

// Result is one asset of one variant.
type Result struct {
	Variant        string `json:"variant"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Tool           string `json:"tool"`
	OriginalBytes  int64  `json:"original_bytes"`
	OptimizedBytes int64  `json:"optimized_bytes"`
	OutputPath     string `json:"output_path,omitempty"`
}

// VariantTotals sums the results of one variant of a run.
type VariantTotals struct {
	Variant        string `json:"variant"`
	Assets         int    `json:"assets"`
	OriginalBytes  int64  `json:"original_bytes"`
	OptimizedBytes int64  `json:"optimized_bytes"`
}

const runColumns = "run_id, status, started_at, finished_at, assets_dir, archive_dir, report_path, assets, skipped, error_message"

// RecordRun inserts run and its results in a single transaction. A run id
// may only be recorded once.
func (s *Store) RecordRun(ctx context.Context, run Run, results []Result) error {
	if run.RunID == "" {
		return errors.New("run id is required")
	}
	if run.Status == "" {
		run.Status = StatusCompleted
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID,
			string(run.Status),
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			nullableTime(run.FinishedAt),
			run.AssetsDir,
			nullableString(run.ArchiveDir),
			nullableString(run.ReportPath),
			run.Assets,
			run.Skipped,
			nullableString(run.ErrorMessage),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO results (run_id, variant, name, category, tool, original_bytes, optimized_bytes, output_path)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare result insert: %w", err)
		}
		defer stmt.Close()
		for _, result := range results {
			if _, err := stmt.ExecContext(ctx,
				run.RunID,
				result.Variant,
				result.Name,
				result.Category,
				result.Tool,
				result.OriginalBytes,
				result.OptimizedBytes,
				nullableString(result.OutputPath),
			); err != nil {
				return fmt.Errorf("insert result %s/%s: %w", result.Variant, result.Name, err)
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	for i := range runs {
		totals, err := s.variantTotals(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Variants = totals
	}
	return runs, nil
}

// GetRun fetches a run by id. It returns nil without error when the id is
// unknown.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	totals, err := s.variantTotals(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Variants = totals
	return &run, nil
}

// Results lists the recorded results of a run in insertion order.
func (s *Store) Results(ctx context.Context, runID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variant, name, category, tool, original_bytes, optimized_bytes, output_path
         FROM results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			result Result
			output sql.NullString
		)
		if err := rows.Scan(&result.Variant, &result.Name, &result.Category, &result.Tool,
			&result.OriginalBytes, &result.OptimizedBytes, &output); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		result.OutputPath = output.String
		results = append(results, result)
	}
	return results, rows.Err()
}

func (s *Store) variantTotals(ctx context.Context, runID string) ([]VariantTotals, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variant, COUNT(1), COALESCE(SUM(original_bytes), 0), COALESCE(SUM(optimized_bytes), 0)
         FROM results WHERE run_id = ? GROUP BY variant ORDER BY MIN(id)`, runID)
	if err != nil {
		return nil, fmt.Errorf("variant totals: %w", err)
	}
	defer rows.Close()

	var totals []VariantTotals
	for rows.Next() {
		var v VariantTotals
		if err := rows.Scan(&v.Variant, &v.Assets, &v.OriginalBytes, &v.OptimizedBytes); err != nil {
			return nil, fmt.Errorf("scan variant totals: %w", err)
		}
		totals = append(totals, v)
	}
	return totals, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		status      string
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		archiveDir  sql.NullString
		reportPath  sql.NullString
		errorMsg    sql.NullString
	)
	if err := scanner.Scan(
		&run.RunID,
		&status,
		&startedRaw,
		&finishedRaw,
		&run.AssetsDir,
		&archiveDir,
		&reportPath,
		&run.Assets,
		&run.Skipped,
		&errorMsg,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	run.ArchiveDir = archiveDir.String
	run.ReportPath = reportPath.String
	run.ErrorMessage = errorMsg.String
	return run, nil
}
