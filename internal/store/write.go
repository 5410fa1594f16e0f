package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/rtmpl/internal/report"
)

// Run is one archived resolution.
type Run struct {
	// ID uniquely identifies the run.
	ID string

	// Seq is the insertion sequence, assigned by the store.
	Seq int64

	// Source describes where the collection came from (usually a path).
	Source string

	// ReportHash is the content hash of Report.
	ReportHash string

	// Report is the resolved collection.
	Report *report.Report
}

// WriteRun inserts a run and all of its entries in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same run
// id twice is silently ignored. Returns the stored seq.
func (s *Store) WriteRun(ctx context.Context, run Run) (int64, error) {
	if run.ID == "" {
		return 0, fmt.Errorf("write run: id is required")
	}
	if run.Report == nil {
		return 0, fmt.Errorf("write run: report is required")
	}

	reportHash := run.ReportHash
	if reportHash == "" {
		h, err := run.Report.Hash()
		if err != nil {
			return 0, fmt.Errorf("write run: %w", err)
		}
		reportHash = h
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, collection_hash, report_hash, max_depth)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Source,
		run.Report.CollectionHash,
		reportHash,
		run.Report.MaxDepth,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("write run: rows affected: %w", err)
	}

	if rows > 0 {
		for i, e := range run.Report.Entries {
			if err := writeEntry(ctx, tx, run.ID, i, e); err != nil {
				return 0, fmt.Errorf("write run: %w", err)
			}
		}
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT seq FROM runs WHERE id = ?", run.ID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run: read seq: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run: commit: %w", err)
	}

	return seq, nil
}

func writeEntry(ctx context.Context, tx *sql.Tx, runID string, ordinal int, e report.Entry) error {
	unreplaced, err := marshalNames(e.Unreplaced)
	if err != nil {
		return fmt.Errorf("entry %q: %w", e.Key, err)
	}
	impasse, err := marshalNames(e.Impasse)
	if err != nil {
		return fmt.Errorf("entry %q: %w", e.Key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO run_entries
		(run_id, ordinal, key, value, unreplaced, impasse, reached_max_recursion)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		ordinal,
		e.Key,
		e.Value,
		unreplaced,
		impasse,
		boolToInt(e.ReachedMaxRecursion),
	)
	if err != nil {
		return fmt.Errorf("entry %q: %w", e.Key, err)
	}
	return nil
}
