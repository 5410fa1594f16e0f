package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rtmpl/internal/report"
)

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is a run without its entries.
type RunSummary struct {
	ID             string `json:"id"`
	Seq            int64  `json:"seq"`
	Source         string `json:"source"`
	CollectionHash string `json:"collection_hash"`
	ReportHash     string `json:"report_hash"`
	MaxDepth       int    `json:"max_depth"`
	Entries        int    `json:"entries"`
	Issues         int    `json:"issues"`
}

// ListRuns returns every archived run ordered by seq ascending.
// Returns an empty slice (not nil) if the archive is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seq, r.source, r.collection_hash, r.report_hash, r.max_depth,
		       COUNT(e.key),
		       COALESCE(SUM(CASE
		           WHEN e.unreplaced != '[]' OR e.impasse != '[]' OR e.reached_max_recursion = 1
		           THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN run_entries e ON e.run_id = r.id
		GROUP BY r.seq
		ORDER BY r.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.ID, &rs.Seq, &rs.Source, &rs.CollectionHash, &rs.ReportHash, &rs.MaxDepth, &rs.Entries, &rs.Issues); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ReadRun returns the run with the given id and all of its entries in
// their original order. Returns ErrRunNotFound if the id is unknown.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{ID: id, Report: &report.Report{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT seq, source, collection_hash, report_hash, max_depth
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.Seq, &run.Source, &run.Report.CollectionHash, &run.ReportHash, &run.Report.MaxDepth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}

	entries, err := s.readEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	run.Report.Entries = entries

	return run, nil
}

// FindRunsByCollection returns the ids of runs over the collection with the
// given hash, ordered by seq.
func (s *Store) FindRunsByCollection(ctx context.Context, collectionHash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE collection_hash = ?
		ORDER BY seq ASC
	`, collectionHash)
	if err != nil {
		return nil, fmt.Errorf("query runs by collection: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}
	return ids, nil
}

func (s *Store) readEntries(ctx context.Context, runID string) ([]report.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, unreplaced, impasse, reached_max_recursion
		FROM run_entries
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []report.Entry{}
	for rows.Next() {
		var (
			e          report.Entry
			unreplaced string
			impasse    string
			reachedMax int
		)
		if err := rows.Scan(&e.Key, &e.Value, &unreplaced, &impasse, &reachedMax); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Unreplaced, err = unmarshalNames(unreplaced); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Key, err)
		}
		if e.Impasse, err = unmarshalNames(impasse); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Key, err)
		}
		e.ReachedMaxRecursion = reachedMax != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}
