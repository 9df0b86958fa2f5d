package store

import (
	"context"
	"fmt"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/jmoiron/sqlx"
)

// RunStore is the run ledger: one row per capture date.
type RunStore struct {
	db *sqlx.DB
}

const (
	insertRunQuery = `
		INSERT INTO crawl_run (run_date) VALUES (?)
		ON CONFLICT (run_date) DO NOTHING
	`
	getRunByDateQuery    = "SELECT run_id, run_date, note, created_at FROM crawl_run WHERE run_date = ?"
	getRunQuery          = "SELECT run_id, run_date, note, created_at FROM crawl_run WHERE run_id = ?"
	listRunsQuery        = "SELECT run_id, run_date, note, created_at FROM crawl_run ORDER BY run_date ASC"
	annotateRunQuery     = "UPDATE crawl_run SET note = ? WHERE run_id = ?"
	latestRunForTourneyQ = `
		SELECT MAX(r.run_date)
		FROM tournament_team_snapshot s
		JOIN crawl_run r ON r.run_id = s.run_id
		WHERE s.tournament_id = ?
	`
)

func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

// OpenRun returns the run for date, creating it if needed. Calling it again
// for the same date returns the same run.
func (s *RunStore) OpenRun(ctx context.Context, tx *sqlx.Tx, date roster.Date) (*roster.Run, error) {
	if _, err := tx.ExecContext(ctx, s.db.Rebind(insertRunQuery), date); err != nil {
		return nil, fmt.Errorf("failed to insert run for %s: %w", date, err)
	}
	var run roster.Run
	if err := tx.GetContext(ctx, &run, s.db.Rebind(getRunByDateQuery), date); err != nil {
		return nil, fmt.Errorf("failed to load run for %s: %w", date, err)
	}
	return &run, nil
}

// AnnotateRun replaces the free-text note, the only mutable part of a run.
func (s *RunStore) AnnotateRun(ctx context.Context, runID int64, note string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(annotateRunQuery), note, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", runID, roster.ErrNotFound)
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, runID int64) (*roster.Run, error) {
	var run roster.Run
	if err := s.db.GetContext(ctx, &run, s.db.Rebind(getRunQuery), runID); err != nil {
		return nil, notFound(err, "run %d", runID)
	}
	return &run, nil
}

func (s *RunStore) ListRuns(ctx context.Context) ([]roster.Run, error) {
	var runs []roster.Run
	err := s.db.SelectContext(ctx, &runs, listRunsQuery)
	return runs, err
}

// LatestRunDate is the last run that holds any snapshot of the tournament,
// nil when there is none.
func (s *RunStore) LatestRunDate(ctx context.Context, tournamentID int64) (*roster.Date, error) {
	var last *roster.Date
	if err := s.db.QueryRowxContext(ctx, s.db.Rebind(latestRunForTourneyQ), tournamentID).Scan(&last); err != nil {
		return nil, err
	}
	return last, nil
}
