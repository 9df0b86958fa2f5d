package store

import (
	"context"
	"fmt"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/jmoiron/sqlx"
)

// SnapshotStore holds the append-only per-run observations.
type SnapshotStore struct {
	db *sqlx.DB
}

const (
	insertSnapshotQuery = `
		INSERT INTO tournament_team_snapshot (tournament_id, team_id, run_id, status, rank)
		VALUES (:tournament_id, :team_id, :run_id, :status, :rank)
	`
	countSnapshotsQuery = `
		SELECT COUNT(*) FROM tournament_team_snapshot
		WHERE run_id = ? AND tournament_id = ?
	`
	historyQuery = `
		SELECT s.tournament_id, s.team_id, r.run_date, s.status
		FROM tournament_team_snapshot s
		JOIN crawl_run r ON r.run_id = s.run_id
		WHERE s.tournament_id = ?
		ORDER BY s.team_id ASC, r.run_date ASC
	`
	currentRosterQuery = `
		WITH latest AS (
		  SELECT s.team_id, s.status, s.rank, r.run_date AS as_of,
		         ROW_NUMBER() OVER (PARTITION BY s.team_id ORDER BY r.run_date DESC) AS rn
		  FROM tournament_team_snapshot s
		  JOIN crawl_run r ON r.run_id = s.run_id
		  WHERE s.tournament_id = ?
		)
		SELECT tm.team_id, tm.display_name, tm.country_code,
		       p1.name AS player1_name, p2.name AS player2_name,
		       p1.fivb_player_no AS fivb_player1_no, p2.fivb_player_no AS fivb_player2_no,
		       latest.status, latest.rank, latest.as_of
		FROM latest
		JOIN team tm ON tm.team_id = latest.team_id
		JOIN player p1 ON p1.player_id = tm.player1_id
		JOIN player p2 ON p2.player_id = tm.player2_id
		WHERE latest.rn = 1
		ORDER BY COALESCE(latest.rank, 999999), tm.team_id
	`
	viewWithdrawalsQuery = `
		SELECT tournament_id, team_id, withdrawn_at
		FROM v_tournament_team_withdrawal
		WHERE tournament_id = ?
		ORDER BY withdrawn_at, team_id
	`
)

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// RecordSnapshot inserts exactly one observation. A second insert for the
// same (tournament, team, run) fails with roster.ErrDuplicateKey.
func (s *SnapshotStore) RecordSnapshot(ctx context.Context, tx *sqlx.Tx, snap roster.Snapshot) error {
	_, err := tx.NamedExecContext(ctx, insertSnapshotQuery, snap)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: snapshot of team %d in tournament %d for run %d",
			roster.ErrDuplicateKey, snap.TeamID, snap.TournamentID, snap.RunID)
	}
	return err
}

func (s *SnapshotStore) CountSnapshotsTx(ctx context.Context, tx *sqlx.Tx, runID, tournamentID int64) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, s.db.Rebind(countSnapshotsQuery), runID, tournamentID)
	return n, err
}

func (s *SnapshotStore) CountSnapshots(ctx context.Context, runID, tournamentID int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(countSnapshotsQuery), runID, tournamentID)
	return n, err
}

// History returns every observation of the tournament ordered by team and
// run date.
func (s *SnapshotStore) History(ctx context.Context, tournamentID int64) ([]roster.Observation, error) {
	var out []roster.Observation
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(historyQuery), tournamentID)
	return out, err
}

// CurrentRoster returns the latest observation of every team ever seen in
// the tournament.
func (s *SnapshotStore) CurrentRoster(ctx context.Context, tournamentID int64) ([]roster.RosterEntry, error) {
	out := []roster.RosterEntry{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(currentRosterQuery), tournamentID)
	return out, err
}

// ViewWithdrawals reads the declarative withdrawal view kept in the schema.
func (s *SnapshotStore) ViewWithdrawals(ctx context.Context, tournamentID int64) ([]roster.Withdrawal, error) {
	var out []roster.Withdrawal
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(viewWithdrawalsQuery), tournamentID)
	return out, err
}
