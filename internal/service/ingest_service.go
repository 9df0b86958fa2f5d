package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/PetLahev/fivb-monitor/internal/metrics"
	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/PetLahev/fivb-monitor/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type IngestService struct {
	db        *sqlx.DB
	registry  *Registry
	runs      *store.RunStore
	snapshots *store.SnapshotStore
	metrics   *metrics.Manager
	now       func() time.Time
}

func NewIngestService(db *sqlx.DB, registry *Registry, runs *store.RunStore, snapshots *store.SnapshotStore, m *metrics.Manager) *IngestService {
	return &IngestService{
		db:        db,
		registry:  registry,
		runs:      runs,
		snapshots: snapshots,
		metrics:   m,
		now:       time.Now,
	}
}

type TournamentOutcome string

const (
	TournamentIngested        TournamentOutcome = "ingested"
	TournamentAlreadyIngested TournamentOutcome = "already_ingested"
	TournamentFailed          TournamentOutcome = "failed"
)

type TournamentResult struct {
	EventNo       int64
	TournamentNo  int64
	TournamentID  int64
	Outcome       TournamentOutcome
	Written       int
	RejectedTeams int
	Err           error
}

// Report summarises one ingestion attempt. AttemptID only correlates log
// lines; the run itself is identified by its date.
type Report struct {
	AttemptID   uuid.UUID
	Run         roster.Run
	Tournaments []TournamentResult
}

func (r *Report) Written() int {
	n := 0
	for _, t := range r.Tournaments {
		n += t.Written
	}
	return n
}

func (r *Report) Failed() []TournamentResult {
	var out []TournamentResult
	for _, t := range r.Tournaments {
		if t.Outcome == TournamentFailed {
			out = append(out, t)
		}
	}
	return out
}

// Ingest records one run of complete rosters for date. The run is opened (or
// reopened) first; each tournament is then written in its own transaction so
// readers only ever see all of a tournament's rows for the run or none.
//
// A tournament already holding rows for the run is skipped, which makes
// re-ingesting the same date a no-op. Tournament level failures end up in
// the report and do not stop the others. The returned error is reserved for
// failures that prevent the attempt as a whole.
func (s *IngestService) Ingest(ctx context.Context, date roster.Date, events []roster.EventRoster) (*Report, error) {
	report := &Report{AttemptID: uuid.New()}
	log := slog.With("attempt_id", report.AttemptID, "run_date", date.String())

	run, err := s.openRun(ctx, date)
	if err != nil {
		return nil, err
	}
	report.Run = *run
	s.metrics.RunOpened()
	log.Info("run opened", "run_id", run.ID, "events", len(events))

	for _, ev := range events {
		for _, t := range ev.Tournaments {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			res := s.ingestTournament(ctx, run.ID, ev.Event, t)
			report.Tournaments = append(report.Tournaments, res)
			s.metrics.TournamentIngested(string(res.Outcome))

			attrs := []any{
				"event_no", res.EventNo,
				"tournament_no", res.TournamentNo,
				"outcome", res.Outcome,
				"written", res.Written,
			}
			switch {
			case res.Outcome == TournamentFailed:
				log.Error("tournament ingestion failed", append(attrs, "error", res.Err)...)
			case res.RejectedTeams > 0:
				log.Warn("tournament ingested with rejected teams", append(attrs, "rejected", res.RejectedTeams)...)
			default:
				log.Info("tournament processed", attrs...)
			}
		}
	}

	if len(report.Failed()) == 0 {
		s.metrics.IngestSucceeded(s.now())
	}
	log.Info("ingestion finished",
		"tournaments", len(report.Tournaments),
		"written", report.Written(),
		"failed", len(report.Failed()))
	return report, nil
}

func (s *IngestService) openRun(ctx context.Context, date roster.Date) (*roster.Run, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	run, err := s.runs.OpenRun(ctx, tx, date)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run %s: %w", date, err)
	}
	return run, nil
}

func (s *IngestService) ingestTournament(ctx context.Context, runID int64, ev roster.EventInfo, t roster.TournamentRoster) TournamentResult {
	res := TournamentResult{EventNo: ev.No, TournamentNo: t.No}
	fail := func(err error) TournamentResult {
		res.Outcome = TournamentFailed
		res.Written = 0
		res.Err = err
		return res
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	defer tx.Rollback()

	eventID, err := s.registry.ResolveEvent(ctx, tx, ev)
	if err != nil {
		return fail(err)
	}
	tournamentID, err := s.registry.ResolveTournament(ctx, tx, eventID, t.No, t.Gender)
	if err != nil {
		return fail(err)
	}
	res.TournamentID = tournamentID

	existing, err := s.snapshots.CountSnapshotsTx(ctx, tx, runID, tournamentID)
	if err != nil {
		return fail(err)
	}
	if existing > 0 {
		res.Outcome = TournamentAlreadyIngested
		return res
	}

	// Two feed entries can collapse onto the same team once players are
	// resolved, so dedupe again on the internal id.
	byTeam := make(map[int64]roster.Snapshot, len(t.Teams))
	for _, entry := range roster.DedupeTeams(t.Teams) {
		teamID, err := s.registry.ResolveTeamEntry(ctx, tx, entry)
		if errors.Is(err, roster.ErrValidation) {
			slog.Warn("skipping invalid team", "tournament_no", t.No, "team", entry.Name, "error", err)
			s.metrics.TeamRejected()
			res.RejectedTeams++
			continue
		}
		if err != nil {
			return fail(err)
		}

		snap := roster.Snapshot{
			TournamentID: tournamentID,
			TeamID:       teamID,
			RunID:        runID,
			Status:       entry.Status,
			Rank:         entry.Rank,
		}
		if prev, seen := byTeam[teamID]; seen && prev.Status.Priority() >= snap.Status.Priority() {
			continue
		}
		byTeam[teamID] = snap
	}

	teamIDs := make([]int64, 0, len(byTeam))
	for id := range byTeam {
		teamIDs = append(teamIDs, id)
	}
	slices.Sort(teamIDs)

	for _, id := range teamIDs {
		err := s.snapshots.RecordSnapshot(ctx, tx, byTeam[id])
		if errors.Is(err, roster.ErrDuplicateKey) {
			// Another writer got there first; its rows stand.
			res.Outcome = TournamentAlreadyIngested
			return res
		}
		if err != nil {
			return fail(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("failed to commit tournament %d: %w", t.No, err))
	}
	res.Outcome = TournamentIngested
	res.Written = len(teamIDs)
	s.metrics.SnapshotsWritten(res.Written)
	return res
}

// ErrIngestIncomplete is returned by callers that want a failed tournament to
// fail the whole command.
var ErrIngestIncomplete = errors.New("ingestion incomplete")

// Err folds tournament failures into a single error, nil when none failed.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed)+1)
	errs = append(errs, fmt.Errorf("%w: %d of %d tournaments failed", ErrIngestIncomplete, len(failed), len(r.Tournaments)))
	for _, f := range failed {
		errs = append(errs, fmt.Errorf("tournament %d: %w", f.TournamentNo, f.Err))
	}
	return errors.Join(errs...)
}
