package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/PetLahev/fivb-monitor/internal/store"
	"github.com/jmoiron/sqlx"
)

// TeamSource fetches the current team list of one tournament.
type TeamSource interface {
	FetchTeams(ctx context.Context, tournamentNo int64) ([]roster.TeamEntry, error)
}

// BackfillService fills in team country codes that earlier crawls did not
// receive. It never touches snapshots and never overwrites a known code.
type BackfillService struct {
	db     *sqlx.DB
	store  *store.EntityStore
	source TeamSource
}

func NewBackfillService(db *sqlx.DB, store *store.EntityStore, source TeamSource) *BackfillService {
	return &BackfillService{db: db, store: store, source: source}
}

type BackfillReport struct {
	Tournaments int
	Updated     int
	Failed      int
}

// BackfillCountry revisits every tournament of events starting in year that
// still has teams without a country code.
func (s *BackfillService) BackfillCountry(ctx context.Context, year int) (*BackfillReport, error) {
	from := roster.Date{Year: year, Month: 1, Day: 1}
	to := roster.Date{Year: year + 1, Month: 1, Day: 1}

	tournaments, err := s.store.TournamentsMissingCountry(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}

	report := &BackfillReport{}
	for _, t := range tournaments {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Tournaments++

		n, err := s.backfillTournament(ctx, t)
		if err != nil {
			slog.Warn("country backfill failed", "tournament_no", t.TournamentFivbNo, "error", err)
			report.Failed++
			continue
		}
		if n > 0 {
			slog.Info("country codes filled", "tournament_no", t.TournamentFivbNo, "teams", n)
		}
		report.Updated += n
	}
	return report, nil
}

func (s *BackfillService) backfillTournament(ctx context.Context, t roster.TournamentInfo) (int, error) {
	entries, err := s.source.FetchTeams(ctx, t.TournamentFivbNo)
	if err != nil {
		return 0, err
	}

	type pair struct{ a, b int64 }
	codes := make(map[pair]string)
	for _, e := range entries {
		cc := roster.NormalizeCountryCode(e.CountryCode)
		if cc == "" || e.Player1No == nil || e.Player2No == nil {
			continue
		}
		codes[pair{*e.Player1No, *e.Player2No}] = cc
		codes[pair{*e.Player2No, *e.Player1No}] = cc
	}
	if len(codes) == 0 {
		return 0, nil
	}

	missing, err := s.store.TeamsMissingCountry(ctx, t.TournamentID)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	updated := 0
	for _, team := range missing {
		if team.FivbPlayer1No == nil || team.FivbPlayer2No == nil {
			continue
		}
		cc, ok := codes[pair{*team.FivbPlayer1No, *team.FivbPlayer2No}]
		if !ok {
			continue
		}
		changed, err := s.store.SetTeamCountry(ctx, tx, team.TeamID, cc)
		if err != nil {
			return 0, err
		}
		if changed {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return updated, nil
}
