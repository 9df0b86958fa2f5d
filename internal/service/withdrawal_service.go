package service

import (
	"context"
	"fmt"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/PetLahev/fivb-monitor/internal/store"
)

// WithdrawalRecord is one reported withdrawal with enough context to be
// rendered without further lookups.
type WithdrawalRecord struct {
	TeamID           int64       `json:"team_id"`
	DisplayName      *string     `json:"display_name"`
	Player1Name      *string     `json:"player1_name"`
	Player2Name      *string     `json:"player2_name"`
	FivbPlayer1No    *int64      `json:"fivb_player1_no"`
	FivbPlayer2No    *int64      `json:"fivb_player2_no"`
	CountryCode      *string     `json:"country_code"`
	WithdrawnAt      roster.Date `json:"withdrawn_at"`
	TournamentID     int64       `json:"tournament_id"`
	TournamentFivbNo int64       `json:"tournament_fivb_no"`
	EventID          int64       `json:"event_id"`
	EventFivbNo      int64       `json:"event_fivb_no"`
	LastChecked      roster.Date `json:"last_checked"`
}

// TeamStatus is a row of the current roster of a tournament.
type TeamStatus struct {
	TeamID        int64         `json:"team_id"`
	DisplayName   *string       `json:"display_name"`
	Player1Name   *string       `json:"player1_name"`
	Player2Name   *string       `json:"player2_name"`
	FivbPlayer1No *int64        `json:"fivb_player1_no"`
	FivbPlayer2No *int64        `json:"fivb_player2_no"`
	CountryCode   *string       `json:"country_code"`
	Status        roster.Status `json:"status"`
	Rank          *int          `json:"rank"`
	AsOf          roster.Date   `json:"as_of"`
	WithdrawnAt   *roster.Date  `json:"withdrawn_at"`
}

type TournamentRoster struct {
	TournamentID     int64         `json:"tournament_id"`
	TournamentFivbNo int64         `json:"tournament_fivb_no"`
	Gender           roster.Gender `json:"gender"`
	EventCode        string        `json:"event_code"`
	EventName        string        `json:"event_name"`
	LastChecked      *roster.Date  `json:"last_checked"`
	Teams            []TeamStatus  `json:"teams"`
}

type WithdrawalService struct {
	entities  *store.EntityStore
	runs      *store.RunStore
	snapshots *store.SnapshotStore
}

func NewWithdrawalService(entities *store.EntityStore, runs *store.RunStore, snapshots *store.SnapshotStore) *WithdrawalService {
	return &WithdrawalService{entities: entities, runs: runs, snapshots: snapshots}
}

// ForTournament derives the withdrawals of a resolved tournament. The result
// is never nil; a tournament without withdrawals yields an empty slice.
func (s *WithdrawalService) ForTournament(ctx context.Context, info *roster.TournamentInfo) ([]WithdrawalRecord, error) {
	history, err := s.snapshots.History(ctx, info.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of tournament %d: %w", info.TournamentFivbNo, err)
	}

	withdrawals := roster.DeriveWithdrawals(history)
	records := make([]WithdrawalRecord, 0, len(withdrawals))
	if len(withdrawals) == 0 {
		return records, nil
	}

	// Last checked comes from the same history read, so it can never trail
	// the withdrawals it is reported with.
	var lastChecked roster.Date
	for _, o := range history {
		if o.RunDate.After(lastChecked) {
			lastChecked = o.RunDate
		}
	}

	ids := make([]int64, len(withdrawals))
	for i, w := range withdrawals {
		ids[i] = w.TeamID
	}
	teams, err := s.entities.TeamDetails(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	for _, w := range withdrawals {
		team := teams[w.TeamID]
		records = append(records, WithdrawalRecord{
			TeamID:           w.TeamID,
			DisplayName:      team.DisplayName,
			Player1Name:      team.Player1Name,
			Player2Name:      team.Player2Name,
			FivbPlayer1No:    team.FivbPlayer1No,
			FivbPlayer2No:    team.FivbPlayer2No,
			CountryCode:      team.CountryCode,
			WithdrawnAt:      w.WithdrawnAt,
			TournamentID:     info.TournamentID,
			TournamentFivbNo: info.TournamentFivbNo,
			EventID:          info.EventID,
			EventFivbNo:      info.EventFivbNo,
			LastChecked:      lastChecked,
		})
	}
	return records, nil
}

// CurrentRoster lists the latest known status of every team ever seen in the
// tournament, annotated with its withdrawal date where there is one.
func (s *WithdrawalService) CurrentRoster(ctx context.Context, info *roster.TournamentInfo) (*TournamentRoster, error) {
	entries, err := s.snapshots.CurrentRoster(ctx, info.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster of tournament %d: %w", info.TournamentFivbNo, err)
	}
	history, err := s.snapshots.History(ctx, info.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of tournament %d: %w", info.TournamentFivbNo, err)
	}
	last, err := s.runs.LatestRunDate(ctx, info.TournamentID)
	if err != nil {
		return nil, err
	}

	withdrawnAt := make(map[int64]roster.Date)
	for _, w := range roster.DeriveWithdrawals(history) {
		withdrawnAt[w.TeamID] = w.WithdrawnAt
	}

	out := &TournamentRoster{
		TournamentID:     info.TournamentID,
		TournamentFivbNo: info.TournamentFivbNo,
		Gender:           info.Gender,
		EventCode:        info.EventCode,
		EventName:        info.EventName,
		LastChecked:      last,
		Teams:            make([]TeamStatus, 0, len(entries)),
	}
	for _, e := range entries {
		ts := TeamStatus{
			TeamID:        e.TeamID,
			DisplayName:   e.DisplayName,
			Player1Name:   e.Player1Name,
			Player2Name:   e.Player2Name,
			FivbPlayer1No: e.FivbPlayer1No,
			FivbPlayer2No: e.FivbPlayer2No,
			CountryCode:   e.CountryCode,
			Status:        e.Status,
			Rank:          e.Rank,
			AsOf:          e.AsOf,
		}
		if d, ok := withdrawnAt[e.TeamID]; ok {
			ts.WithdrawnAt = &d
		}
		out.Teams = append(out.Teams, ts)
	}
	return out, nil
}

func (s *WithdrawalService) Events(ctx context.Context) ([]roster.EventSummary, error) {
	return s.entities.ListEvents(ctx)
}
