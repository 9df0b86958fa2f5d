package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/PetLahev/fivb-monitor/internal/store"
	"github.com/PetLahev/fivb-monitor/internal/utils"
	"github.com/jmoiron/sqlx"
)

// Registry maps feed identities onto internal ids. It never deletes; it
// creates rows on first sight and refreshes display fields afterwards. All
// methods run inside the caller's transaction.
type Registry struct {
	store *store.EntityStore
}

func NewRegistry(store *store.EntityStore) *Registry {
	return &Registry{store: store}
}

func (r *Registry) ResolveEvent(ctx context.Context, tx *sqlx.Tx, ev roster.EventInfo) (int64, error) {
	if ev.No <= 0 {
		return 0, fmt.Errorf("%w: event without external number", roster.ErrValidation)
	}
	id, err := r.store.UpsertEvent(ctx, tx, ev)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert event %d: %w", ev.No, err)
	}
	return id, nil
}

// ResolveTournament creates the tournament on first sight. A known external
// number showing up with another gender or under another event is reported
// as roster.ErrConflict instead of being overwritten.
func (r *Registry) ResolveTournament(ctx context.Context, tx *sqlx.Tx, eventID int64, fivbNo int64, gender roster.Gender) (int64, error) {
	if gender != roster.Men && gender != roster.Women {
		return 0, fmt.Errorf("%w: tournament %d has no valid gender", roster.ErrValidation, fivbNo)
	}

	existing, err := r.store.GetTournamentByNoTx(ctx, tx, fivbNo)
	switch {
	case err == nil:
		if existing.Gender != gender {
			return 0, fmt.Errorf("%w: tournament %d gender changed from %s to %s",
				roster.ErrConflict, fivbNo, existing.Gender, gender)
		}
		if existing.EventID != eventID {
			return 0, fmt.Errorf("%w: tournament %d moved from event %d to %d",
				roster.ErrConflict, fivbNo, existing.EventID, eventID)
		}
		return existing.ID, nil
	case errors.Is(err, roster.ErrNotFound):
		return r.store.InsertTournament(ctx, tx, roster.Tournament{FivbNo: fivbNo, EventID: eventID, Gender: gender})
	default:
		return 0, fmt.Errorf("failed to load tournament %d: %w", fivbNo, err)
	}
}

// ResolvePlayer prefers the external number. Without one it falls back to
// an unnumbered player of the same name, and finally to a new row. A player
// with neither cannot be recognised in a later run and is rejected as
// roster.ErrValidation.
func (r *Registry) ResolvePlayer(ctx context.Context, tx *sqlx.Tx, fivbNo *int64, name string) (int64, error) {
	namePtr := utils.StringOrNil(name)
	if fivbNo != nil {
		return r.store.UpsertPlayerByNo(ctx, tx, *fivbNo, namePtr)
	}
	if namePtr == nil {
		return 0, fmt.Errorf("%w: player without number or name", roster.ErrValidation)
	}

	id, err := r.store.FindPlayerByName(ctx, tx, *namePtr)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, roster.ErrNotFound) {
		return 0, err
	}
	return r.store.InsertPlayer(ctx, tx, namePtr)
}

// ResolveTeam canonicalises the pair and upserts the team. Only non-empty
// display name and country code values overwrite stored ones.
func (r *Registry) ResolveTeam(ctx context.Context, tx *sqlx.Tx, player1ID, player2ID int64, displayName, countryCode string) (int64, error) {
	a, b, err := roster.CanonicalPair(player1ID, player2ID)
	if err != nil {
		return 0, err
	}
	return r.store.UpsertTeam(ctx, tx, roster.Team{
		Player1ID:   a,
		Player2ID:   b,
		DisplayName: utils.StringOrNil(displayName),
		CountryCode: utils.StringOrNil(roster.NormalizeCountryCode(countryCode)),
	})
}

// ResolveTeamEntry resolves both players of a feed entry and then its team.
func (r *Registry) ResolveTeamEntry(ctx context.Context, tx *sqlx.Tx, entry roster.TeamEntry) (int64, error) {
	p1, err := r.ResolvePlayer(ctx, tx, entry.Player1No, entry.Player1Name)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve player 1 of %q: %w", entry.Name, err)
	}
	p2, err := r.ResolvePlayer(ctx, tx, entry.Player2No, entry.Player2Name)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve player 2 of %q: %w", entry.Name, err)
	}
	id, err := r.ResolveTeam(ctx, tx, p1, p2, entry.Name, entry.CountryCode)
	if err != nil {
		return 0, fmt.Errorf("team %q: %w", entry.Name, err)
	}
	return id, nil
}
