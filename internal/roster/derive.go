package roster

import (
	"cmp"
	"slices"
)

// Withdrawal is the first observed transition of a team into a withdrawn
// state within a tournament.
type Withdrawal struct {
	TournamentID int64 `db:"tournament_id"`
	TeamID       int64 `db:"team_id"`
	WithdrawnAt  Date  `db:"withdrawn_at"`
}

// DeriveWithdrawals scans the observations of every (tournament, team) pair
// in run order, carrying the previously observed status, and reports the
// date of the earliest row where the status turns withdrawn.
//
// Only explicit statuses count. A team missing from a run keeps whatever
// status it had before, so absence alone never yields a withdrawal. A team
// first seen already withdrawn is reported at that first run.
//
// The result is ordered by tournament, withdrawal date and team.
func DeriveWithdrawals(observations []Observation) []Withdrawal {
	obs := slices.Clone(observations)
	slices.SortFunc(obs, func(a, b Observation) int {
		if c := cmp.Compare(a.TournamentID, b.TournamentID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TeamID, b.TeamID); c != 0 {
			return c
		}
		switch {
		case a.RunDate.Before(b.RunDate):
			return -1
		case a.RunDate.After(b.RunDate):
			return 1
		}
		return 0
	})

	var (
		out      []Withdrawal
		prev     Status
		hasPrev  bool
		reported bool
	)
	for i, o := range obs {
		if i == 0 || o.TournamentID != obs[i-1].TournamentID || o.TeamID != obs[i-1].TeamID {
			hasPrev, reported = false, false
		}

		transition := o.Status.IsWithdrawn() && (!hasPrev || !prev.IsWithdrawn())
		if transition && !reported {
			out = append(out, Withdrawal{
				TournamentID: o.TournamentID,
				TeamID:       o.TeamID,
				WithdrawnAt:  o.RunDate,
			})
			reported = true
		}
		prev, hasPrev = o.Status, true
	}

	slices.SortStableFunc(out, func(a, b Withdrawal) int {
		if c := cmp.Compare(a.TournamentID, b.TournamentID); c != 0 {
			return c
		}
		switch {
		case a.WithdrawnAt.Before(b.WithdrawnAt):
			return -1
		case a.WithdrawnAt.After(b.WithdrawnAt):
			return 1
		}
		return cmp.Compare(a.TeamID, b.TeamID)
	})
	return out
}
