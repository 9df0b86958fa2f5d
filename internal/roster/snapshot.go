package roster

import (
	"fmt"
	"time"
)

type Status string

const (
	Registered               Status = "Registered"
	Withdrawn                Status = "Withdrawn"
	WithdrawnWithMedicalCert Status = "WithdrawnWithMedicalCert"
	Deleted                  Status = "Deleted"
)

// Statuses lists every status in the order the roster source is queried.
var Statuses = []Status{Registered, Withdrawn, WithdrawnWithMedicalCert, Deleted}

// ParseStatus maps a raw feed value onto the closed status set. Unknown
// values are rejected rather than stored.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case Registered, Withdrawn, WithdrawnWithMedicalCert, Deleted:
		return Status(s), nil
	case "WithdrawnWithMedicalCertificate":
		return WithdrawnWithMedicalCert, nil
	}
	return "", fmt.Errorf("%w: unknown team status %q", ErrValidation, s)
}

// IsWithdrawn reports whether s is one of the withdrawn states. Deleted is
// not a withdrawal.
func (s Status) IsWithdrawn() bool {
	return s == Withdrawn || s == WithdrawnWithMedicalCert
}

// Priority decides which status wins when the feed reports the same team
// under several statuses.
func (s Status) Priority() int {
	switch s {
	case Deleted:
		return 3
	case WithdrawnWithMedicalCert:
		return 2
	case Withdrawn:
		return 1
	}
	return 0
}

// Run is one capture, at most one per calendar date.
type Run struct {
	ID        int64     `db:"run_id"`
	RunDate   Date      `db:"run_date"`
	Note      *string   `db:"note"`
	CreatedAt time.Time `db:"created_at"`
}

// Snapshot is the observed status of a team in a tournament during a run.
type Snapshot struct {
	TournamentID int64  `db:"tournament_id"`
	TeamID       int64  `db:"team_id"`
	RunID        int64  `db:"run_id"`
	Status       Status `db:"status"`
	Rank         *int   `db:"rank"`
}

// Observation is a snapshot joined with its run date, the input of the
// withdrawal derivation.
type Observation struct {
	TournamentID int64  `db:"tournament_id"`
	TeamID       int64  `db:"team_id"`
	RunDate      Date   `db:"run_date"`
	Status       Status `db:"status"`
}
