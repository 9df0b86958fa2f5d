package roster

import (
	"fmt"
	"strings"
)

type Gender string

const (
	Men   Gender = "M"
	Women Gender = "W"
)

// ParseGender accepts the letter codes in either case and the numeric 0/1
// codes the FIVB feed uses.
func ParseGender(s string) (Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "0":
		return Men, nil
	case "W", "1":
		return Women, nil
	}
	return "", fmt.Errorf("%w: unknown gender %q", ErrValidation, s)
}

type Event struct {
	ID        int64  `db:"event_id" json:"event_id"`
	FivbNo    int64  `db:"fivb_event_no" json:"fivb_event_no"`
	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	StartDate Date   `db:"start_date" json:"start_date"`
	EndDate   Date   `db:"end_date" json:"end_date"`
}

type Tournament struct {
	ID      int64  `db:"tournament_id"`
	FivbNo  int64  `db:"fivb_tournament_no"`
	EventID int64  `db:"event_id"`
	Gender  Gender `db:"gender"`
}

type Player struct {
	ID     int64   `db:"player_id"`
	FivbNo *int64  `db:"fivb_player_no"`
	Name   *string `db:"name"`
}

// Team is an unordered pair of players stored with the smaller id first.
type Team struct {
	ID          int64   `db:"team_id"`
	Player1ID   int64   `db:"player1_id"`
	Player2ID   int64   `db:"player2_id"`
	DisplayName *string `db:"display_name"`
	CountryCode *string `db:"country_code"`
}

// CanonicalPair orders two player ids so that every unordered pair maps to
// exactly one team row.
func CanonicalPair(a, b int64) (int64, int64, error) {
	if a == b {
		return 0, 0, fmt.Errorf("%w: team needs two distinct players, got %d twice", ErrValidation, a)
	}
	if a > b {
		a, b = b, a
	}
	return a, b, nil
}

// NormalizeCountryCode upper-cases a federation code and drops anything that
// is not three letters.
func NormalizeCountryCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return ""
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return s
}
