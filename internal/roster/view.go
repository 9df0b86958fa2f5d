package roster

// TournamentInfo is a tournament joined with its owning event.
type TournamentInfo struct {
	TournamentID     int64  `db:"tournament_id"`
	TournamentFivbNo int64  `db:"fivb_tournament_no"`
	Gender           Gender `db:"gender"`
	EventID          int64  `db:"event_id"`
	EventFivbNo      int64  `db:"fivb_event_no"`
	EventCode        string `db:"event_code"`
	EventName        string `db:"event_name"`
}

// EventSummary is an event with the external numbers of its two draws.
type EventSummary struct {
	Event
	MenTournamentNo   *int64 `db:"men_no" json:"men_tournament_no"`
	WomenTournamentNo *int64 `db:"women_no" json:"women_tournament_no"`
}

// TeamDetail is a team joined with both of its players.
type TeamDetail struct {
	TeamID        int64   `db:"team_id"`
	DisplayName   *string `db:"display_name"`
	CountryCode   *string `db:"country_code"`
	Player1Name   *string `db:"player1_name"`
	Player2Name   *string `db:"player2_name"`
	FivbPlayer1No *int64  `db:"fivb_player1_no"`
	FivbPlayer2No *int64  `db:"fivb_player2_no"`
}

// RosterEntry is the most recent observation of a team in a tournament.
type RosterEntry struct {
	TeamDetail
	Status Status `db:"status"`
	Rank   *int   `db:"rank"`
	AsOf   Date   `db:"as_of"`
}
