package store

import (
	"context"
	"fmt"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/jmoiron/sqlx"
)

type EntityStore struct {
	db *sqlx.DB
}

const (
	upsertEventQuery = `
		INSERT INTO event (fivb_event_no, code, name, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (fivb_event_no) DO UPDATE
		  SET code = excluded.code,
		      name = excluded.name,
		      start_date = excluded.start_date,
		      end_date = excluded.end_date
		RETURNING event_id
	`
	getTournamentByNoQuery = `
		SELECT tournament_id, fivb_tournament_no, event_id, gender
		FROM tournament
		WHERE fivb_tournament_no = ?
	`
	insertTournamentQuery = `
		INSERT INTO tournament (fivb_tournament_no, event_id, gender)
		VALUES (?, ?, ?)
		RETURNING tournament_id
	`
	upsertPlayerByNoQuery = `
		INSERT INTO player (fivb_player_no, name)
		VALUES (?, ?)
		ON CONFLICT (fivb_player_no) DO UPDATE
		  SET name = COALESCE(excluded.name, player.name)
		RETURNING player_id
	`
	findPlayerByNameQuery = `
		SELECT player_id FROM player
		WHERE name = ? AND fivb_player_no IS NULL
		ORDER BY player_id
		LIMIT 1
	`
	insertPlayerQuery = `
		INSERT INTO player (name) VALUES (?)
		RETURNING player_id
	`
	upsertTeamQuery = `
		INSERT INTO team (player1_id, player2_id, display_name, country_code)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (player1_id, player2_id) DO UPDATE
		  SET display_name = COALESCE(excluded.display_name, team.display_name),
		      country_code = COALESCE(excluded.country_code, team.country_code)
		RETURNING team_id
	`
	updateTeamCountryQuery = `
		UPDATE team SET country_code = ?
		WHERE team_id = ? AND country_code IS NULL
	`
	tournamentInfoSelect = `
		SELECT t.tournament_id, t.fivb_tournament_no, t.gender,
		       e.event_id, e.fivb_event_no, e.code AS event_code, e.name AS event_name
		FROM tournament t
		JOIN event e ON e.event_id = t.event_id
	`
	listEventsQuery = `
		SELECT e.event_id, e.fivb_event_no, e.code, e.name, e.start_date, e.end_date,
		       MAX(CASE WHEN t.gender = 'M' THEN t.fivb_tournament_no END) AS men_no,
		       MAX(CASE WHEN t.gender = 'W' THEN t.fivb_tournament_no END) AS women_no
		FROM event e
		LEFT JOIN tournament t ON t.event_id = e.event_id
		GROUP BY e.event_id, e.fivb_event_no, e.code, e.name, e.start_date, e.end_date
		ORDER BY e.start_date DESC, e.event_id DESC
	`
	teamDetailsQuery = `
		SELECT tm.team_id, tm.display_name, tm.country_code,
		       p1.name AS player1_name, p2.name AS player2_name,
		       p1.fivb_player_no AS fivb_player1_no, p2.fivb_player_no AS fivb_player2_no
		FROM team tm
		JOIN player p1 ON p1.player_id = tm.player1_id
		JOIN player p2 ON p2.player_id = tm.player2_id
		WHERE tm.team_id IN (?)
	`
	tournamentsMissingCountryQuery = `
		SELECT DISTINCT t.tournament_id, t.fivb_tournament_no, t.gender,
		       e.event_id, e.fivb_event_no, e.code AS event_code, e.name AS event_name
		FROM tournament t
		JOIN event e ON e.event_id = t.event_id
		JOIN tournament_team_snapshot s ON s.tournament_id = t.tournament_id
		JOIN team tm ON tm.team_id = s.team_id
		WHERE tm.country_code IS NULL
		  AND e.start_date >= ? AND e.start_date < ?
		ORDER BY t.tournament_id
	`
	teamsMissingCountryQuery = `
		SELECT DISTINCT tm.team_id, tm.display_name, tm.country_code,
		       p1.name AS player1_name, p2.name AS player2_name,
		       p1.fivb_player_no AS fivb_player1_no, p2.fivb_player_no AS fivb_player2_no
		FROM tournament_team_snapshot s
		JOIN team tm ON tm.team_id = s.team_id
		JOIN player p1 ON p1.player_id = tm.player1_id
		JOIN player p2 ON p2.player_id = tm.player2_id
		WHERE s.tournament_id = ? AND tm.country_code IS NULL
		ORDER BY tm.team_id
	`
)

func NewEntityStore(db *sqlx.DB) *EntityStore {
	return &EntityStore{db: db}
}

func (s *EntityStore) UpsertEvent(ctx context.Context, tx *sqlx.Tx, ev roster.EventInfo) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, s.db.Rebind(upsertEventQuery), ev.No, ev.Code, ev.Name, ev.StartDate, ev.EndDate)
	return id, err
}

func (s *EntityStore) GetTournamentByNoTx(ctx context.Context, tx *sqlx.Tx, fivbNo int64) (*roster.Tournament, error) {
	var t roster.Tournament
	if err := tx.GetContext(ctx, &t, s.db.Rebind(getTournamentByNoQuery), fivbNo); err != nil {
		return nil, notFound(err, "tournament %d", fivbNo)
	}
	return &t, nil
}

// InsertTournament fails with roster.ErrConflict when the event already has
// a tournament of that gender.
func (s *EntityStore) InsertTournament(ctx context.Context, tx *sqlx.Tx, t roster.Tournament) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, s.db.Rebind(insertTournamentQuery), t.FivbNo, t.EventID, t.Gender)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: event %d already has a %s tournament", roster.ErrConflict, t.EventID, t.Gender)
	}
	return id, err
}

func (s *EntityStore) UpsertPlayerByNo(ctx context.Context, tx *sqlx.Tx, fivbNo int64, name *string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, s.db.Rebind(upsertPlayerByNoQuery), fivbNo, name)
	return id, err
}

// FindPlayerByName only matches players without an external number.
func (s *EntityStore) FindPlayerByName(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	var id int64
	if err := tx.GetContext(ctx, &id, s.db.Rebind(findPlayerByNameQuery), name); err != nil {
		return 0, notFound(err, "player %q", name)
	}
	return id, nil
}

func (s *EntityStore) InsertPlayer(ctx context.Context, tx *sqlx.Tx, name *string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, s.db.Rebind(insertPlayerQuery), name)
	return id, err
}

// UpsertTeam expects the pair already in canonical order.
func (s *EntityStore) UpsertTeam(ctx context.Context, tx *sqlx.Tx, team roster.Team) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, s.db.Rebind(upsertTeamQuery),
		team.Player1ID, team.Player2ID, team.DisplayName, team.CountryCode)
	return id, err
}

// SetTeamCountry fills a missing country code and leaves a known one alone.
func (s *EntityStore) SetTeamCountry(ctx context.Context, tx *sqlx.Tx, teamID int64, countryCode string) (bool, error) {
	res, err := tx.ExecContext(ctx, s.db.Rebind(updateTeamCountryQuery), countryCode, teamID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *EntityStore) GetTeam(ctx context.Context, teamID int64) (*roster.Team, error) {
	var team roster.Team
	if err := s.db.GetContext(ctx, &team, s.db.Rebind("SELECT * FROM team WHERE team_id = ?"), teamID); err != nil {
		return nil, notFound(err, "team %d", teamID)
	}
	return &team, nil
}

func (s *EntityStore) GetTournamentInfoByNo(ctx context.Context, fivbNo int64) (*roster.TournamentInfo, error) {
	var info roster.TournamentInfo
	q := tournamentInfoSelect + " WHERE t.fivb_tournament_no = ?"
	if err := s.db.GetContext(ctx, &info, s.db.Rebind(q), fivbNo); err != nil {
		return nil, notFound(err, "tournament %d", fivbNo)
	}
	return &info, nil
}

func (s *EntityStore) GetTournamentInfoByEventCode(ctx context.Context, eventCode string, gender roster.Gender) (*roster.TournamentInfo, error) {
	var info roster.TournamentInfo
	q := tournamentInfoSelect + " WHERE e.code = ? AND t.gender = ? ORDER BY e.start_date DESC LIMIT 1"
	if err := s.db.GetContext(ctx, &info, s.db.Rebind(q), eventCode, gender); err != nil {
		return nil, notFound(err, "%s tournament of event %s", gender, eventCode)
	}
	return &info, nil
}

func (s *EntityStore) EventCodeExists(ctx context.Context, eventCode string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind("SELECT COUNT(*) FROM event WHERE code = ?"), eventCode)
	return n > 0, err
}

func (s *EntityStore) ListEvents(ctx context.Context) ([]roster.EventSummary, error) {
	events := []roster.EventSummary{}
	err := s.db.SelectContext(ctx, &events, listEventsQuery)
	return events, err
}

// TeamDetails returns the requested teams keyed by id.
func (s *EntityStore) TeamDetails(ctx context.Context, teamIDs []int64) (map[int64]roster.TeamDetail, error) {
	out := make(map[int64]roster.TeamDetail, len(teamIDs))
	if len(teamIDs) == 0 {
		return out, nil
	}

	q, args, err := sqlx.In(teamDetailsQuery, teamIDs)
	if err != nil {
		return nil, err
	}
	var rows []roster.TeamDetail
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TeamID] = r
	}
	return out, nil
}

// TournamentsMissingCountry lists tournaments of events starting in
// [from, to) that have ever listed a team without a country code.
func (s *EntityStore) TournamentsMissingCountry(ctx context.Context, from, to roster.Date) ([]roster.TournamentInfo, error) {
	var out []roster.TournamentInfo
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(tournamentsMissingCountryQuery), from, to)
	return out, err
}

func (s *EntityStore) TeamsMissingCountry(ctx context.Context, tournamentID int64) ([]roster.TeamDetail, error) {
	var out []roster.TeamDetail
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(teamsMissingCountryQuery), tournamentID)
	return out, err
}
