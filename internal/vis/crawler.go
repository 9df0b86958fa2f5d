package vis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PetLahev/fivb-monitor/internal/roster"
)

// FetchUpcomingEvents lists the events of year and keeps those starting
// within [today, today+windowDays].
func (c *Client) FetchUpcomingEvents(ctx context.Context, year int, today roster.Date, windowDays int) ([]roster.EventInfo, error) {
	start := roster.Date{Year: year, Month: 1, Day: 1}
	end := roster.Date{Year: year, Month: 12, Day: 31}

	var all []roster.EventInfo
	err := c.do(ctx, "GetEventList", getEventListRequest(start, end), func(body []byte) error {
		var err error
		all, err = parseEventList(body)
		return err
	})
	if err != nil {
		return nil, err
	}

	windowEnd := today.AddDays(windowDays)
	selected := make([]roster.EventInfo, 0, len(all))
	for _, ev := range all {
		if ev.StartDate.Before(today) || ev.StartDate.After(windowEnd) {
			continue
		}
		selected = append(selected, ev)
	}

	slog.Info("events listed", "year", year, "found", len(all), "selected", len(selected), "window_days", windowDays)
	return selected, nil
}

func (c *Client) FetchEventTournaments(ctx context.Context, eventNo int64) ([]TournamentRef, error) {
	var refs []TournamentRef
	err := c.do(ctx, "GetEvent", getEventRequest(eventNo), func(body []byte) error {
		var err error
		refs, err = parseEventTournaments(body)
		return err
	})
	return refs, err
}

// FetchTeams returns the full team list of a tournament: one request per
// status, merged and deduplicated by player numbers.
func (c *Client) FetchTeams(ctx context.Context, tournamentNo int64) ([]roster.TeamEntry, error) {
	var all []roster.TeamEntry
	for _, status := range roster.Statuses {
		err := c.do(ctx, "GetBeachTeamList", getBeachTeamListRequest(tournamentNo, status), func(body []byte) error {
			teams, err := parseTeams(body, status)
			if err != nil {
				return err
			}
			all = append(all, teams...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("tournament %d, status %s: %w", tournamentNo, status, err)
		}
	}
	return roster.DedupeTeams(all), nil
}

// Crawl captures every upcoming event with the complete team lists of its
// tournaments. An event whose GetEvent fails is skipped and a tournament
// whose team lists cannot all be fetched is left out, so every tournament
// returned is complete. Running out of request budget stops the crawl; what
// was collected so far is returned along with the error.
func (c *Client) Crawl(ctx context.Context, year int, today roster.Date, windowDays int) ([]roster.EventRoster, error) {
	events, err := c.FetchUpcomingEvents(ctx, year, today, windowDays)
	if err != nil {
		return nil, err
	}

	out := make([]roster.EventRoster, 0, len(events))
	for _, ev := range events {
		refs, err := c.FetchEventTournaments(ctx, ev.No)
		if err != nil {
			if stop(ctx, err) {
				return out, err
			}
			slog.Warn("skipping event, GetEvent failed", "event_no", ev.No, "error", err)
			continue
		}

		er := roster.EventRoster{Event: ev}
		for _, ref := range refs {
			teams, err := c.FetchTeams(ctx, ref.No)
			if err != nil {
				if stop(ctx, err) {
					if len(er.Tournaments) > 0 {
						out = append(out, er)
					}
					return out, err
				}
				slog.Warn("skipping tournament, team fetch failed", "event_no", ev.No, "tournament_no", ref.No, "error", err)
				continue
			}
			er.Tournaments = append(er.Tournaments, roster.TournamentRoster{No: ref.No, Gender: ref.Gender, Teams: teams})
		}
		out = append(out, er)
	}
	return out, nil
}

func stop(ctx context.Context, err error) bool {
	return errors.Is(err, ErrRequestBudget) || ctx.Err() != nil
}
