package roster

// EventRoster is one full capture of an event as delivered by the roster
// source. Every tournament listed carries its complete team list; a
// tournament whose fetch failed is left out entirely.
type EventRoster struct {
	Event       EventInfo
	Tournaments []TournamentRoster
}

type EventInfo struct {
	No        int64
	Code      string
	Name      string
	StartDate Date
	EndDate   Date
}

type TournamentRoster struct {
	No     int64
	Gender Gender
	Teams  []TeamEntry
}

// TeamEntry is a team as reported by the feed, before players are resolved.
type TeamEntry struct {
	Player1No   *int64
	Player2No   *int64
	Player1Name string
	Player2Name string
	Name        string
	Rank        *int
	Status      Status
	CountryCode string
}

// DedupeTeams keeps one entry per player-number pair, preferring the status
// with the higher priority. Input order is otherwise preserved.
func DedupeTeams(teams []TeamEntry) []TeamEntry {
	type key struct{ p1, p2 int64 }
	keyOf := func(t TeamEntry) (key, bool) {
		if t.Player1No == nil || t.Player2No == nil {
			return key{}, false
		}
		return key{*t.Player1No, *t.Player2No}, true
	}

	index := make(map[key]int, len(teams))
	out := make([]TeamEntry, 0, len(teams))
	for _, t := range teams {
		k, ok := keyOf(t)
		if !ok {
			out = append(out, t)
			continue
		}
		if i, seen := index[k]; seen {
			if t.Status.Priority() > out[i].Status.Priority() {
				out[i] = t
			}
			continue
		}
		index[k] = len(out)
		out = append(out, t)
	}
	return out
}
