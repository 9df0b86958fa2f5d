package vis

import (
	"bytes"
	"encoding/xml"
	"errors"
	"html"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/PetLahev/fivb-monitor/internal/utils"
)

type eventNode struct {
	No        string `xml:"No,attr"`
	Code      string `xml:"Code,attr"`
	Name      string `xml:"Name,attr"`
	StartDate string `xml:"StartDate,attr"`
	EndDate   string `xml:"EndDate,attr"`
}

type tournamentNode struct {
	No     string `xml:"No,attr"`
	Gender string `xml:"Gender,attr"`
}

type teamNode struct {
	Name                  string `xml:"Name,attr"`
	Rank                  string `xml:"Rank,attr"`
	NoPlayer1             string `xml:"NoPlayer1,attr"`
	NoPlayer2             string `xml:"NoPlayer2,attr"`
	Player1FederationCode string `xml:"Player1FederationCode,attr"`
	CountryCode           string `xml:"CountryCode,attr"`
	NF                    string `xml:"NF,attr"`
}

type contentNode struct {
	Text string `xml:",chardata"`
}

// TournamentRef is a tournament as listed by GetEvent.
type TournamentRef struct {
	No     int64
	Gender roster.Gender
}

// decodeAll decodes every element named local, at any depth.
func decodeAll[T any](data []byte, local string) ([]T, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	var out []T
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != local {
			continue
		}
		var v T
		if err := d.DecodeElement(&v, &se); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func parseEventList(data []byte) ([]roster.EventInfo, error) {
	nodes, err := decodeAll[eventNode](data, "Event")
	if err != nil {
		return nil, err
	}

	events := make([]roster.EventInfo, 0, len(nodes))
	for _, n := range nodes {
		no, err := strconv.ParseInt(strings.TrimSpace(n.No), 10, 64)
		if err != nil || no <= 0 {
			continue
		}
		start, err := roster.ParseDate(n.StartDate)
		if err != nil {
			continue
		}
		end, err := roster.ParseDate(n.EndDate)
		if err != nil {
			continue
		}
		events = append(events, roster.EventInfo{No: no, Code: n.Code, Name: n.Name, StartDate: start, EndDate: end})
	}
	return events, nil
}

// parseEventTournaments finds BeachTournament nodes in a GetEvent response.
// Some responses carry the event as escaped XML, either as the text of a
// Content element or in a Content attribute; those are tried in that order
// when the document itself has none.
func parseEventTournaments(data []byte) ([]TournamentRef, error) {
	nodes, err := decodeAll[tournamentNode](data, "BeachTournament")
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		texts, attrs, err := contentPayloads(data)
		if err != nil {
			return nil, err
		}
		nodes = embeddedTournaments(texts)
		if len(nodes) == 0 {
			nodes = embeddedTournaments(attrs)
		}
	}

	refs := make([]TournamentRef, 0, len(nodes))
	for _, n := range nodes {
		no, err := strconv.ParseInt(strings.TrimSpace(n.No), 10, 64)
		if err != nil || no <= 0 {
			continue
		}
		gender, err := roster.ParseGender(n.Gender)
		if err != nil {
			slog.Warn("skipping tournament without a known gender", "tournament_no", no, "gender", n.Gender)
			continue
		}
		refs = append(refs, TournamentRef{No: no, Gender: gender})
	}
	return refs, nil
}

func contentPayloads(data []byte) (texts, attrs []string, err error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return texts, attrs, nil
		}
		if err != nil {
			return nil, nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, a := range se.Attr {
			if a.Name.Local == "Content" {
				attrs = append(attrs, a.Value)
			}
		}
		if se.Name.Local == "Content" {
			var c contentNode
			if err := d.DecodeElement(&c, &se); err != nil {
				return nil, nil, err
			}
			texts = append(texts, c.Text)
		}
	}
}

func embeddedTournaments(payloads []string) []tournamentNode {
	var out []tournamentNode
	for _, p := range payloads {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(html.UnescapeString(p)), "\ufeff"))
		if p == "" {
			continue
		}
		nodes, err := decodeAll[tournamentNode]([]byte(p), "BeachTournament")
		if err != nil {
			continue
		}
		out = append(out, nodes...)
	}
	return out
}

func parseTeams(data []byte, status roster.Status) ([]roster.TeamEntry, error) {
	nodes, err := decodeAll[teamNode](data, "BeachTeam")
	if err != nil {
		return nil, err
	}

	teams := make([]roster.TeamEntry, 0, len(nodes))
	for _, n := range nodes {
		cc := n.Player1FederationCode
		if strings.TrimSpace(cc) == "" {
			cc = n.CountryCode
		}
		if strings.TrimSpace(cc) == "" {
			cc = n.NF
		}

		p1, p2 := splitTeamName(n.Name)
		teams = append(teams, roster.TeamEntry{
			Player1No:   utils.PositiveIntOrNil[int64](n.NoPlayer1),
			Player2No:   utils.PositiveIntOrNil[int64](n.NoPlayer2),
			Player1Name: p1,
			Player2Name: p2,
			Name:        n.Name,
			Rank:        utils.PositiveIntOrNil[int](n.Rank),
			Status:      status,
			CountryCode: roster.NormalizeCountryCode(cc),
		})
	}
	return teams, nil
}

// splitTeamName splits "Surname1/Surname2" into the two player names. Any
// other shape yields two empty names.
func splitTeamName(name string) (string, string) {
	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return "", ""
	}
	a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if a == "" || b == "" {
		return "", ""
	}
	return a, b
}
