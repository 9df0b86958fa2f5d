package vis

import (
	"testing"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventList(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="utf-8"?>
<Responses><Response>
  <Event No="501" Code="BVB-ITA2025" Name="Rome Elite16" StartDate="2025-12-01T00:00:00" EndDate="2025-12-05" />
  <Event No="x" Code="BAD" StartDate="2025-12-01" EndDate="2025-12-05" />
  <Event No="502" Code="BVB-NODATE" StartDate="" EndDate="2025-12-05" />
</Response></Responses>`)

	events, err := parseEventList(body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(501), events[0].No)
	assert.Equal(t, "BVB-ITA2025", events[0].Code)
	assert.Equal(t, "2025-12-01", events[0].StartDate.String())
	assert.Equal(t, "2025-12-05", events[0].EndDate.String())
}

func TestParseEventTournaments(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "nested in event",
			body: `<Responses><Event No="501"><BeachTournament No="8136" Gender="0"/><BeachTournament No="8137" Gender="W"/></Event></Responses>`,
		},
		{
			name: "escaped content text",
			body: `<Responses><Response><Content>&lt;Event No="501"&gt;&lt;BeachTournament No="8136" Gender="M"/&gt;&lt;BeachTournament No="8137" Gender="1"/&gt;&lt;/Event&gt;</Content></Response></Responses>`,
		},
		{
			name: "cdata content text",
			body: "<Responses><Content><![CDATA[\ufeff<Event><BeachTournament No=\"8136\" Gender=\"M\"/><BeachTournament No=\"8137\" Gender=\"W\"/></Event>]]></Content></Responses>",
		},
		{
			name: "content attribute",
			body: `<Responses><Response Content="&lt;Event&gt;&lt;BeachTournament No=&quot;8136&quot; Gender=&quot;M&quot;/&gt;&lt;BeachTournament No=&quot;8137&quot; Gender=&quot;W&quot;/&gt;&lt;/Event&gt;"/></Responses>`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			refs, err := parseEventTournaments([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, []TournamentRef{
				{No: 8136, Gender: roster.Men},
				{No: 8137, Gender: roster.Women},
			}, refs)
		})
	}
}

func TestParseEventTournaments_UnknownGenderSkipped(t *testing.T) {
	refs, err := parseEventTournaments([]byte(`<Event><BeachTournament No="1" Gender=""/><BeachTournament No="2" Gender="X"/><BeachTournament No="3" Gender="M"/></Event>`))
	require.NoError(t, err)
	assert.Equal(t, []TournamentRef{{No: 3, Gender: roster.Men}}, refs)
}

func TestParseEventTournaments_Malformed(t *testing.T) {
	_, err := parseEventTournaments([]byte(`<Event><BeachTournament No="1"`))
	assert.Error(t, err)
}

func TestParseTeams(t *testing.T) {
	body := []byte(`<Responses><Response>
  <BeachTeam Name="Rossi/Bianchi" Rank="3" NoPlayer1="1001" NoPlayer2="1002" Player1FederationCode="ita" />
  <BeachTeam Name="Smith" Rank="0" NoPlayer1="" NoPlayer2="2002" CountryCode="USA" />
  <BeachTeam Name="Dupont/Martin" NoPlayer1="3001" NoPlayer2="3002" NF="FRA1" />
</Response></Responses>`)

	teams, err := parseTeams(body, roster.Withdrawn)
	require.NoError(t, err)
	require.Len(t, teams, 3)

	first := teams[0]
	assert.Equal(t, "Rossi", first.Player1Name)
	assert.Equal(t, "Bianchi", first.Player2Name)
	assert.Equal(t, int64(1001), *first.Player1No)
	assert.Equal(t, int64(1002), *first.Player2No)
	assert.Equal(t, 3, *first.Rank)
	assert.Equal(t, "ITA", first.CountryCode)
	assert.Equal(t, roster.Withdrawn, first.Status)

	second := teams[1]
	assert.Nil(t, second.Player1No)
	assert.Nil(t, second.Rank)
	assert.Equal(t, "USA", second.CountryCode)
	assert.Empty(t, second.Player1Name)

	assert.Empty(t, teams[2].CountryCode)
}

func TestSplitTeamName(t *testing.T) {
	a, b := splitTeamName(" Rossi / Bianchi ")
	assert.Equal(t, "Rossi", a)
	assert.Equal(t, "Bianchi", b)

	for _, name := range []string{"", "Solo", "A/B/C", "/B", "A/"} {
		a, b := splitTeamName(name)
		assert.Empty(t, a, name)
		assert.Empty(t, b, name)
	}
}
