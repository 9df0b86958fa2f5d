package vis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVIS answers by request type. Responses per key are served in order and
// the last one repeats.
type fakeVIS struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	calls     map[string]int
	headers   http.Header
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeVIS() *fakeVIS {
	return &fakeVIS{responses: map[string][]fakeResponse{}, calls: map[string]int{}}
}

func (f *fakeVIS) on(key string, status int, body string) {
	f.responses[key] = append(f.responses[key], fakeResponse{status: status, body: body})
}

// key matches the first registered key contained in the request document.
func (f *fakeVIS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headers = r.Header.Clone()

	doc := r.URL.Query().Get("Request")
	for key, list := range f.responses {
		if !strings.Contains(doc, key) {
			continue
		}
		i := f.calls[key]
		f.calls[key]++
		if i >= len(list) {
			i = len(list) - 1
		}
		w.WriteHeader(list[i].status)
		fmt.Fprint(w, list[i].body)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "<Responses/>")
}

func (f *fakeVIS) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func newTestClient(t *testing.T, f *fakeVIS, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetry(3, 0), WithRequestBudget(0)}, opts...)
	return NewClient(srv.URL, opts...)
}

func TestClient_HeadersAndRetry(t *testing.T) {
	f := newFakeVIS()
	f.on("GetEvent'", http.StatusServiceUnavailable, "")
	f.on("GetEvent'", http.StatusOK, "   ")
	f.on("GetEvent'", http.StatusOK, `<Event><BeachTournament No="8136" Gender="M"/></Event>`)

	c := newTestClient(t, f, WithApplicationID("test-app"))
	refs, err := c.FetchEventTournaments(context.Background(), 501)
	require.NoError(t, err)
	assert.Equal(t, []TournamentRef{{No: 8136, Gender: roster.Men}}, refs)
	assert.Equal(t, 3, f.callCount("GetEvent'"))
	assert.Equal(t, 1, c.Requests(), "retries are not separate logical requests")
	assert.Equal(t, "test-app", f.headers.Get("Application"))
	assert.Contains(t, f.headers.Get("User-Agent"), "FIVB-Fetcher")
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFakeVIS()
	f.on("GetEvent'", http.StatusOK, `<Event><BeachTournament`)

	c := newTestClient(t, f, WithRetry(2, 0))
	_, err := c.FetchEventTournaments(context.Background(), 501)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, f.callCount("GetEvent'"))
}

func TestClient_RequestBudget(t *testing.T) {
	f := newFakeVIS()
	c := newTestClient(t, f, WithRequestBudget(2))

	_, err := c.FetchEventTournaments(context.Background(), 1)
	require.NoError(t, err)
	_, err = c.FetchEventTournaments(context.Background(), 2)
	require.NoError(t, err)
	_, err = c.FetchEventTournaments(context.Background(), 3)
	assert.ErrorIs(t, err, ErrRequestBudget)
}

func TestFetchUpcomingEvents_Window(t *testing.T) {
	f := newFakeVIS()
	f.on("GetEventList", http.StatusOK, `<Responses>
  <Event No="1" Code="PAST" StartDate="2025-11-16" EndDate="2025-11-20"/>
  <Event No="2" Code="TODAY" StartDate="2025-11-17" EndDate="2025-11-20"/>
  <Event No="3" Code="EDGE" StartDate="2025-12-15" EndDate="2025-12-20"/>
  <Event No="4" Code="LATE" StartDate="2025-12-16" EndDate="2025-12-20"/>
</Responses>`)

	c := newTestClient(t, f)
	events, err := c.FetchUpcomingEvents(context.Background(), 2025, roster.MustParseDate("2025-11-17"), 28)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "TODAY", events[0].Code)
	assert.Equal(t, "EDGE", events[1].Code)
}

func TestFetchTeams_AllStatusesDeduped(t *testing.T) {
	f := newFakeVIS()
	f.on("Status='Registered'", http.StatusOK,
		`<R><BeachTeam Name="A/B" NoPlayer1="1" NoPlayer2="2" Rank="1"/><BeachTeam Name="C/D" NoPlayer1="3" NoPlayer2="4"/></R>`)
	f.on("Status='Withdrawn'", http.StatusOK,
		`<R><BeachTeam Name="A/B" NoPlayer1="1" NoPlayer2="2"/></R>`)
	f.on("Status='WithdrawnWithMedicalCert'", http.StatusOK, `<R/>`)
	f.on("Status='Deleted'", http.StatusOK, `<R/>`)

	c := newTestClient(t, f)
	teams, err := c.FetchTeams(context.Background(), 8136)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, roster.Withdrawn, teams[0].Status)
	assert.Equal(t, roster.Registered, teams[1].Status)
	assert.Equal(t, 4, c.Requests())
}

func TestCrawl_DropsIncompleteTournaments(t *testing.T) {
	f := newFakeVIS()
	f.on("GetEventList", http.StatusOK, `<R>
  <Event No="501" Code="BVB-ITA2025" Name="Rome" StartDate="2025-11-20" EndDate="2025-11-24"/>
  <Event No="502" Code="BVB-ESP2025" Name="Madrid" StartDate="2025-11-21" EndDate="2025-11-25"/>
</R>`)
	f.on("No='501'", http.StatusOK, `<Event><BeachTournament No="8136" Gender="M"/><BeachTournament No="8137" Gender="W"/></Event>`)
	f.on("No='502'", http.StatusInternalServerError, "")
	f.on("NoTournament='8136'", http.StatusOK, `<R><BeachTeam Name="A/B" NoPlayer1="1" NoPlayer2="2"/></R>`)
	f.on("NoTournament='8137'", http.StatusBadGateway, "")

	c := newTestClient(t, f, WithRetry(1, 0))
	rosters, err := c.Crawl(context.Background(), 2025, roster.MustParseDate("2025-11-17"), 28)
	require.NoError(t, err)
	require.Len(t, rosters, 1)

	rome := rosters[0]
	assert.Equal(t, int64(501), rome.Event.No)
	require.Len(t, rome.Tournaments, 1)
	assert.Equal(t, int64(8136), rome.Tournaments[0].No)
	assert.Len(t, rome.Tournaments[0].Teams, 1)
}

func TestCrawl_StopsOnBudget(t *testing.T) {
	f := newFakeVIS()
	f.on("GetEventList", http.StatusOK, `<R><Event No="501" Code="X" StartDate="2025-11-20" EndDate="2025-11-24"/></R>`)
	f.on("No='501'", http.StatusOK, `<Event><BeachTournament No="8136" Gender="M"/></Event>`)

	// GetEventList + GetEvent + 2 of the 4 team lists.
	c := newTestClient(t, f, WithRequestBudget(4))
	rosters, err := c.Crawl(context.Background(), 2025, roster.MustParseDate("2025-11-17"), 28)
	assert.ErrorIs(t, err, ErrRequestBudget)
	assert.Empty(t, rosters)
}
