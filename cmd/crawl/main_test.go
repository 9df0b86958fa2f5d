package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PetLahev/fivb-monitor/internal/config"
	"github.com/PetLahev/fivb-monitor/internal/db"
	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/PetLahev/fivb-monitor/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeVIS serves one upcoming event with one men's tournament holding a
// single team, listed under whatever status currently holds.
func newFakeVIS(t *testing.T, status *atomic.Value) *httptest.Server {
	t.Helper()
	today := roster.Today(config.New().Location())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc := r.URL.Query().Get("Request")
		switch {
		case strings.Contains(doc, "GetEventList"):
			fmt.Fprintf(w, `<Responses><Event No="501" Code="BVB-ITA%d" Name="Rome" StartDate="%s" EndDate="%s"/></Responses>`,
				today.Year, today.AddDays(3), today.AddDays(7))
		case strings.Contains(doc, "GetEvent'"):
			fmt.Fprint(w, `<Event><BeachTournament No="8136" Gender="0"/></Event>`)
		case strings.Contains(doc, "Status='"+string(status.Load().(roster.Status))+"'"):
			fmt.Fprint(w, `<R><BeachTeam Name="Rossi/Bianchi" NoPlayer1="1001" NoPlayer2="1002" Player1FederationCode="ITA"/></R>`)
		default:
			fmt.Fprint(w, `<R/>`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "crawl.db")
	cfg.VISEndpoint = endpoint
	cfg.RetryWait = 0
	cfg.MaxAttempts = 1
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun_TwoDaysThenWithdrawal(t *testing.T) {
	var status atomic.Value
	status.Store(roster.Registered)
	srv := newFakeVIS(t, &status)
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, []string{"-date", "2025-11-17", "-note", "first"}, &out))
	assert.Contains(t, out.String(), "[Registered] Rossi/Bianchi")
	assert.Contains(t, out.String(), "Saved run 2025-11-17: 1 snapshots in 1 tournaments")

	// Same date again is a no-op.
	out.Reset()
	require.NoError(t, run(ctx, cfg, []string{"-date", "2025-11-17"}, &out))
	assert.Contains(t, out.String(), "Saved run 2025-11-17: 0 snapshots")

	status.Store(roster.Withdrawn)
	require.NoError(t, run(ctx, cfg, []string{"-date", "2025-11-18"}, &out))

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	require.NoError(t, err)
	defer database.Close()

	runs, err := store.NewRunStore(database).ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.NotNil(t, runs[0].Note)
	assert.Equal(t, "first", *runs[0].Note)

	view, err := store.NewSnapshotStore(database).ViewWithdrawals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.Equal(t, "2025-11-18", view[0].WithdrawnAt.String())
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	var status atomic.Value
	status.Store(roster.Registered)
	srv := newFakeVIS(t, &status)
	cfg := testConfig(t, srv.URL)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, []string{"-dry-run"}, &out))
	assert.Contains(t, out.String(), "Tournament 8136 (M) teams: 1")
	assert.NotContains(t, out.String(), "Saved run")
}

func TestRun_BadFlags(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	err := run(context.Background(), cfg, []string{"-date", "17.11.2025"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "bad -date")
}

func TestRun_FeedDownFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	cfg := testConfig(t, srv.URL)

	err := run(context.Background(), cfg, nil, &bytes.Buffer{})
	assert.ErrorContains(t, err, "GetEventList failed")
}
