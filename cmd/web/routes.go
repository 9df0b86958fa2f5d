package main

import (
	"net/http"
	"strconv"

	"github.com/PetLahev/fivb-monitor/internal/httputil"
	"github.com/PetLahev/fivb-monitor/internal/metrics"
	"github.com/PetLahev/fivb-monitor/internal/middleware"
	"github.com/PetLahev/fivb-monitor/internal/service"
	"github.com/PetLahev/fivb-monitor/internal/store"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"
)

type routerConfig struct {
	db              *sqlx.DB
	metrics         *metrics.Manager
	eventCodeLength int
	eventCodePrefix string
	allowedOrigins  []string
}

func newRouter(cfg routerConfig) http.Handler {
	entities := store.NewEntityStore(cfg.db)
	lookupService := service.NewLookupService(entities, cfg.eventCodeLength, cfg.eventCodePrefix)
	withdrawalService := service.NewWithdrawalService(entities, store.NewRunStore(cfg.db), store.NewSnapshotStore(cfg.db))

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics(cfg.metrics))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.db.PingContext(r.Context()); err != nil {
			httputil.InternalServerError(w, "Database ping failed", err)
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", cfg.metrics.Handler())

	api := func(r chi.Router) {
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			events, err := withdrawalService.Events(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list events", err)
				return
			}
			httputil.JSON(w, http.StatusOK, events)
		})

		r.Get("/tournament/{no}/withdrawals", func(w http.ResponseWriter, r *http.Request) {
			no, err := strconv.ParseInt(chi.URLParam(r, "no"), 10, 64)
			if err != nil {
				httputil.BadRequest(w, "Tournament number must be an integer", err)
				return
			}
			info, err := lookupService.ByTournamentNo(r.Context(), no)
			if err != nil {
				httputil.Error(w, "Failed to resolve tournament", err)
				return
			}
			records, err := withdrawalService.ForTournament(r.Context(), info)
			if err != nil {
				httputil.InternalServerError(w, "Failed to derive withdrawals", err)
				return
			}
			httputil.JSON(w, http.StatusOK, records)
		})

		r.Get("/tournament/{no}/teams", func(w http.ResponseWriter, r *http.Request) {
			no, err := strconv.ParseInt(chi.URLParam(r, "no"), 10, 64)
			if err != nil {
				httputil.BadRequest(w, "Tournament number must be an integer", err)
				return
			}
			info, err := lookupService.ByTournamentNo(r.Context(), no)
			if err != nil {
				httputil.Error(w, "Failed to resolve tournament", err)
				return
			}
			current, err := withdrawalService.CurrentRoster(r.Context(), info)
			if err != nil {
				httputil.InternalServerError(w, "Failed to load roster", err)
				return
			}
			httputil.JSON(w, http.StatusOK, current)
		})

		r.Get("/tcode/{code}/withdrawals", func(w http.ResponseWriter, r *http.Request) {
			info, err := lookupService.ByCode(r.Context(), chi.URLParam(r, "code"))
			if err != nil {
				httputil.Error(w, "Failed to resolve tournament code", err)
				return
			}
			records, err := withdrawalService.ForTournament(r.Context(), info)
			if err != nil {
				httputil.InternalServerError(w, "Failed to derive withdrawals", err)
				return
			}
			httputil.JSON(w, http.StatusOK, records)
		})
	}

	api(r)
	r.Route("/api", api)

	return r
}
