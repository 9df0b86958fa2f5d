// Command crawl captures the current rosters of upcoming FIVB beach events
// and records them as one dated run. It is meant to be started once a day by
// an external scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PetLahev/fivb-monitor/internal/alert"
	"github.com/PetLahev/fivb-monitor/internal/config"
	"github.com/PetLahev/fivb-monitor/internal/db"
	"github.com/PetLahev/fivb-monitor/internal/metrics"
	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/PetLahev/fivb-monitor/internal/service"
	"github.com/PetLahev/fivb-monitor/internal/store"
	"github.com/PetLahev/fivb-monitor/internal/vis"
	"github.com/joho/godotenv"
)

type options struct {
	year            int
	date            string
	note            string
	dryRun          bool
	backfillCountry int
}

func parseFlags(args []string, today roster.Date) (options, error) {
	var opts options
	fs := flag.NewFlagSet("crawl", flag.ContinueOnError)
	fs.IntVar(&opts.year, "year", today.Year, "season to list events for")
	fs.StringVar(&opts.date, "date", "", "run date as YYYY-MM-DD, defaults to today in the configured time zone")
	fs.StringVar(&opts.note, "note", "", "free-text note stored on the run")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "crawl and print without writing")
	fs.IntVar(&opts.backfillCountry, "backfill-country", 0, "fill missing team country codes for events of this year instead of crawling")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	slog.SetDefault(cfg.NewLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		slog.Error("crawl failed", "error", err)

		alertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		nerr := alert.NotifyAll(alertCtx, "FIVB crawl failed: "+err.Error(),
			alert.NewWebhook(cfg.AlertWebhookURL),
			alert.NewEmail(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.AlertEmailTo),
		)
		if nerr != nil {
			slog.Warn("failed to send alert", "error", nerr)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	today := roster.Today(cfg.Location())
	opts, err := parseFlags(args, today)
	if err != nil {
		return err
	}

	runDate := today
	if opts.date != "" {
		if runDate, err = roster.ParseDate(opts.date); err != nil {
			return fmt.Errorf("bad -date: %w", err)
		}
	}

	m := metrics.NewManager()
	defer func() {
		if perr := m.Push(context.WithoutCancel(ctx), cfg.PushgatewayURL, "fivb_crawl"); perr != nil {
			slog.Warn("failed to push metrics", "error", perr)
		}
	}()

	client := vis.NewClient(cfg.VISEndpoint,
		vis.WithApplicationID(cfg.ApplicationID),
		vis.WithTimeout(cfg.HTTPTimeout),
		vis.WithRetry(cfg.MaxAttempts, cfg.RetryWait),
		vis.WithRequestBudget(cfg.MaxRequests),
		vis.WithMetrics(m),
	)

	if opts.dryRun {
		events, err := client.Crawl(ctx, opts.year, today, cfg.WindowDays)
		printSummary(out, events)
		return err
	}

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	entities := store.NewEntityStore(database)

	if opts.backfillCountry != 0 {
		report, err := service.NewBackfillService(database, entities, client).BackfillCountry(ctx, opts.backfillCountry)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Backfill %d: %d tournaments checked, %d teams updated, %d failed\n",
			opts.backfillCountry, report.Tournaments, report.Updated, report.Failed)
		return nil
	}

	events, crawlErr := client.Crawl(ctx, opts.year, today, cfg.WindowDays)
	printSummary(out, events)
	if crawlErr != nil && len(events) == 0 {
		return crawlErr
	}

	runs := store.NewRunStore(database)
	ingest := service.NewIngestService(database, service.NewRegistry(entities), runs, store.NewSnapshotStore(database), m)
	report, err := ingest.Ingest(ctx, runDate, events)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved run %s: %d snapshots in %d tournaments\n", runDate, report.Written(), len(report.Tournaments))

	if opts.note != "" {
		if err := runs.AnnotateRun(ctx, report.Run.ID, opts.note); err != nil {
			return fmt.Errorf("failed to annotate run: %w", err)
		}
	}

	return errors.Join(crawlErr, report.Err())
}

func printSummary(out io.Writer, events []roster.EventRoster) {
	for _, ev := range events {
		e := ev.Event
		fmt.Fprintf(out, "\nEvent %d | %s | %s | %s -> %s\n", e.No, e.Code, e.Name, e.StartDate, e.EndDate)
		for _, t := range ev.Tournaments {
			fmt.Fprintf(out, "  Tournament %d (%s) teams: %d\n", t.No, t.Gender, len(t.Teams))
			for _, team := range t.Teams {
				rank := "-"
				if team.Rank != nil {
					rank = fmt.Sprint(*team.Rank)
				}
				fmt.Fprintf(out, "    [%s] %s (rank=%s, players=%s/%s)\n",
					team.Status, team.Name, rank, playerNo(team.Player1No), playerNo(team.Player2No))
			}
		}
	}
}

func playerNo(n *int64) string {
	if n == nil {
		return "?"
	}
	return fmt.Sprint(*n)
}
