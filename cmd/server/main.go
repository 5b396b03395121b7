package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "rollcall/internal/adapters/http"
	"rollcall/internal/adapters/memory"
	pg "rollcall/internal/adapters/postgres"
	"rollcall/internal/config"
	"rollcall/internal/fetchcache"
	"rollcall/internal/hackerrank"
	"rollcall/internal/leetcode"
	"rollcall/internal/logging"
	"rollcall/internal/ports"
	"rollcall/internal/roster"
	exportsvc "rollcall/internal/services/export"
	studentsvc "rollcall/internal/services/students"
	"rollcall/internal/workers/exportrunner"
)

func main() {
	cfg, err := config.Load()
	logger := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var (
		jobs    ports.JobRepository
		rosters ports.RosterRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := pg.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		jobs, rosters = db, db
	} else {
		logger.Info("DATABASE_URL not set, keeping jobs and rosters in memory")
		jobs, rosters = memory.NewJobs(), memory.NewRosters()
	}

	store := roster.NewStore()
	if err := loadRoster(ctx, cfg, store, rosters, logger); err != nil {
		return err
	}

	badges := fetchcache.Badges(hackerrank.NewClient(cfg.HackerRankBadgeURL, cfg.BadgeTimeout(), logger), cfg.FetchCacheTTL())
	stats := fetchcache.Stats(leetcode.NewClient(cfg.LeetCodeStatsURL, cfg.StatsTimeout(), logger), cfg.FetchCacheTTL())
	students := studentsvc.New(store, badges, stats)
	exporter := exportsvc.New(students, cfg.ExportConcurrency, logger)
	processor := exportrunner.FileProcessor{Store: store, Exporter: exporter, Repo: jobs, Dir: cfg.ExportDir}

	srv := httpadapter.New(httpadapter.Deps{
		Students:       students,
		Exporter:       exporter,
		Store:          store,
		Rosters:        rosters,
		Jobs:           jobs,
		Processor:      processor,
		UploadMaxBytes: cfg.UploadMaxBytes,
		Logger:         logger,
	})
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	if cfg.ExportWorkers > 0 {
		exportrunner.Run(ctx, jobs, processor, cfg.ExportWorkers, 500*time.Millisecond, logger)
		logger.Info("export workers started", "workers", cfg.ExportWorkers)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	logger.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// loadRoster prefers the newest persisted upload and falls back to ROSTER_PATH.
func loadRoster(ctx context.Context, cfg config.Config, store *roster.Store, rosters ports.RosterRepository, logger *slog.Logger) error {
	snap, found, err := rosters.LatestRoster(ctx)
	if err != nil {
		return err
	}
	if found && store.Restore(snap) {
		logger.Info("roster restored", "version", snap.Version, "source", snap.Source, "students", snap.Roster.Len())
		return nil
	}
	if cfg.RosterPath == "" {
		logger.Warn("no roster loaded; upload one from the index page")
		return nil
	}

	f, err := os.Open(cfg.RosterPath)
	if err != nil {
		return err
	}
	defer f.Close()
	parsed, err := roster.ParseFile(cfg.RosterPath, f)
	if err != nil {
		return err
	}
	snap = store.Replace(parsed, cfg.RosterPath)
	logger.Info("roster loaded", "path", cfg.RosterPath, "students", parsed.Len())
	return rosters.SaveRoster(ctx, snap)
}
