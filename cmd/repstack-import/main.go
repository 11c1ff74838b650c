package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/repstack/repstack/internal/config"
	"github.com/repstack/repstack/internal/importer"
	"github.com/repstack/repstack/internal/ingest/hevy"
	"github.com/repstack/repstack/internal/records"
	"github.com/repstack/repstack/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("path", "", "path to directory of CSV export files (required)")
	userID := flag.Int("user", 1, "user ID to import as")
	stateDir := flag.String("state-dir", "", "directory for the import state database (skips unchanged files on re-runs)")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repstack-import -config config.yaml -path /path/to/exports [-user 1] [-state-dir dir] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	if err := godotenv.Load(); err == nil {
		log.Info("loaded .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	if err := storage.RunMigrations(dsn, cfg.Database.MigrationsPath); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	}

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	var state *importer.StateDB
	if *stateDir != "" {
		state, err = importer.OpenStateDB(*stateDir)
		if err != nil {
			log.Error("failed to open state database", "error", err)
			os.Exit(1)
		}
		defer state.Close()
	}

	provider := hevy.NewProvider(db, records.Config{WeightTolerance: cfg.Records.WeightTolerance}, log)

	imp := importer.New(provider, state, log, *dryRun)
	stats, err := imp.Import(ctx, *exportPath, *userID)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions_imported", stats.Result.SessionsImported,
		"items_imported", stats.Result.ItemsImported,
		"sets_inserted", stats.Result.SetsInserted,
		"custom_exercises_created", stats.Result.CustomExercisesCreated,
		"records_detected", stats.Result.RecordsDetected,
	)
	for _, msg := range stats.Result.RecordMessages {
		log.Info("personal best", "record", msg)
	}
}
