package main

import (
	"context"
	"fmt"
	"os"

	"flightfare-pipeline/config"
	"flightfare-pipeline/models"
	"flightfare-pipeline/scraper/makemytrip"
	"flightfare-pipeline/services"
	"flightfare-pipeline/storage"
	"flightfare-pipeline/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Flight Fare Pipeline starting ===")
	logger.Info("Route: %s | days: %d (offset %d) | headless: %v | delay: %d-%ds",
		cfg.Route(), cfg.DaysToScrape, cfg.StartOffsetDays,
		cfg.Headless, cfg.DelayMinSec, cfg.DelayMaxSec)

	store, err := storage.NewCSVPartitionStore(cfg.RawDataDir, logger)
	if err != nil {
		logger.Error("Failed to initialize partition store: %v", err)
		os.Exit(1)
	}

	// Phase 1: acquisition. Per-date failures are folded into the report.
	logger.Info("--- Phase 1: acquisition ---")
	scraper := makemytrip.New(cfg, logger, store)
	report := scraper.Run(context.Background())

	if !report.Persisted() {
		logger.Error("No date produced or already had records. Exiting.")
		os.Exit(1)
	}

	// Phase 2: processing. Reads whatever partitions exist, including those
	// from earlier runs. Runs even when some dates failed above.
	logger.Info("--- Phase 2: processing ---")
	raw, err := store.LoadAll()
	if err != nil {
		logger.Error("Failed to load partitions: %v", err)
		os.Exit(1)
	}
	logger.Info("Loaded %d raw records from partitions", len(raw))

	holidays := services.NewHolidayCalendar()
	cleaner := services.NewCleaner(logger, holidays)
	cleaned := cleaner.FilterOutliers(cleaner.Clean(raw))

	if len(cleaned) == 0 {
		logger.Error("All records were dropped during cleaning. Exiting.")
		os.Exit(1)
	}

	denoiser := services.NewDenoiser(logger)
	summary, err := denoiser.Generate(cleaned)
	if err != nil {
		logger.Error("Denoising failed: %v", err)
		os.Exit(1)
	}

	writeOutputs(cfg, logger, cleaned, summary)
	denoiser.Print(summary)

	fmt.Printf("  Done. Partitions → %s | Processed data → %s | Stats → PostgreSQL\n\n",
		cfg.RawDataDir, cfg.ProcessedDir)
}

// writeOutputs persists the cleaned dataset and summary tables. CSV output
// is required; the PostgreSQL mirror for the dashboard is best effort.
func writeOutputs(cfg *config.Config, logger *utils.Logger,
	cleaned []*models.CleanedRecord, summary *models.SummaryReport) {

	pw, err := storage.NewProcessedWriter(cfg.ProcessedDir)
	if err != nil {
		logger.Error("Failed to create processed writer: %v", err)
		os.Exit(1)
	}
	if err := pw.WriteCleaned(cleaned); err != nil {
		logger.Error("Cleaned dataset write failed: %v", err)
	}
	if err := pw.WriteAirlineSummary(summary.FareByAirline); err != nil {
		logger.Error("Airline summary write failed: %v", err)
	}
	if err := pw.WriteBucketSummary(summary.FareByBucket); err != nil {
		logger.Error("Segment summary write failed: %v", err)
	}
	if err := pw.WriteDailyStats(summary.Daily); err != nil {
		logger.Error("Daily statistics write failed: %v", err)
	}

	pg, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Warn("PostgreSQL unavailable, dashboard tables not updated: %v", err)
		return
	}
	defer pg.Close()

	if err := pg.WriteCleaned(cleaned); err != nil {
		logger.Error("PostgreSQL cleaned write failed: %v", err)
	}
	if err := pg.WriteDailyStats(summary.Daily); err != nil {
		logger.Error("PostgreSQL daily stats write failed: %v", err)
	} else {
		logger.Info("Dashboard tables updated (flights, daily_stats)")
	}
}
