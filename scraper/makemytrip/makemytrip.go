package makemytrip

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flightfare-pipeline/config"
	"flightfare-pipeline/models"
	"flightfare-pipeline/storage"
	"flightfare-pipeline/utils"
)

// sessionRunner acquires one date. Swappable so orchestration logic is
// testable without a browser.
type sessionRunner func(ctx context.Context, date time.Time) ([]*models.FlightRecord, models.DateOutcome)

// Scraper is the acquisition orchestrator: it enumerates target dates,
// skips dates that already have a partition, runs one isolated session per
// remaining date and sleeps a random interval between sessions. Dates run
// strictly sequentially — parallel sessions from one origin are an easy
// anti-bot signal.
type Scraper struct {
	cfg      *config.Config
	logger   *utils.Logger
	store    storage.PartitionStore
	throttle *utils.Throttle

	runSession sessionRunner
}

// New creates a ready-to-use Scraper backed by real browser sessions.
func New(cfg *config.Config, logger *utils.Logger, store storage.PartitionStore) *Scraper {
	extractor := NewExtractor(cfg, logger)
	s := &Scraper{
		cfg:    cfg,
		logger: logger,
		store:  store,
		throttle: utils.NewThrottle(
			time.Duration(cfg.DelayMinSec)*time.Second,
			time.Duration(cfg.DelayMaxSec)*time.Second,
		),
	}
	s.runSession = func(ctx context.Context, date time.Time) ([]*models.FlightRecord, models.DateOutcome) {
		return newSession(cfg, logger, extractor, date).Run(ctx)
	}
	return s
}

// TargetDates returns the departure dates to acquire, strictly ascending:
// now+offset .. now+offset+days-1.
func (s *Scraper) TargetDates(now time.Time) []time.Time {
	dates := make([]time.Time, 0, s.cfg.DaysToScrape)
	for i := 0; i < s.cfg.DaysToScrape; i++ {
		dates = append(dates, now.AddDate(0, 0, s.cfg.StartOffsetDays+i))
	}
	return dates
}

// Run executes the full acquisition loop and returns the run report. One
// date's failure never aborts the remaining dates.
func (s *Scraper) Run(ctx context.Context) *models.RunReport {
	report := &models.RunReport{
		RunID:     uuid.NewString(),
		Route:     s.cfg.Route(),
		StartedAt: time.Now(),
	}

	dates := s.TargetDates(time.Now())
	s.logger.Info("[mmt] run %s — %d dates, route %s", report.RunID, len(dates), report.Route)

	for i, date := range dates {
		iso := date.Format("2006-01-02")

		if s.store.Exists(iso) {
			// A finished partition is never overwritten, even when empty.
			s.logger.Info("[mmt] %s already persisted — skipping", iso)
			report.Dates = append(report.Dates, models.DateOutcome{
				Date:    iso,
				Outcome: models.OutcomeSkipped,
			})
			continue
		}

		s.logger.Info("[mmt] [%d/%d] acquiring %s", i+1, len(dates), iso)
		records, outcome := s.acquire(ctx, date)

		if len(records) > 0 {
			if err := s.store.Write(iso, records); err != nil {
				s.logger.Error("[mmt] %s: persist failed: %v", iso, err)
				outcome = models.DateOutcome{
					Date:    iso,
					Outcome: models.OutcomeFailed,
					Detail:  fmt.Sprintf("persist: %v", err),
				}
			} else {
				s.logger.Info("[mmt] %s: saved %d flights", iso, len(records))
			}
		} else {
			s.logger.Info("[mmt] %s: no valid records (%s)", iso, outcome.Outcome)
		}
		report.Dates = append(report.Dates, outcome)

		// The randomized gap between sessions is the primary defense against
		// volumetric detection; it applies after every live session.
		if i < len(dates)-1 {
			gap := s.throttle.Next()
			s.logger.Info("[mmt] sleeping %.1fs before next date", gap.Seconds())
			time.Sleep(gap)
		}
	}

	s.logger.Info("[mmt] run complete — success: %d, skipped: %d, empty: %d, inconclusive: %d, failed: %d",
		report.Count(models.OutcomeSuccess),
		report.Count(models.OutcomeSkipped),
		report.Count(models.OutcomeEmpty),
		report.Count(models.OutcomeInconclusive),
		report.Count(models.OutcomeFailed))
	return report
}

// acquire runs one session with failure isolation: a panic inside the
// browser layer becomes a Failed outcome instead of ending the run.
func (s *Scraper) acquire(ctx context.Context, date time.Time) (records []*models.FlightRecord, outcome models.DateOutcome) {
	iso := date.Format("2006-01-02")
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[mmt] %s: session panic: %v", iso, r)
			records = nil
			outcome = models.DateOutcome{
				Date:    iso,
				Outcome: models.OutcomeFailed,
				Detail:  fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return s.runSession(ctx, date)
}
