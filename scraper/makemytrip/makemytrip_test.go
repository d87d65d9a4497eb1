package makemytrip

import (
	"context"
	"strings"
	"testing"
	"time"

	"flightfare-pipeline/config"
	"flightfare-pipeline/models"
	"flightfare-pipeline/storage"
	"flightfare-pipeline/utils"
)

func orchestratorConfig(days int) *config.Config {
	cfg := testConfig()
	cfg.DaysToScrape = days
	cfg.StartOffsetDays = 1
	// No inter-session pacing in tests.
	cfg.DelayMinSec = 0
	cfg.DelayMaxSec = 0
	return cfg
}

func newTestScraper(t *testing.T, cfg *config.Config, run sessionRunner) (*Scraper, *storage.CSVPartitionStore) {
	t.Helper()
	logger := utils.NewLogger()
	store, err := storage.NewCSVPartitionStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("partition store: %v", err)
	}
	s := New(cfg, logger, store)
	s.runSession = run
	return s, store
}

func fakeRecords(date string, fares ...int) []*models.FlightRecord {
	var recs []*models.FlightRecord
	for _, fare := range fares {
		recs = append(recs, &models.FlightRecord{
			FlightNumber:  "6E 1",
			AirlineName:   "IndiGo",
			Date:          date,
			DepartureTime: "9:00 AM",
			TotalFare:     fare,
			ScrapedAt:     time.Now(),
		})
	}
	return recs
}

func TestOrchestratorTargetDatesAscending(t *testing.T) {
	s, _ := newTestScraper(t, orchestratorConfig(5), nil)

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	dates := s.TargetDates(now)
	if len(dates) != 5 {
		t.Fatalf("got %d dates, want 5", len(dates))
	}
	if dates[0].Format("2006-01-02") != "2026-09-02" {
		t.Errorf("first date: got %s, want 2026-09-02 (offset 1)", dates[0].Format("2006-01-02"))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Errorf("dates not strictly ascending at index %d", i)
		}
	}
}

func TestOrchestratorIdempotentRerun(t *testing.T) {
	cfg := orchestratorConfig(3)

	calls := 0
	runner := func(ctx context.Context, date time.Time) ([]*models.FlightRecord, models.DateOutcome) {
		calls++
		iso := date.Format("2006-01-02")
		return fakeRecords(iso, 4000, 4500), models.DateOutcome{
			Date: iso, Outcome: models.OutcomeSuccess, RecordCount: 2,
		}
	}

	s, store := newTestScraper(t, cfg, runner)
	first := s.Run(context.Background())
	if got := first.Count(models.OutcomeSuccess); got != 3 {
		t.Fatalf("first run successes: got %d, want 3", got)
	}
	if calls != 3 {
		t.Fatalf("first run sessions: got %d, want 3", calls)
	}

	// Second run over the same range and storage: every date skips, no
	// session runs, no partition is touched.
	second := New(cfg, utils.NewLogger(), store)
	second.runSession = func(ctx context.Context, date time.Time) ([]*models.FlightRecord, models.DateOutcome) {
		t.Errorf("session ran for %s despite existing partition", date.Format("2006-01-02"))
		return nil, models.DateOutcome{}
	}
	rerun := second.Run(context.Background())
	if got := rerun.Count(models.OutcomeSkipped); got != 3 {
		t.Errorf("second run skips: got %d, want 3", got)
	}
}

func TestOrchestratorFailureIsolation(t *testing.T) {
	cfg := orchestratorConfig(3)

	i := 0
	runner := func(ctx context.Context, date time.Time) ([]*models.FlightRecord, models.DateOutcome) {
		i++
		iso := date.Format("2006-01-02")
		if i == 2 {
			panic("browser crashed")
		}
		return fakeRecords(iso, 5000), models.DateOutcome{
			Date: iso, Outcome: models.OutcomeSuccess, RecordCount: 1,
		}
	}

	s, _ := newTestScraper(t, cfg, runner)
	report := s.Run(context.Background())

	if got := report.Count(models.OutcomeFailed); got != 1 {
		t.Errorf("failed outcomes: got %d, want 1", got)
	}
	if got := report.Count(models.OutcomeSuccess); got != 2 {
		t.Errorf("a mid-run panic must not abort later dates: successes got %d, want 2", got)
	}
	if len(report.Dates) != 3 {
		t.Errorf("report entries: got %d, want 3", len(report.Dates))
	}
}

func TestOrchestratorDoesNotPersistEmptyOutcome(t *testing.T) {
	cfg := orchestratorConfig(1)

	runner := func(ctx context.Context, date time.Time) ([]*models.FlightRecord, models.DateOutcome) {
		return nil, models.DateOutcome{
			Date:    date.Format("2006-01-02"),
			Outcome: models.OutcomeInconclusive,
			Detail:  "Flight Search",
		}
	}

	s, store := newTestScraper(t, cfg, runner)
	report := s.Run(context.Background())

	if got := report.Count(models.OutcomeInconclusive); got != 1 {
		t.Errorf("inconclusive outcomes: got %d, want 1", got)
	}
	dates, err := store.Dates()
	if err != nil {
		t.Fatalf("Dates: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("no partition should exist for a zero-record date, found %v", dates)
	}
}

func TestSearchURLFormat(t *testing.T) {
	cfg := testConfig()
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	url := searchURL(cfg, date)
	want := "itinerary=BOM-DEL-05/09/2026"
	if !strings.Contains(url, want) {
		t.Errorf("searchURL = %q, missing %q", url, want)
	}
	if !strings.Contains(url, "cabinClass=E") {
		t.Errorf("searchURL = %q, missing cabin class parameter", url)
	}
}
