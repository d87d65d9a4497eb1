package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flightfare-pipeline/models"
	"flightfare-pipeline/utils"
)

func newTestStore(t *testing.T) *CSVPartitionStore {
	t.Helper()
	store, err := NewCSVPartitionStore(t.TempDir(), utils.NewLogger())
	if err != nil {
		t.Fatalf("NewCSVPartitionStore: %v", err)
	}
	return store
}

func sampleRecords(date string) []*models.FlightRecord {
	tax := 250
	return []*models.FlightRecord{
		{
			FlightNumber: "6E 195", AirlineName: "IndiGo",
			SourceCity: "Mumbai", DestinationCity: "Delhi",
			SourceAirport: "BOM", DestinationAirport: "DEL",
			Date: date, DepartureTime: "6:30 PM", ArrivalTime: "8:45 PM",
			Layover: "non-stop", TotalFare: 4523, Tax: &tax,
			ScrapedAt: time.Now().Truncate(time.Second),
		},
		{
			FlightNumber: "AI 864", AirlineName: "Air India",
			SourceCity: "Mumbai", DestinationCity: "Delhi",
			SourceAirport: "BOM", DestinationAirport: "DEL",
			Date: date, DepartureTime: "7:00 AM", ArrivalTime: "9:10 AM",
			Layover: "non-stop", TotalFare: 5100,
			ScrapedAt: time.Now().Truncate(time.Second),
		},
	}
}

func TestPartitionWriteThenExists(t *testing.T) {
	store := newTestStore(t)

	if store.Exists("2026-09-02") {
		t.Fatal("Exists true before any write")
	}
	if err := store.Write("2026-09-02", sampleRecords("2026-09-02")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !store.Exists("2026-09-02") {
		t.Error("Exists false after write")
	}
}

func TestPartitionRefusesOverwrite(t *testing.T) {
	store := newTestStore(t)

	if err := store.Write("2026-09-02", sampleRecords("2026-09-02")); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := store.Write("2026-09-02", sampleRecords("2026-09-02")); err == nil {
		t.Error("second Write to the same date must be refused")
	}
}

func TestPartitionRefusesEmpty(t *testing.T) {
	store := newTestStore(t)

	if err := store.Write("2026-09-02", nil); err == nil {
		t.Error("empty partition write must be refused — absence of a file marks an unacquired date")
	}
	if store.Exists("2026-09-02") {
		t.Error("no file should exist after a refused write")
	}
}

func TestPartitionLeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)

	if err := store.Write("2026-09-02", sampleRecords("2026-09-02")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(store.dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestPartitionLoadAllRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.Write("2026-09-03", sampleRecords("2026-09-03")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Write("2026-09-02", sampleRecords("2026-09-02")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("loaded %d records, want 4", len(all))
	}
	// Date order regardless of write order.
	if all[0].Date != "2026-09-02" || all[3].Date != "2026-09-03" {
		t.Errorf("records not in date order: first %s, last %s", all[0].Date, all[3].Date)
	}

	first := all[0]
	if first.AirlineName != "IndiGo" || first.TotalFare != 4523 {
		t.Errorf("round trip mangled record: %+v", first)
	}
	if first.Tax == nil || *first.Tax != 250 {
		t.Errorf("optional tax column lost: %+v", first.Tax)
	}
	if all[1].Tax != nil {
		t.Errorf("absent tax should stay nil, got %v", *all[1].Tax)
	}
}

func TestPartitionToleratesAbsentDates(t *testing.T) {
	store := newTestStore(t)

	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll on empty store: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("empty store should load zero records, got %d", len(all))
	}

	dates, err := store.Dates()
	if err != nil {
		t.Fatalf("Dates: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("empty store should list zero dates, got %v", dates)
	}
}

func TestPartitionSkipsMalformedRows(t *testing.T) {
	store := newTestStore(t)

	if err := store.Write("2026-09-02", sampleRecords("2026-09-02")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Corrupt the fare column of one row in place.
	path := filepath.Join(store.dir, "2026-09-02.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read partition: %v", err)
	}
	content := strings.Replace(string(data), "4523", "not-a-number", 1)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write corrupted partition: %v", err)
	}

	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("loaded %d records, want 1 (malformed row skipped, not fatal)", len(all))
	}
}
