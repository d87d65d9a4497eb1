package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"flightfare-pipeline/models"
	"flightfare-pipeline/utils"
)

var partitionHeader = []string{
	"flight_number", "airline_name",
	"source_city", "destination_city", "source_airport", "destination_airport",
	"date", "departure_time", "arrival_time", "layover",
	"total_fare", "base_fare", "tax", "scraped_at",
}

// CSVPartitionStore keeps one CSV file per departure date, named by ISO
// date. Writes go through a temp file plus rename so downstream readers
// never observe a partial partition.
type CSVPartitionStore struct {
	dir    string
	logger *utils.Logger
}

// NewCSVPartitionStore creates the store directory if needed. Failure here
// is fatal to the run — there is no degraded mode without storage.
func NewCSVPartitionStore(dir string, logger *utils.Logger) (*CSVPartitionStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("partition: create dir %q: %w", dir, err)
	}
	return &CSVPartitionStore{dir: dir, logger: logger}, nil
}

func (s *CSVPartitionStore) path(date string) string {
	return filepath.Join(s.dir, date+".csv")
}

// Exists reports whether a finalized partition for the date is on disk.
func (s *CSVPartitionStore) Exists(date string) bool {
	_, err := os.Stat(s.path(date))
	return err == nil
}

// Write persists one date's records. A date that already has a partition is
// refused: completed partitions are immutable.
func (s *CSVPartitionStore) Write(date string, records []*models.FlightRecord) error {
	if s.Exists(date) {
		return fmt.Errorf("partition: %s already exists, refusing overwrite", date)
	}
	if len(records) == 0 {
		return fmt.Errorf("partition: refusing to write empty partition for %s", date)
	}

	tmp := s.path(date) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("partition: create %q: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(partitionHeader); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("partition: write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.FlightNumber, r.AirlineName,
			r.SourceCity, r.DestinationCity, r.SourceAirport, r.DestinationAirport,
			r.Date, r.DepartureTime, r.ArrivalTime, r.Layover,
			strconv.Itoa(r.TotalFare), intOrEmpty(r.BaseFare), intOrEmpty(r.Tax),
			r.ScrapedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("partition: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("partition: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("partition: close: %w", err)
	}

	if err := os.Rename(tmp, s.path(date)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("partition: finalize %s: %w", date, err)
	}
	return nil
}

// Dates lists the dates with a finalized partition, ascending.
func (s *CSVPartitionStore) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("partition: read dir: %w", err)
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		dates = append(dates, strings.TrimSuffix(name, ".csv"))
	}
	sort.Strings(dates)
	return dates, nil
}

// LoadAll reads every partition into one unified slice, in date order. Any
// subset of dates may be absent; a row that fails to parse is skipped with
// a warning rather than failing the load.
func (s *CSVPartitionStore) LoadAll() ([]*models.FlightRecord, error) {
	dates, err := s.Dates()
	if err != nil {
		return nil, err
	}

	var all []*models.FlightRecord
	for _, date := range dates {
		records, err := s.load(date)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func (s *CSVPartitionStore) load(date string) ([]*models.FlightRecord, error) {
	f, err := os.Open(s.path(date))
	if err != nil {
		return nil, fmt.Errorf("partition: open %s: %w", date, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("partition: read %s: %w", date, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	var records []*models.FlightRecord
	for i, row := range rows[1:] {
		if len(row) != len(partitionHeader) {
			s.logger.Warn("[partition] %s row %d: %d columns, want %d — skipping",
				date, i+1, len(row), len(partitionHeader))
			continue
		}
		fare, err := strconv.Atoi(row[10])
		if err != nil {
			s.logger.Warn("[partition] %s row %d: bad fare %q — skipping", date, i+1, row[10])
			continue
		}
		scrapedAt, _ := time.Parse(time.RFC3339, row[13])
		records = append(records, &models.FlightRecord{
			FlightNumber:       row[0],
			AirlineName:        row[1],
			SourceCity:         row[2],
			DestinationCity:    row[3],
			SourceAirport:      row[4],
			DestinationAirport: row[5],
			Date:               row[6],
			DepartureTime:      row[7],
			ArrivalTime:        row[8],
			Layover:            row[9],
			TotalFare:          fare,
			BaseFare:           parseOptionalInt(row[11]),
			Tax:                parseOptionalInt(row[12]),
			ScrapedAt:          scrapedAt,
		})
	}
	return records, nil
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseOptionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
