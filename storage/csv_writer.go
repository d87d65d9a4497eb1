package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"flightfare-pipeline/models"
)

// ProcessedWriter writes the cleaned dataset and the dashboard summary
// tables as CSV files under one processed-data directory.
type ProcessedWriter struct {
	dir string
}

// NewProcessedWriter creates the processed-data directory if needed.
func NewProcessedWriter(dir string) (*ProcessedWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("processed: create dir %q: %w", dir, err)
	}
	return &ProcessedWriter{dir: dir}, nil
}

func (p *ProcessedWriter) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(p.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("processed: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("processed: write header of %q: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("processed: write row of %q: %w", name, err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteCleaned writes the unified cleaned dataset (all_flights_cleaned.csv).
func (p *ProcessedWriter) WriteCleaned(records []*models.CleanedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.FlightNumber, r.AirlineName,
			r.SourceCity, r.DestinationCity, r.SourceAirport, r.DestinationAirport,
			r.Date, r.DepartureTime, r.ArrivalTime, r.Layover,
			strconv.Itoa(r.TotalFare),
			strconv.Itoa(r.DepHour), string(r.Bucket), r.DayOfWeek,
			strconv.FormatBool(r.Weekend), strconv.FormatBool(r.Holiday),
		})
	}
	return p.writeFile("all_flights_cleaned.csv", []string{
		"flight_number", "airline_name",
		"source_city", "destination_city", "source_airport", "destination_airport",
		"date", "departure_time", "arrival_time", "layover",
		"total_fare", "dep_hour", "time_bucket", "day_of_week", "is_weekend", "is_holiday",
	}, rows)
}

// WriteAirlineSummary writes mean fare by airline (monthly_summary_by_airline.csv).
func (p *ProcessedWriter) WriteAirlineSummary(fares map[string]float64) error {
	airlines := make([]string, 0, len(fares))
	for a := range fares {
		airlines = append(airlines, a)
	}
	sort.Strings(airlines)

	rows := make([][]string, 0, len(airlines))
	for _, a := range airlines {
		rows = append(rows, []string{a, strconv.FormatFloat(fares[a], 'f', 2, 64)})
	}
	return p.writeFile("monthly_summary_by_airline.csv",
		[]string{"airline_name", "avg_fare"}, rows)
}

// WriteBucketSummary writes mean fare by time-of-day bucket
// (monthly_summary_by_segment.csv).
func (p *ProcessedWriter) WriteBucketSummary(fares map[models.TimeBucket]float64) error {
	order := []models.TimeBucket{
		models.BucketMorning, models.BucketAfternoon,
		models.BucketEvening, models.BucketUnknown,
	}
	var rows [][]string
	for _, b := range order {
		if avg, ok := fares[b]; ok {
			rows = append(rows, []string{string(b), strconv.FormatFloat(avg, 'f', 2, 64)})
		}
	}
	return p.writeFile("monthly_summary_by_segment.csv",
		[]string{"departure_segment", "avg_fare"}, rows)
}

// WriteDailyStats writes the four-estimator daily table (daily_statistics.csv).
func (p *ProcessedWriter) WriteDailyStats(stats []models.DailyStatistic) error {
	rows := make([][]string, 0, len(stats))
	for _, d := range stats {
		rows = append(rows, []string{
			d.Date,
			strconv.FormatFloat(d.RawMean, 'f', 2, 64),
			strconv.FormatFloat(d.FilteredMean, 'f', 2, 64),
			strconv.FormatFloat(d.Median, 'f', 2, 64),
			strconv.FormatFloat(d.TrimmedMean, 'f', 2, 64),
			strconv.Itoa(d.SampleCount),
			strconv.FormatBool(d.Weekend),
			strconv.FormatBool(d.Holiday),
		})
	}
	return p.writeFile("daily_statistics.csv", []string{
		"date", "raw_mean", "filtered_mean", "median", "trimmed_mean",
		"sample_count", "is_weekend", "is_holiday",
	}, rows)
}
