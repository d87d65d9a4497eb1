package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"flightfare-pipeline/models"
)

// PostgresWriter persists the cleaned dataset and the daily statistics to
// PostgreSQL, where the dashboard reads them.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, runs schema migrations, and returns
// a ready-to-use writer.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			id             SERIAL PRIMARY KEY,
			flight_number  VARCHAR(50)  NOT NULL,
			airline_name   TEXT         NOT NULL,
			source_city    TEXT         NOT NULL,
			dest_city      TEXT         NOT NULL,
			source_airport VARCHAR(10)  NOT NULL,
			dest_airport   VARCHAR(10)  NOT NULL,
			dep_date       DATE         NOT NULL,
			dep_time       TEXT         NOT NULL DEFAULT '',
			arr_time       TEXT         NOT NULL DEFAULT '',
			layover        TEXT         NOT NULL DEFAULT 'non-stop',
			total_fare     INTEGER      NOT NULL,
			dep_hour       SMALLINT     NOT NULL DEFAULT -1,
			time_bucket    VARCHAR(16)  NOT NULL,
			day_of_week    VARCHAR(16)  NOT NULL,
			is_weekend     BOOLEAN      NOT NULL,
			is_holiday     BOOLEAN      NOT NULL,
			created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			UNIQUE (dep_date, flight_number, dep_time)
		);

		CREATE TABLE IF NOT EXISTS daily_stats (
			dep_date      DATE PRIMARY KEY,
			raw_mean      NUMERIC(12,2) NOT NULL,
			filtered_mean NUMERIC(12,2) NOT NULL,
			median        NUMERIC(12,2) NOT NULL,
			trimmed_mean  NUMERIC(12,2) NOT NULL,
			sample_count  INTEGER       NOT NULL,
			is_weekend    BOOLEAN       NOT NULL,
			is_holiday    BOOLEAN       NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_flights_airline ON flights(airline_name);
		CREATE INDEX IF NOT EXISTS idx_flights_date    ON flights(dep_date);
		CREATE INDEX IF NOT EXISTS idx_flights_bucket  ON flights(time_bucket);
	`)
	return err
}

// WriteCleaned replaces the flights table contents with the given records.
// The cleaned dataset is recomputed on every processing run, so a full
// rewrite keeps the table consistent with the CSV output.
func (pw *PostgresWriter) WriteCleaned(records []*models.CleanedRecord) error {
	if len(records) == 0 {
		return nil
	}

	if _, err := pw.db.Exec("DELETE FROM flights"); err != nil {
		return fmt.Errorf("postgres: clear flights: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.CleanedRecord) error {
	const cols = 16
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			r.FlightNumber, r.AirlineName,
			r.SourceCity, r.DestinationCity, r.SourceAirport, r.DestinationAirport,
			r.Date, r.DepartureTime, r.ArrivalTime, r.Layover,
			r.TotalFare, r.DepHour, string(r.Bucket), r.DayOfWeek, r.Weekend, r.Holiday)
	}

	query := fmt.Sprintf(`
		INSERT INTO flights (
			flight_number, airline_name,
			source_city, dest_city, source_airport, dest_airport,
			dep_date, dep_time, arr_time, layover,
			total_fare, dep_hour, time_bucket, day_of_week, is_weekend, is_holiday
		)
		VALUES %s
		ON CONFLICT (dep_date, flight_number, dep_time) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert flights batch: %w", err)
	}
	return nil
}

// WriteDailyStats upserts the per-date estimator rows.
func (pw *PostgresWriter) WriteDailyStats(stats []models.DailyStatistic) error {
	for _, d := range stats {
		_, err := pw.db.Exec(`
			INSERT INTO daily_stats (
				dep_date, raw_mean, filtered_mean, median, trimmed_mean,
				sample_count, is_weekend, is_holiday
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (dep_date) DO UPDATE SET
				raw_mean = EXCLUDED.raw_mean,
				filtered_mean = EXCLUDED.filtered_mean,
				median = EXCLUDED.median,
				trimmed_mean = EXCLUDED.trimmed_mean,
				sample_count = EXCLUDED.sample_count,
				is_weekend = EXCLUDED.is_weekend,
				is_holiday = EXCLUDED.is_holiday
		`, d.Date, d.RawMean, d.FilteredMean, d.Median, d.TrimmedMean,
			d.SampleCount, d.Weekend, d.Holiday)
		if err != nil {
			return fmt.Errorf("postgres: upsert daily stat %s: %w", d.Date, err)
		}
	}
	return nil
}

// FetchCleaned retrieves the stored cleaned records, date order.
func (pw *PostgresWriter) FetchCleaned() ([]*models.CleanedRecord, error) {
	rows, err := pw.db.Query(`
		SELECT flight_number, airline_name,
		       source_city, dest_city, source_airport, dest_airport,
		       to_char(dep_date, 'YYYY-MM-DD'), dep_time, arr_time, layover,
		       total_fare, dep_hour, time_bucket, day_of_week, is_weekend, is_holiday
		FROM flights
		ORDER BY dep_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch flights: %w", err)
	}
	defer rows.Close()

	var records []*models.CleanedRecord
	for rows.Next() {
		r := &models.CleanedRecord{}
		var bucket string
		if err := rows.Scan(
			&r.FlightNumber, &r.AirlineName,
			&r.SourceCity, &r.DestinationCity, &r.SourceAirport, &r.DestinationAirport,
			&r.Date, &r.DepartureTime, &r.ArrivalTime, &r.Layover,
			&r.TotalFare, &r.DepHour, &bucket, &r.DayOfWeek, &r.Weekend, &r.Holiday,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan flight row: %w", err)
		}
		r.Bucket = models.TimeBucket(bucket)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
