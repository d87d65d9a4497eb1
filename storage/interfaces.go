package storage

import "flightfare-pipeline/models"

// PartitionStore persists the per-date acquisition output. A partition is
// written exactly once; Exists is how re-runs stay idempotent.
type PartitionStore interface {
	Exists(date string) bool
	Write(date string, records []*models.FlightRecord) error
	LoadAll() ([]*models.FlightRecord, error)
	Dates() ([]string, error)
}

// CleanedStore is the storage backend for the cleaned unified dataset and
// the daily statistics consumed by the dashboard.
type CleanedStore interface {
	WriteCleaned(records []*models.CleanedRecord) error
	WriteDailyStats(stats []models.DailyStatistic) error
	Close() error
}
