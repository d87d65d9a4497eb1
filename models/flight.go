package models

import "time"

// FlightRecord holds one scraped fare listing exactly as extracted from the
// results page. This is what gets persisted into a per-date partition.
type FlightRecord struct {
	FlightNumber       string
	AirlineName        string
	SourceCity         string
	DestinationCity    string
	SourceAirport      string
	DestinationAirport string
	Date               string // ISO date of the searched departure day
	DepartureTime      string // free-form, parsed during cleaning
	ArrivalTime        string
	Layover            string
	TotalFare          int  // whole currency units
	BaseFare           *int // not always observable on the card
	Tax                *int
	ScrapedAt          time.Time
}

// Valid reports whether the record is worth persisting: an airline name and
// a positive fare are the minimum for any downstream use.
func (r *FlightRecord) Valid() bool {
	return r.AirlineName != "" && r.TotalFare > 0
}

// TimeBucket is the coarse time-of-day segment a departure falls into.
type TimeBucket string

const (
	BucketMorning   TimeBucket = "Morning"   // before 11:00
	BucketAfternoon TimeBucket = "Afternoon" // 11:00–16:59
	BucketEvening   TimeBucket = "Evening"   // 17:00 onward
	BucketUnknown   TimeBucket = "Unknown"   // departure time unparsable
)

// CleanedRecord is a FlightRecord enriched with derived fields, ready for
// aggregation. DepHour is -1 when the departure time could not be parsed.
type CleanedRecord struct {
	FlightRecord
	DepHour   int // 0–23, or -1 for unknown
	Bucket    TimeBucket
	DayOfWeek string
	Weekend   bool
	Holiday   bool
}

// DailyStatistic is one row of the denoised per-date summary: four
// central-tendency estimators over that date's fare sample.
type DailyStatistic struct {
	Date         string
	RawMean      float64
	FilteredMean float64
	Median       float64
	TrimmedMean  float64
	SampleCount  int
	Weekend      bool
	Holiday      bool
}

// SummaryReport is the full output of the denoising stage, consumed by the
// dashboard and the summary writers.
type SummaryReport struct {
	FareByAirline map[string]float64
	FareByBucket  map[TimeBucket]float64
	Daily         []DailyStatistic
	// Stability verdict: the estimator whose daily series varies least.
	MostStable       string
	StabilityStdDevs map[string]float64
	TotalRecords     int
}
