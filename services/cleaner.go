package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"flightfare-pipeline/models"
	"flightfare-pipeline/utils"
)

// Cleaner converts raw partition records into CleanedRecords: typed fields,
// derived time features, calendar flags, and per-airline outlier removal.
type Cleaner struct {
	logger   *utils.Logger
	holidays *HolidayCalendar
}

// NewCleaner creates a Cleaner using the given holiday calendar.
func NewCleaner(logger *utils.Logger, holidays *HolidayCalendar) *Cleaner {
	return &Cleaner{logger: logger, holidays: holidays}
}

// Clean normalizes the unified raw dataset. Rows with a non-positive fare or
// an unparsable date are excluded from downstream aggregation; an unparsable
// departure time only degrades the row to the Unknown bucket.
func (c *Cleaner) Clean(raw []*models.FlightRecord) []*models.CleanedRecord {
	result := make([]*models.CleanedRecord, 0, len(raw))

	for _, r := range raw {
		if r.TotalFare <= 0 {
			c.logger.Debug("[cleaner] dropping %s %s: no usable fare", r.Date, r.FlightNumber)
			continue
		}
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			c.logger.Warn("[cleaner] dropping %s %s: bad date: %v", r.Date, r.FlightNumber, err)
			continue
		}

		hour := parseDepartureHour(r.DepartureTime)
		weekday := date.Weekday()

		result = append(result, &models.CleanedRecord{
			FlightRecord: *r,
			DepHour:      hour,
			Bucket:       bucketForHour(hour),
			DayOfWeek:    weekday.String(),
			Weekend:      weekday == time.Saturday || weekday == time.Sunday,
			Holiday:      c.holidays.IsHoliday(date),
		})
	}

	c.logger.Info("[cleaner] normalized %d → %d rows (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// FilterOutliers applies Tukey's IQR rule independently per airline: fare
// distributions differ materially by carrier, and a global filter would
// over-trim premium carriers or under-trim budget ones. Row order is kept.
func (c *Cleaner) FilterOutliers(records []*models.CleanedRecord) []*models.CleanedRecord {
	faresByAirline := make(map[string][]float64)
	for _, r := range records {
		faresByAirline[r.AirlineName] = append(faresByAirline[r.AirlineName], float64(r.TotalFare))
	}

	type bounds struct{ lower, upper float64 }
	limits := make(map[string]bounds, len(faresByAirline))
	for airline, fares := range faresByAirline {
		sort.Float64s(fares)
		q1 := quantile(fares, 0.25)
		q3 := quantile(fares, 0.75)
		iqr := q3 - q1
		limits[airline] = bounds{lower: q1 - 1.5*iqr, upper: q3 + 1.5*iqr}
	}

	result := make([]*models.CleanedRecord, 0, len(records))
	droppedByAirline := make(map[string]int)
	for _, r := range records {
		b := limits[r.AirlineName]
		fare := float64(r.TotalFare)
		if fare < b.lower || fare > b.upper {
			droppedByAirline[r.AirlineName]++
			continue
		}
		result = append(result, r)
	}

	for airline, n := range droppedByAirline {
		c.logger.Info("[cleaner] %s: removed %d fare outlier(s)", airline, n)
	}
	c.logger.Info("[cleaner] outlier filter: %d → %d rows", len(records), len(result))
	return result
}

// parseDepartureHour parses the site's 12-hour clock-with-meridiem format
// ("6:30 PM"); -1 means unknown.
func parseDepartureHour(raw string) int {
	t, err := time.Parse("3:04 PM", strings.TrimSpace(raw))
	if err != nil {
		return -1
	}
	return t.Hour()
}

// bucketForHour maps a departure hour to its time-of-day segment:
// Morning before 11:00, Afternoon 11:00–16:59, Evening from 17:00.
func bucketForHour(hour int) models.TimeBucket {
	switch {
	case hour < 0:
		return models.BucketUnknown
	case hour < 11:
		return models.BucketMorning
	case hour < 17:
		return models.BucketAfternoon
	default:
		return models.BucketEvening
	}
}

// quantile returns the linearly interpolated q-quantile of an ascending
// sorted slice.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 < n {
		return sorted[lo]*(1-frac) + sorted[lo+1]*frac
	}
	return sorted[lo]
}
