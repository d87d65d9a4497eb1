package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"flightfare-pipeline/models"
	"flightfare-pipeline/utils"
)

// Estimator names as reported in the stability verdict.
const (
	estRawMean      = "raw mean"
	estFilteredMean = "filtered mean"
	estMedian       = "median"
	estTrimmedMean  = "trimmed mean (10%)"
)

var estimatorOrder = []string{estRawMean, estFilteredMean, estMedian, estTrimmedMean}

// Denoiser computes the per-date summary statistics. Demand spikes survive
// the IQR step (they are real fares, not noise), so several estimators with
// different spike sensitivity run side by side and the least volatile one
// across dates is reported as most stable.
type Denoiser struct {
	logger *utils.Logger
}

// NewDenoiser creates a Denoiser.
func NewDenoiser(logger *utils.Logger) *Denoiser {
	return &Denoiser{logger: logger}
}

// Generate computes the per-date estimator table, the airline and time-bucket
// means and the stability verdict. An empty cleaned dataset is a terminal
// condition: there is nothing meaningful to summarize.
func (d *Denoiser) Generate(records []*models.CleanedRecord) (*models.SummaryReport, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("denoiser: cleaned dataset is empty, nothing to process")
	}

	type dateGroup struct {
		fares   []float64
		weekend bool
		holiday bool
	}
	byDate := make(map[string]*dateGroup)
	var businessFares []float64

	for _, r := range records {
		g, ok := byDate[r.Date]
		if !ok {
			g = &dateGroup{weekend: r.Weekend, holiday: r.Holiday}
			byDate[r.Date] = g
		}
		fare := float64(r.TotalFare)
		g.fares = append(g.fares, fare)
		if !r.Weekend && !r.Holiday {
			businessFares = append(businessFares, fare)
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	overallBusinessMean := 0.0
	hasBusinessDays := len(businessFares) > 0
	if hasBusinessDays {
		overallBusinessMean = mean(businessFares)
	}

	report := &models.SummaryReport{
		FareByAirline:    make(map[string]float64),
		FareByBucket:     make(map[models.TimeBucket]float64),
		StabilityStdDevs: make(map[string]float64),
		TotalRecords:     len(records),
	}
	series := make(map[string][]float64, len(estimatorOrder))

	for _, date := range dates {
		g := byDate[date]
		fares := append([]float64(nil), g.fares...)
		sort.Float64s(fares)

		raw := mean(fares)

		// Business-day fares for this date; empty when the date itself is a
		// weekend or holiday. Fallback: overall business-day mean, then raw.
		filtered := raw
		switch {
		case !g.weekend && !g.holiday:
			filtered = raw
		case hasBusinessDays:
			filtered = overallBusinessMean
		}

		stat := models.DailyStatistic{
			Date:         date,
			RawMean:      raw,
			FilteredMean: filtered,
			Median:       median(fares),
			TrimmedMean:  trimmedMean(fares, 0.10),
			SampleCount:  len(g.fares),
			Weekend:      g.weekend,
			Holiday:      g.holiday,
		}
		report.Daily = append(report.Daily, stat)

		series[estRawMean] = append(series[estRawMean], stat.RawMean)
		series[estFilteredMean] = append(series[estFilteredMean], stat.FilteredMean)
		series[estMedian] = append(series[estMedian], stat.Median)
		series[estTrimmedMean] = append(series[estTrimmedMean], stat.TrimmedMean)

		d.logger.Info("[denoise] %s: n=%d raw=%.0f filtered=%.0f median=%.0f trimmed=%.0f",
			date, stat.SampleCount, stat.RawMean, stat.FilteredMean, stat.Median, stat.TrimmedMean)
	}

	// Stability: lowest standard deviation of the daily series wins. A
	// descriptive verdict for the dashboard, not a prescriptive choice.
	best := ""
	bestStd := math.Inf(1)
	for _, name := range estimatorOrder {
		std := stdDev(series[name])
		report.StabilityStdDevs[name] = std
		if std < bestStd {
			best, bestStd = name, std
		}
	}
	report.MostStable = best

	// Group means for the dashboard summary tables.
	aggregateGroupMeans(records, report)

	return report, nil
}

func aggregateGroupMeans(records []*models.CleanedRecord, report *models.SummaryReport) {
	airlineSum := make(map[string]float64)
	airlineCount := make(map[string]int)
	bucketSum := make(map[models.TimeBucket]float64)
	bucketCount := make(map[models.TimeBucket]int)

	for _, r := range records {
		fare := float64(r.TotalFare)
		airlineSum[r.AirlineName] += fare
		airlineCount[r.AirlineName]++
		bucketSum[r.Bucket] += fare
		bucketCount[r.Bucket]++
	}
	for airline, sum := range airlineSum {
		report.FareByAirline[airline] = sum / float64(airlineCount[airline])
	}
	for bucket, sum := range bucketSum {
		report.FareByBucket[bucket] = sum / float64(bucketCount[bucket])
	}
}

// Print renders the summary report to the terminal.
func (d *Denoiser) Print(r *models.SummaryReport) {
	sep := strings.Repeat("═", 62)
	thin := strings.Repeat("─", 62)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  ✈️  FLIGHT FARE SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Mean Fare by Airline\033[0m\n")
	fmt.Printf("  %s\n", thin)
	airlines := make([]string, 0, len(r.FareByAirline))
	for a := range r.FareByAirline {
		airlines = append(airlines, a)
	}
	sort.Strings(airlines)
	for _, a := range airlines {
		fmt.Printf("  %-36s \033[1;32m₹%.0f\033[0m\n", a, r.FareByAirline[a])
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Mean Fare by Time of Day\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, b := range []models.TimeBucket{
		models.BucketMorning, models.BucketAfternoon,
		models.BucketEvening, models.BucketUnknown,
	} {
		if avg, ok := r.FareByBucket[b]; ok {
			fmt.Printf("  %-36s \033[1;32m₹%.0f\033[0m\n", string(b), avg)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Daily Estimators\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  %-12s %7s %9s %9s %9s %9s  flags\n",
		"date", "n", "raw", "filtered", "median", "trimmed")
	for _, day := range r.Daily {
		flags := ""
		if day.Weekend {
			flags += "W"
		}
		if day.Holiday {
			flags += "H"
		}
		fmt.Printf("  %-12s %7d %9.0f %9.0f %9.0f %9.0f  %s\n",
			day.Date, day.SampleCount, day.RawMean, day.FilteredMean,
			day.Median, day.TrimmedMean, flags)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Stability Verdict\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, name := range estimatorOrder {
		marker := "  "
		if name == r.MostStable {
			marker = "\033[1;32m→\033[0m "
		}
		fmt.Printf("  %s%-22s σ = %.2f\n", marker, name, r.StabilityStdDevs[name])
	}
	fmt.Printf("\n  Most stable estimator: \033[1m%s\033[0m\n", r.MostStable)
	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median of an ascending sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// trimmedMean drops the given fraction from each end of an ascending sorted
// slice before averaging. Below 5 samples trimming is not meaningful and the
// plain mean is returned.
func trimmedMean(sorted []float64, fraction float64) float64 {
	n := len(sorted)
	if n < 5 {
		return mean(sorted)
	}
	k := int(float64(n) * fraction)
	return mean(sorted[k : n-k])
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}
