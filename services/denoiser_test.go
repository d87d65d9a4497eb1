package services

import (
	"math"
	"testing"

	"flightfare-pipeline/models"
	"flightfare-pipeline/utils"
)

func cleanedFares(date string, weekend, holiday bool, bucket models.TimeBucket, airline string, fares ...int) []*models.CleanedRecord {
	var recs []*models.CleanedRecord
	for _, fare := range fares {
		recs = append(recs, &models.CleanedRecord{
			FlightRecord: models.FlightRecord{
				FlightNumber: "AI 101",
				AirlineName:  airline,
				Date:         date,
				TotalFare:    fare,
			},
			DepHour:   9,
			Bucket:    bucket,
			DayOfWeek: "Monday",
			Weekend:   weekend,
			Holiday:   holiday,
		})
	}
	return recs
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDenoiserRejectsEmptyDataset(t *testing.T) {
	d := NewDenoiser(utils.NewLogger())
	if _, err := d.Generate(nil); err == nil {
		t.Error("Generate(nil) should report the empty dataset as an error")
	}
}

func TestFilteredMeanUsesOwnBusinessDayRows(t *testing.T) {
	d := NewDenoiser(utils.NewLogger())

	records := cleanedFares("2026-09-07", false, false, models.BucketMorning, "IndiGo", 4000, 4200)
	report, err := d.Generate(records)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	day := report.Daily[0]
	if !almostEqual(day.FilteredMean, 4100) {
		t.Errorf("FilteredMean = %v, want 4100 (the date's own business-day mean)", day.FilteredMean)
	}
}

func TestFilteredMeanFallsBackToOverallBusinessMean(t *testing.T) {
	d := NewDenoiser(utils.NewLogger())

	// Saturday has only weekend rows; the weekday date supplies the overall
	// business-day mean it must fall back to.
	records := append(
		cleanedFares("2026-09-05", true, false, models.BucketMorning, "IndiGo", 9000, 9500),
		cleanedFares("2026-09-07", false, false, models.BucketMorning, "IndiGo", 4000, 4200)...,
	)

	report, err := d.Generate(records)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var saturday models.DailyStatistic
	for _, day := range report.Daily {
		if day.Date == "2026-09-05" {
			saturday = day
		}
	}
	if !almostEqual(saturday.FilteredMean, 4100) {
		t.Errorf("weekend FilteredMean = %v, want overall business-day mean 4100", saturday.FilteredMean)
	}
	if !almostEqual(saturday.RawMean, 9250) {
		t.Errorf("weekend RawMean = %v, want 9250", saturday.RawMean)
	}
}

func TestFilteredMeanFallsBackToRawMean(t *testing.T) {
	d := NewDenoiser(utils.NewLogger())

	// No business-day rows anywhere in the dataset.
	records := append(
		cleanedFares("2026-09-05", true, false, models.BucketMorning, "IndiGo", 9000, 9500),
		cleanedFares("2026-10-02", false, true, models.BucketMorning, "IndiGo", 7000)...,
	)

	report, err := d.Generate(records)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, day := range report.Daily {
		if !almostEqual(day.FilteredMean, day.RawMean) {
			t.Errorf("%s: FilteredMean = %v, want raw mean %v when no business days exist",
				day.Date, day.FilteredMean, day.RawMean)
		}
	}
}

func TestTrimmedMeanThreshold(t *testing.T) {
	// 4 samples: trimming not meaningful, raw mean is used.
	four := []float64{100, 200, 300, 400}
	if got := trimmedMean(four, 0.10); !almostEqual(got, 250) {
		t.Errorf("trimmedMean(4 samples) = %v, want raw mean 250", got)
	}

	// 10 samples: one value trimmed from each end.
	ten := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}
	if got := trimmedMean(ten, 0.10); !almostEqual(got, 5.5) {
		t.Errorf("trimmedMean(10 samples) = %v, want 5.5", got)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{1, 2, 3}); !almostEqual(got, 2) {
		t.Errorf("median(odd) = %v, want 2", got)
	}
	if got := median([]float64{1, 2, 3, 4}); !almostEqual(got, 2.5) {
		t.Errorf("median(even) = %v, want 2.5", got)
	}
}

func TestDenoiserEndToEndThreeDays(t *testing.T) {
	d := NewDenoiser(utils.NewLogger())

	records := append(
		cleanedFares("2026-09-04", false, false, models.BucketMorning, "IndiGo", 4000, 4100, 4200, 4300, 4400), // Friday
		cleanedFares("2026-09-05", true, false, models.BucketAfternoon, "Air India", 5000, 5100, 5200, 5300, 5400)..., // Saturday
	)
	records = append(records,
		cleanedFares("2026-10-02", false, true, models.BucketEvening, "Vistara", 6000, 6100, 6200, 6300, 6400)..., // holiday
	)

	report, err := d.Generate(records)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(report.Daily) != 3 {
		t.Fatalf("daily rows: got %d, want 3", len(report.Daily))
	}
	for _, day := range report.Daily {
		if day.SampleCount != 5 {
			t.Errorf("%s: SampleCount = %d, want 5", day.Date, day.SampleCount)
		}
		if day.RawMean <= 0 || day.FilteredMean <= 0 || day.Median <= 0 || day.TrimmedMean <= 0 {
			t.Errorf("%s: all four estimators must be populated: %+v", day.Date, day)
		}
	}

	// Rows come back in ascending date order with the right flags.
	if report.Daily[0].Date != "2026-09-04" || report.Daily[2].Date != "2026-10-02" {
		t.Errorf("daily rows out of order: %s, %s, %s",
			report.Daily[0].Date, report.Daily[1].Date, report.Daily[2].Date)
	}
	if !report.Daily[1].Weekend {
		t.Errorf("2026-09-05 row should carry the weekend flag")
	}
	if !report.Daily[2].Holiday {
		t.Errorf("2026-10-02 row should carry the holiday flag")
	}

	// Stability verdict names one of the four estimators.
	if _, ok := report.StabilityStdDevs[report.MostStable]; !ok || report.MostStable == "" {
		t.Errorf("MostStable = %q, not present in stddev table %v",
			report.MostStable, report.StabilityStdDevs)
	}
	if len(report.StabilityStdDevs) != 4 {
		t.Errorf("stddev table size: got %d, want 4", len(report.StabilityStdDevs))
	}

	// Group means.
	if got := report.FareByAirline["IndiGo"]; !almostEqual(got, 4200) {
		t.Errorf("IndiGo mean fare = %v, want 4200", got)
	}
	if got := report.FareByBucket[models.BucketEvening]; !almostEqual(got, 6200) {
		t.Errorf("Evening mean fare = %v, want 6200", got)
	}
}

func TestStdDevConstantSeriesIsZero(t *testing.T) {
	if got := stdDev([]float64{5, 5, 5}); !almostEqual(got, 0) {
		t.Errorf("stdDev of constant series = %v, want 0", got)
	}
}
