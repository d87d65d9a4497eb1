package services

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHolidayCalendarRecurring(t *testing.T) {
	h := NewHolidayCalendar()

	if !h.IsHoliday(date(2026, time.January, 26)) {
		t.Error("2026-01-26 should be Republic Day in any year")
	}
	if !h.IsHoliday(date(2027, time.August, 15)) {
		t.Error("2027-08-15 should be Independence Day in any year")
	}
	if h.IsHoliday(date(2026, time.September, 7)) {
		t.Error("2026-09-07 is not a holiday")
	}
}

func TestHolidayCalendarMovable(t *testing.T) {
	h := NewHolidayCalendar()

	name, ok := h.Name(date(2026, time.November, 8))
	if !ok || name != "Diwali" {
		t.Errorf("2026-11-08: got (%q, %v), want Diwali", name, ok)
	}
	// The same calendar date is not a holiday in another year.
	if h.IsHoliday(date(2025, time.November, 8)) {
		t.Error("2025-11-08 should not inherit 2026's Diwali")
	}
}
