package services

import "time"

// HolidayCalendar answers whether a calendar date is a public holiday in the
// route's region (India for the default BOM-DEL route). It is a pure lookup
// over a fixed table: recurring gazetted holidays plus the movable ones for
// the years the pipeline scrapes.
type HolidayCalendar struct {
	recurring map[string]string // "MM-DD" → holiday name
	dated     map[string]string // "YYYY-MM-DD" → holiday name
}

// NewHolidayCalendar builds the Indian public-holiday table.
func NewHolidayCalendar() *HolidayCalendar {
	return &HolidayCalendar{
		recurring: map[string]string{
			"01-26": "Republic Day",
			"08-15": "Independence Day",
			"10-02": "Gandhi Jayanti",
			"12-25": "Christmas",
		},
		dated: map[string]string{
			"2025-03-14": "Holi",
			"2025-03-31": "Eid ul-Fitr",
			"2025-04-18": "Good Friday",
			"2025-10-20": "Diwali",
			"2026-03-04": "Holi",
			"2026-03-21": "Eid ul-Fitr",
			"2026-04-03": "Good Friday",
			"2026-11-08": "Diwali",
			"2027-03-22": "Holi",
			"2027-03-10": "Eid ul-Fitr",
			"2027-03-26": "Good Friday",
			"2027-10-29": "Diwali",
		},
	}
}

// IsHoliday reports whether the date is a recognized public holiday.
func (h *HolidayCalendar) IsHoliday(t time.Time) bool {
	_, ok := h.Name(t)
	return ok
}

// Name returns the holiday name for the date, if any.
func (h *HolidayCalendar) Name(t time.Time) (string, bool) {
	if name, ok := h.dated[t.Format("2006-01-02")]; ok {
		return name, true
	}
	if name, ok := h.recurring[t.Format("01-02")]; ok {
		return name, true
	}
	return "", false
}
