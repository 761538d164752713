package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate marks a non-empty cell that cannot be read as a calendar date.
// An empty cell is "no date" and comes back as (nil, nil): optional date columns
// may be blank, only the mandatory invoice date turns absence into an error.
var ErrInvalidDate = errors.New("invalid date")

// Excel serial day 25569 is the Unix epoch (serial day 0 = 1899-12-30).
const excelEpochOffsetDays = 25569

var cellDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseCellDate reads a spreadsheet cell of unknown shape. Numeric cells are
// Excel serial dates; anything else goes through the layout list. Times are
// truncated to the UTC calendar day.
func ParseCellDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t := TimeFromSerial(serial)
		return &t, nil
	}

	for _, layout := range cellDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			return &day, nil
		}
	}

	return nil, ErrInvalidDate
}

// TimeFromSerial converts an Excel serial date to a UTC calendar day, dropping
// any time-of-day fraction.
func TimeFromSerial(serial float64) time.Time {
	days := int64(math.Floor(serial - excelEpochOffsetDays))
	return time.Unix(days*86400, 0).UTC()
}

// SerialFromTime is the inverse of TimeFromSerial for whole days.
func SerialFromTime(t time.Time) float64 {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return float64(day.Unix()/86400 + excelEpochOffsetDays)
}
