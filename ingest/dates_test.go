package ingest_test

import (
	"testing"
	"time"

	"github.com/mmdatafocus/membership_backend/ingest"
)

func TestParseCellDateSerial(t *testing.T) {
	// 2024-01-15 as an Excel serial number.
	serial := ingest.SerialFromTime(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))

	got, err := ingest.ParseCellDate("45306")
	if err != nil {
		t.Fatalf("ParseCellDate: %v", err)
	}
	if got == nil {
		t.Fatalf("expected a date")
	}
	want := ingest.TimeFromSerial(serial)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 15 {
		t.Fatalf("serial 45306 should be 2024-01-15, got %v", got)
	}
}

func TestParseCellDateSerialDropsTimeFraction(t *testing.T) {
	whole, err := ingest.ParseCellDate("45306")
	if err != nil {
		t.Fatalf("ParseCellDate: %v", err)
	}
	fractional, err := ingest.ParseCellDate("45306.75")
	if err != nil {
		t.Fatalf("ParseCellDate: %v", err)
	}
	if !whole.Equal(*fractional) {
		t.Fatalf("time-of-day fraction should not change the day: %v vs %v", whole, fractional)
	}
}

func TestParseCellDateLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-03-31":       time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		"31-03-2024":       time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		"31/03/2024":       time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		"31-Mar-2024":      time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		"January 15, 2024": time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got, err := ingest.ParseCellDate(input)
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if got == nil || !got.Equal(want) {
			t.Fatalf("%q: got %v, want %v", input, got, want)
		}
	}
}

func TestParseCellDateEmptyIsNil(t *testing.T) {
	got, err := ingest.ParseCellDate("   ")
	if err != nil {
		t.Fatalf("empty cell must not error, got %v", err)
	}
	if got != nil {
		t.Fatalf("empty cell must parse to nil, got %v", got)
	}
}

func TestParseCellDateGarbage(t *testing.T) {
	if _, err := ingest.ParseCellDate("not a date"); err != ingest.ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestSerialRoundTrip(t *testing.T) {
	days := []time.Time{
		time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.December, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
	}
	for _, day := range days {
		serial := ingest.SerialFromTime(day)
		back := ingest.TimeFromSerial(serial)
		if !back.Equal(day) {
			t.Fatalf("round trip for %v came back as %v (serial %v)", day, back, serial)
		}
	}
}
