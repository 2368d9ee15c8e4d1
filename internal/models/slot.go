package models

import (
	"strings"
	"time"
)

// Day is an uppercase weekday name within the teaching week.
type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
)

// WeekDays lists the teaching days in order. Sunday is not schedulable.
var WeekDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseDay normalises a day string; ok is false for unknown or non-teaching days.
func ParseDay(raw string) (Day, bool) {
	day := Day(strings.ToUpper(strings.TrimSpace(raw)))
	for _, d := range WeekDays {
		if d == day {
			return d, true
		}
	}
	return "", false
}

// DayOf maps a calendar date onto the teaching week; ok is false on Sundays.
func DayOf(t time.Time) (Day, bool) {
	switch t.Weekday() {
	case time.Monday:
		return Monday, true
	case time.Tuesday:
		return Tuesday, true
	case time.Wednesday:
		return Wednesday, true
	case time.Thursday:
		return Thursday, true
	case time.Friday:
		return Friday, true
	case time.Saturday:
		return Saturday, true
	default:
		return "", false
	}
}

// Offset returns the day's distance from Monday, used when projecting a
// weekly grid entry onto a dated week.
func (d Day) Offset() int {
	for i, day := range WeekDays {
		if day == d {
			return i
		}
	}
	return 0
}

// Slot is a (day, period) coordinate in the weekly grid. Value type,
// equality by both fields.
type Slot struct {
	Day    Day `json:"day"`
	Period int `json:"period"`
}

// Valid reports whether the slot lies inside a grid with the given period count.
func (s Slot) Valid(periodsPerDay int) bool {
	if _, ok := ParseDay(string(s.Day)); !ok {
		return false
	}
	return s.Period >= 1 && s.Period <= periodsPerDay
}
