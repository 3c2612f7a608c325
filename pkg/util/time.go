package util

import (
	"time"
)

// StartOfDay strips the time-of-day from t in the given location
func StartOfDay(t time.Time, location *time.Location) time.Time {
	t = t.In(location)

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location)
}

// AddDays moves a calendar date by n days, keeping it at midnight across DST changes
func AddDays(date time.Time, n int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day()+n, 0, 0, 0, 0, date.Location())
}

func IsWeekend(date time.Time) bool {
	day := date.Weekday()

	return day == time.Saturday || day == time.Sunday
}
