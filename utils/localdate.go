package utils

import "time"

// LocalDateString returns today's date as YYYY-MM-DD in the given IANA
// timezone. An unknown or empty timezone falls back to UTC: a wrong-but-
// consistent date is preferable to rejecting the completion outright.
func LocalDateString(timezone string, now time.Time) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}
