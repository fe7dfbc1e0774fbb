// Package eta renders the arrival countdown shown next to a trip.
package eta

import (
	"fmt"
	"strings"
	"time"

	"train-tracker/internal/rail"
)

const arrivedSuffix = "Sudah tiba 🚉"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// Target composes the scheduled arrival instant from the trip's calendar
// date and the terminal's HH:MM, in now's location. An unparseable date
// falls back to now's calendar day and a malformed time to midnight.
func Target(tripDate string, terminal rail.Station, now time.Time) time.Time {
	y, m, d := calendarDate(tripDate, now)
	hour, minute := terminal.ClockTime()
	return time.Date(y, m, d, hour, minute, 0, 0, now.Location())
}

// Estimate renders the countdown to the terminal station. The two coarsest
// units are shown; once the target has passed the arrival text is shown.
func Estimate(tripDate string, terminal rail.Station, now time.Time) string {
	label := terminal.ScheduledTime
	if label == "" {
		label = "00:00"
	}
	diff := Target(tripDate, terminal, now).Sub(now)
	if diff <= 0 {
		return fmt.Sprintf("%s - %s", label, arrivedSuffix)
	}

	total := int64(diff / time.Second)
	days := total / 86400
	hrs := (total % 86400) / 3600
	mins := (total % 3600) / 60
	secs := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%s (%d hari %d jam)", label, days, hrs)
	case hrs > 0:
		return fmt.Sprintf("%s (%dj %dm %dd)", label, hrs, mins, secs)
	case mins > 0:
		return fmt.Sprintf("%s (%dm %dd)", label, mins, secs)
	default:
		return fmt.Sprintf("%s (%d detik)", label, secs)
	}
}

func calendarDate(s string, now time.Time) (int, time.Month, int) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Date()
		}
	}
	return now.Date()
}
