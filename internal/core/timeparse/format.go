package timeparse

import "time"

// DefaultDisplayTime is the reminder display time used when an event carries
// no explicit time of day.
const DefaultDisplayTime = "9:00 AM"

// FormatDisplayTime renders a timestamp's clock as "3:00 PM".
func FormatDisplayTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// IsDefaultClock reports whether a timestamp carries the 09:00 default rather
// than an explicitly parsed time.
func IsDefaultClock(t time.Time) bool {
	return t.Hour() == DefaultHour && t.Minute() == 0
}
