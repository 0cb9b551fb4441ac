package timeparse

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultHour is the hour of day assumed when a phrase mentions a date but no
// explicit time.
const DefaultHour = 9

var (
	meridiemRe = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\.?`)
	clock24Re  = regexp.MustCompile(`(?:at\s+)?(\d{1,2}):(\d{2})`)
)

// ParseClock extracts an hour/minute from free text, e.g. "2pm", "3:30 PM",
// "at 14:00". The 24-hour form is only considered when no meridiem form is
// present. ok is false when the text carries no recognizable time; callers
// are expected to fall back to DefaultHour rather than treat that as an error.
func ParseClock(text string) (hour, minute int, ok bool) {
	lower := strings.ToLower(text)

	if m := meridiemRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if m[3] == "p" && hour != 12 {
			hour += 12
		} else if m[3] == "a" && hour == 12 {
			hour = 0
		}
		return hour, minute, true
	}

	if m := clock24Re.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if hour <= 23 && minute <= 59 {
			return hour, minute, true
		}
	}

	return 0, 0, false
}
