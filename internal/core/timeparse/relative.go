package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// Full names first so "january 5" never resolves through the "jan" pattern.
var months = []struct {
	name  string
	month time.Month
}{
	{"january", time.January},
	{"february", time.February},
	{"march", time.March},
	{"april", time.April},
	{"may", time.May},
	{"june", time.June},
	{"july", time.July},
	{"august", time.August},
	{"september", time.September},
	{"october", time.October},
	{"november", time.November},
	{"december", time.December},
	{"jan", time.January},
	{"feb", time.February},
	{"mar", time.March},
	{"apr", time.April},
	{"jun", time.June},
	{"jul", time.July},
	{"aug", time.August},
	{"sep", time.September},
	{"sept", time.September},
	{"oct", time.October},
	{"nov", time.November},
	{"dec", time.December},
}

var (
	inDaysRe  = regexp.MustCompile(`in\s+(\d+)\s+days?`)
	inWeeksRe = regexp.MustCompile(`in\s+(\d+)\s+weeks?`)
	numericRe = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?`)
)

var monthRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(months))
	for i, mo := range months {
		res[i] = regexp.MustCompile(mo.name + `\s+(\d{1,2})(?:st|nd|rd|th)?`)
	}
	return res
}()

// ParseRelativeDate resolves a natural-language time phrase against a
// reference instant. Phrase classes are tried in a fixed precedence order and
// the first match wins. The resolved date carries the clock parsed from the
// same text, or 09:00 when none is present. ok is false when no phrase class
// matches.
func ParseRelativeDate(text string, ref time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)

	hour, minute, hasClock := ParseClock(text)
	applyClock := func(t time.Time) time.Time {
		if hasClock {
			return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
		}
		return time.Date(t.Year(), t.Month(), t.Day(), DefaultHour, 0, 0, 0, t.Location())
	}

	if strings.Contains(lower, "today") {
		return applyClock(ref), true
	}
	if strings.Contains(lower, "tomorrow") {
		return applyClock(ref.AddDate(0, 0, 1)), true
	}
	if strings.Contains(lower, "next week") {
		return applyClock(ref.AddDate(0, 0, 7)), true
	}
	// Midweek estimate, not a specific weekday.
	if strings.Contains(lower, "this week") {
		return applyClock(ref.AddDate(0, 0, 3)), true
	}

	if m := inDaysRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return applyClock(ref.AddDate(0, 0, n)), true
	}
	if m := inWeeksRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return applyClock(ref.AddDate(0, 0, 7*n)), true
	}

	// "next tuesday" lands on the occurrence after the upcoming one, so up to
	// two weeks out.
	for _, wd := range weekdays {
		if strings.Contains(lower, "next "+wd.name) {
			ahead := int(wd.day) - int(ref.Weekday())
			if ahead <= 0 {
				ahead += 7
			}
			ahead += 7
			return applyClock(ref.AddDate(0, 0, ahead)), true
		}
	}

	// "on tuesday", "this tuesday", or a bare weekday mention. A weekday equal
	// to today's always means next week, never today.
	for _, wd := range weekdays {
		if strings.Contains(lower, "on "+wd.name) || strings.Contains(lower, "this "+wd.name) || strings.Contains(lower, wd.name) {
			ahead := int(wd.day) - int(ref.Weekday())
			if ahead < 0 {
				ahead += 7
			}
			if ahead == 0 {
				ahead = 7
			}
			return applyClock(ref.AddDate(0, 0, ahead)), true
		}
	}

	// "december 25th" style; a date already past rolls to next year.
	for i, mo := range months {
		m := monthRes[i].FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		if !validDay(ref.Year(), mo.month, day) {
			continue
		}
		target := time.Date(ref.Year(), mo.month, day, 0, 0, 0, 0, ref.Location())
		if target.Before(ref) {
			target = time.Date(ref.Year()+1, mo.month, day, 0, 0, 0, 0, ref.Location())
		}
		return applyClock(target), true
	}

	// MM/DD, MM-DD, optionally with a 2- or 4-digit year.
	if m := numericRe.FindStringSubmatch(lower); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := ref.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if month >= 1 && month <= 12 && validDay(year, time.Month(month), day) {
			target := applyClock(time.Date(year, time.Month(month), day, 0, 0, 0, 0, ref.Location()))
			if target.Before(ref) {
				target = applyClock(time.Date(year+1, time.Month(month), day, 0, 0, 0, 0, ref.Location()))
			}
			return target, true
		}
	}

	return time.Time{}, false
}

// validDay rejects impossible calendar dates like Feb 30, which time.Date
// would silently normalize.
func validDay(year int, month time.Month, day int) bool {
	if day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Month() == month && t.Day() == day
}
