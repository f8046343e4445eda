package window

import (
	"regexp"
	"strings"
	"time"
)

// Each parse layer is a pure function from a date expression to a calendar
// date bound to the given year. Layers are tried in order by ParseEventDate;
// the first match wins. A layer that does not recognize the input returns
// ok=false and the next layer gets a try.
type parseLayer func(s string, year int) (time.Time, bool)

var layers = []parseLayer{
	parseMonthDay,
	parseNumericMonthDay,
	parseDayMonth,
	parseDateRange,
	parseNthWeekday,
	parseVague,
}

// ParseEventDate resolves a free-text date expression to a calendar date in
// the given year. Returns ok=false when no layer matches; callers skip the
// rule rather than fail the batch.
func ParseEventDate(s string, year int) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layer := range layers {
		if d, ok := layer(s, year); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

var ordinalSuffix = regexp.MustCompile(`(\d+)(st|nd|rd|th)\b`)

// stripOrdinals turns "December 8th" into "December 8".
func stripOrdinals(s string) string {
	return ordinalSuffix.ReplaceAllString(s, "$1")
}

// parseMonthDay handles "December 8" and "Dec 8", with ordinal suffixes.
func parseMonthDay(s string, year int) (time.Time, bool) {
	s = stripOrdinals(s)
	for _, layout := range []string{"January 2", "Jan 2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseNumericMonthDay handles "12/08" and "12/8".
func parseNumericMonthDay(s string, year int) (time.Time, bool) {
	for _, layout := range []string{"01/02", "1/2"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseDayMonth handles day-before-month variants: "8 December", "8 Dec".
func parseDayMonth(s string, year int) (time.Time, bool) {
	s = stripOrdinals(s)
	for _, layout := range []string{"2 January", "2 Jan"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

var dateRange = regexp.MustCompile(`^([A-Za-z]+)\s+(\d+)\s*[-–]\s*\d+$`)

// parseDateRange collapses "June 1-3" to its first day.
func parseDateRange(s string, year int) (time.Time, bool) {
	m := dateRange.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}
	return parseMonthDay(m[1]+" "+m[2], year)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var ordinalNames = map[string]int{
	"first":  1,
	"second": 2,
	"third":  3,
	"fourth": 4,
	"last":   -1,
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var nthWeekdayExpr = regexp.MustCompile(`^(first|second|third|fourth|last)\s+(\w+)\s+(?:in|of)\s+(\w+)$`)

// parseNthWeekday handles relative expressions like "first Monday in May"
// or "fourth Thursday of November" via nth-weekday-of-month arithmetic.
func parseNthWeekday(s string, year int) (time.Time, bool) {
	m := nthWeekdayExpr.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return time.Time{}, false
	}
	nth := ordinalNames[m[1]]
	wd, ok := weekdayNames[m[2]]
	if !ok {
		return time.Time{}, false
	}
	month, ok := monthNames[m[3]]
	if !ok {
		return time.Time{}, false
	}
	return nthWeekdayOfMonth(year, month, wd, nth), true
}

// nthWeekdayOfMonth returns the nth occurrence of a weekday in a month;
// nth = -1 means the last occurrence.
func nthWeekdayOfMonth(year int, month time.Month, wd time.Weekday, nth int) time.Time {
	if nth == -1 {
		d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		for d.Weekday() != wd {
			d = d.AddDate(0, 0, -1)
		}
		return d
	}
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(nth-1)*7)
}

// vagueDays maps qualifier → day of month: "early December" anchors to the
// 1st, "mid December" to the 15th, "late December" to the 20th.
var vagueDays = map[string]int{
	"early": 1,
	"mid":   15,
	"late":  20,
}

var vagueExpr = regexp.MustCompile(`^(early|mid|late)[\s-]+(\w+)$`)

func parseVague(s string, year int) (time.Time, bool) {
	m := vagueExpr.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := monthNames[m[2]]
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, month, vagueDays[m[1]], 0, 0, 0, 0, time.UTC), true
}
