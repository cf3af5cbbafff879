package memory

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TemporalResolver extracts the calendar dates a natural-language query
// refers to, in Italian or English. "Now" is injectable so resolution is
// deterministic under test; the zero value of now falls back to the wall
// clock.
type TemporalResolver struct {
	now func() time.Time
}

// NewTemporalResolver creates a resolver. now may be nil.
func NewTemporalResolver(now func() time.Time) *TemporalResolver {
	if now == nil {
		now = time.Now
	}
	return &TemporalResolver{now: now}
}

var (
	// "15 giugno", "15 june"
	dayMonthPattern = regexp.MustCompile(`\b(\d{1,2})\s+([a-zà-ù]+)\b`)
	// "giugno 15", "june 15"
	monthDayPattern = regexp.MustCompile(`\b([a-zà-ù]+)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	// "il 15", "the 15th", "on the 15th"
	bareDayPattern = regexp.MustCompile(`\b(?:il|the)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
)

// relativeTerms maps query substrings to day offsets from today.
var relativeTerms = []struct {
	term   string
	offset int
}{
	{"ieri", -1},
	{"yesterday", -1},
	{"oggi", 0},
	{"stamattina", 0},
	{"stasera", 0},
	{"today", 0},
	{"this morning", 0},
	{"tonight", 0},
}

// Resolve returns the dates the query names, in extraction order with
// duplicates removed. Absolute forms resolve against the current year,
// bare days against the current month. Combinations that do not form a
// real calendar day are skipped without error.
func (r *TemporalResolver) Resolve(query string) []Date {
	query = strings.ToLower(query)
	now := r.now()

	var dates []Date

	for _, m := range dayMonthPattern.FindAllStringSubmatch(query, -1) {
		if month, ok := monthNames[m[2]]; ok {
			dates = appendValidDate(dates, now.Year(), month, m[1])
		}
	}
	for _, m := range monthDayPattern.FindAllStringSubmatch(query, -1) {
		if month, ok := monthNames[m[1]]; ok {
			dates = appendValidDate(dates, now.Year(), month, m[2])
		}
	}
	for _, m := range bareDayPattern.FindAllStringSubmatch(query, -1) {
		dates = appendValidDate(dates, now.Year(), now.Month(), m[1])
	}

	for _, rel := range relativeTerms {
		if strings.Contains(query, rel.term) {
			dates = append(dates, DateOf(now.AddDate(0, 0, rel.offset)))
		}
	}

	return dedupDates(dates)
}

// appendValidDate formats year/month/day and keeps the result only when it
// round-trips as a real calendar date, rejecting the likes of February 30.
func appendValidDate(dates []Date, year int, month time.Month, day string) []Date {
	candidate := fmt.Sprintf("%04d-%02d-%s", year, int(month), pad2(day))
	date, err := ParseDate(candidate)
	if err != nil {
		return dates
	}
	return append(dates, date)
}

func pad2(day string) string {
	if len(day) == 1 {
		return "0" + day
	}
	return day
}

// dedupDates removes duplicates preserving first-occurrence order.
func dedupDates(dates []Date) []Date {
	seen := make(map[Date]struct{}, len(dates))
	var out []Date
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
