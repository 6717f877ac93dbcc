package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// The backend expects date-times with a fixed +0300 offset and a zeroed
// microsecond field. The wall-clock fields are written as-is.
const (
	wireLayout = "2006-01-02 15:04:05"
	wireSuffix = ".000000 +0300"
)

// ErrInvalidDate is returned when a due date input cannot be understood
var ErrInvalidDate = errors.New("invalid date")

// ProjectDueSentinel is the due date submitted for every new project; the
// server requires one but projects have no real deadline.
var ProjectDueSentinel = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.Local)

// accepted by ParseWireDate, most specific first
var wireLayouts = []string{
	"2006-01-02 15:04:05.999999 -0700",
	"2006-01-02 15:04:05 -0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

// FormatWireDate renders t in the backend date-time shape,
// e.g. "2025-06-01 10:00:00.000000 +0300".
func FormatWireDate(t time.Time) string {
	return t.Format(wireLayout) + wireSuffix
}

// ParseWireDate parses a date coming from the server or from FormatWireDate.
// The offset is ignored: the returned time carries the same wall-clock fields
// in the local zone, so FormatWireDate(ParseWireDate(s)) round-trips.
func ParseWireDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	if len(s) >= 10 && isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			// Millisecond timestamps are what most GraphQL DateTime scalars emit
			if len(s) >= 13 {
				return time.UnixMilli(n).Local(), nil
			}
			return time.Unix(n, 0).Local(), nil
		}
	}

	for _, layout := range wireLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return wallClock(parsed), nil
		}
	}

	return time.Time{}, ErrInvalidDate
}

// ParseOptionalWireDate parses a nullable server date; empty or unparsable
// values become nil.
func ParseOptionalWireDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := ParseWireDate(*s)
	if err != nil {
		return nil
	}
	return &t
}

// ParseDueInput interprets what a user typed as a due date. An empty input,
// "none" or "no date" means no due date and returns nil.
func ParseDueInput(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	switch strings.ToLower(s) {
	case "", "none", "no date", "nodate":
		return nil, nil
	case "today":
		return &endOfDay, nil
	case "tomorrow", "tom":
		t := endOfDay.AddDate(0, 0, 1)
		return &t, nil
	case "nextweek":
		t := endOfDay.AddDate(0, 0, 7)
		return &t, nil
	}

	if day, ok := ParseWeekday(s); ok {
		return nextWeekday(endOfDay, day), nil
	}

	t, err := ParseWireDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseWeekday parses full or three-letter English weekday names
func ParseWeekday(s string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	}
	return time.Sunday, false
}

func nextWeekday(endOfDay time.Time, day time.Weekday) *time.Time {
	daysUntil := int(day - endOfDay.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	t := endOfDay.AddDate(0, 0, daysUntil)
	return &t
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
