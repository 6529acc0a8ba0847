package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultDateFrom is used when a channel line gives no lower bound
	DefaultDateFrom = "now-1000years"
	// DefaultDateTo is used when a channel line gives no upper bound
	DefaultDateTo = "now+1000years"

	uploadDateLayout = "20060102"
	isoDateLayout    = "2006-01-02"
)

var (
	relativeDateRe = regexp.MustCompile(`^(now|today)([+-])(\d+)(day|week|month|year)s?$`)
	agoDateRe      = regexp.MustCompile(`^(\d+)\s*(day|week|month|year)s?\s+ago$`)
)

// ParseDate resolves a date expression relative to now, truncated to the calendar day (UTC).
//
// Accepted forms: now, today, yesterday, YYYYMMDD, YYYY-MM-DD,
// now-10years / today+2weeks, and "3 months ago".
func ParseDate(expr string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	today := truncateDay(now)

	switch s {
	case "now", "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if m := relativeDateRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, expr)
		}
		if m[2] == "-" {
			n = -n
		}
		return shiftDate(today, n, m[4]), nil
	}

	if m := agoDateRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, expr)
		}
		return shiftDate(today, -n, m[2]), nil
	}

	return ParseUploadDate(s)
}

// ParseUploadDate parses an absolute date in YYYYMMDD or YYYY-MM-DD form
func ParseUploadDate(s string) (time.Time, error) {
	for _, layout := range []string{uploadDateLayout, isoDateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func shiftDate(t time.Time, n int, unit string) time.Time {
	switch unit {
	case "week":
		return t.AddDate(0, 0, 7*n)
	case "month":
		return t.AddDate(0, n, 0)
	case "year":
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// DateWindow is a resolved, exclusive date range for a channel
type DateWindow struct {
	From time.Time
	To   time.Time
}

// NewDateWindow resolves the date bounds of a channel spec
func NewDateWindow(spec ChannelSpec, now time.Time) (DateWindow, error) {
	fromExpr, toExpr := spec.DateFrom, spec.DateTo
	if fromExpr == "" {
		fromExpr = DefaultDateFrom
	}
	if toExpr == "" {
		toExpr = DefaultDateTo
	}

	from, err := ParseDate(fromExpr, now)
	if err != nil {
		return DateWindow{}, fmt.Errorf("date_from: %w", err)
	}
	to, err := ParseDate(toExpr, now)
	if err != nil {
		return DateWindow{}, fmt.Errorf("date_to: %w", err)
	}
	return DateWindow{From: from, To: to}, nil
}

// Contains reports whether an upload date lies strictly between the bounds.
// Absent or unparsable dates are never contained.
func (w DateWindow) Contains(uploadDate string) (bool, error) {
	if uploadDate == "" {
		return false, fmt.Errorf("%w: empty upload date", ErrInvalidDate)
	}
	d, err := ParseUploadDate(uploadDate)
	if err != nil {
		return false, err
	}
	return w.From.Before(d) && d.Before(w.To), nil
}
