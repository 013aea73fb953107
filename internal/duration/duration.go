// Package duration implements the ban duration mini-grammar: a run of
// number+unit tokens like "1r2mo10d" with chat-specific units (a month
// is a flat 32 days, a year 365).
package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	day   = 24 * time.Hour
	month = 32 * day
	year  = 365 * day

	maxMonths  = 12
	maxSeconds = 59

	// DefaultReason stands in when a ban command carries no reason text.
	DefaultReason = "no reason"
)

var (
	// ErrBadFormat is returned for text that is not a run of number+unit tokens.
	ErrBadFormat = errors.New("invalid duration format")
	// ErrZeroDuration is returned when the tokens add up to nothing.
	ErrZeroDuration = errors.New("duration must be positive")
	// ErrTooManyMonths is returned for a month component above 12.
	ErrTooManyMonths = errors.New("months cannot exceed 12")
	// ErrTooManySeconds is returned for a seconds component above 59.
	ErrTooManySeconds = errors.New("seconds cannot exceed 59")
	// ErrNoDuration is returned by Extract when no duration token is present.
	ErrNoDuration = errors.New("no duration given")
)

var (
	wholeRe = regexp.MustCompile(`^(\d+(?:mo|r|d|h|m|s))+$`)
	unitRe  = regexp.MustCompile(`(\d+)(mo|r|d|h|m|s)`)
)

// Parse converts a duration token run ("1r2mo3d4h5m6s") into a
// time.Duration. Units: r year (365d), mo month (32d, at most 12),
// d day, h hour, m minute, s second (at most 59).
func Parse(s string) (time.Duration, error) {
	if !wholeRe.MatchString(s) {
		return 0, ErrBadFormat
	}

	var total time.Duration

	for _, match := range unitRe.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, ErrBadFormat
		}

		switch match[2] {
		case "r":
			total += time.Duration(n) * year
		case "mo":
			if n > maxMonths {
				return 0, ErrTooManyMonths
			}
			total += time.Duration(n) * month
		case "d":
			total += time.Duration(n) * day
		case "h":
			total += time.Duration(n) * time.Hour
		case "m":
			total += time.Duration(n) * time.Minute
		case "s":
			if n > maxSeconds {
				return 0, ErrTooManySeconds
			}
			total += time.Duration(n) * time.Second
		}
	}

	if total <= 0 {
		return 0, ErrZeroDuration
	}

	return total, nil
}

// Extract scans free-form argument text for duration tokens, sums them
// and returns the remaining words as the ban reason. An empty reason
// becomes DefaultReason.
func Extract(text string) (time.Duration, string, error) {
	var (
		total time.Duration
		words []string
		found bool
	)

	for _, field := range strings.Fields(text) {
		if wholeRe.MatchString(field) {
			d, err := Parse(field)
			if err != nil {
				return 0, "", err
			}

			total += d
			found = true

			continue
		}

		words = append(words, field)
	}

	if !found {
		return 0, "", ErrNoDuration
	}

	reason := strings.Join(words, " ")
	if reason == "" {
		reason = DefaultReason
	}

	return total, reason, nil
}

// Humanize renders a duration in the unit words of the grammar, largest
// first: "1 year 2 months 5 minutes".
func Humanize(d time.Duration) string {
	if d <= 0 {
		return "0 seconds"
	}

	type part struct {
		unit time.Duration
		name string
	}

	parts := []part{
		{year, "year"},
		{month, "month"},
		{day, "day"},
		{time.Hour, "hour"},
		{time.Minute, "minute"},
		{time.Second, "second"},
	}

	var out []string

	for _, p := range parts {
		if d < p.unit {
			continue
		}

		n := d / p.unit
		d -= n * p.unit

		name := p.name
		if n != 1 {
			name += "s"
		}

		out = append(out, fmt.Sprintf("%d %s", int64(n), name))
	}

	return strings.Join(out, " ")
}
