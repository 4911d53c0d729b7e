package utils

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var ErrClockFormat = errors.New("time must use 24-hour HH:mm format")

// ValidClock reports whether s is a zero-padded 24-hour "HH:mm" wall-clock time.
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}

// ClockMinutes converts "HH:mm" into minutes after midnight.
func ClockMinutes(s string) (int, error) {
	if !ValidClock(s) {
		return 0, ErrClockFormat
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return h*60 + m, nil
}

// ParseDate parses a YYYY-MM-DD calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// WallClock places a calendar date and "HH:mm" time in loc and returns the instant.
func WallClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	mins, err := ClockMinutes(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, mins/60, mins%60, 0, 0, loc), nil
}
