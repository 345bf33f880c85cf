package model

import (
	"fmt"
	"time"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"
)

// ParseClock converts a 15:04 wall-clock time to minutes after midnight
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, ErrValidation)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Minutes returns the range bounds as minutes after midnight.
// The range must be non-empty and within a single day.
func (r HourRange) Minutes() (start, end int, err error) {
	start, err = ParseClock(r.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(r.End)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("range %s-%s ends before it starts: %w", r.Start, r.End, ErrValidation)
	}
	return start, end, nil
}

// CoversHour reports whether the range covers the whole clock hour starting at hour
func (r HourRange) CoversHour(hour int) bool {
	start, end, err := r.Minutes()
	if err != nil {
		return false
	}
	return start <= hour*60 && end >= (hour+1)*60
}

// Overlaps reports whether two valid ranges share any minute
func (r HourRange) Overlaps(other HourRange) bool {
	s1, e1, err := r.Minutes()
	if err != nil {
		return false
	}
	s2, e2, err := other.Minutes()
	if err != nil {
		return false
	}
	return s1 < e2 && s2 < e1
}

// Window returns the template window as minutes after midnight
func (t ShiftTemplate) Window() (start, end int, err error) {
	return HourRange{Start: t.StartTime, End: t.EndTime}.Minutes()
}

// ParseDate parses a 2006-01-02 calendar date in UTC
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, ErrValidation)
	}
	return d, nil
}
