package timing

import (
	"fmt"
	"time"
)

// NightWindow defines business hours, the rest of the day is night
type NightWindow struct {
	// minutes from midnight
	start, end int
	location   *time.Location
}

// NewNightWindow parses business hours in "HH:MM" format
func NewNightWindow(businessStart, businessEnd string, location *time.Location) (*NightWindow, error) {
	s, err := parseDayMinutes(businessStart)
	if err != nil {
		return nil, fmt.Errorf("wrong business start: %w", err)
	}
	e, err := parseDayMinutes(businessEnd)
	if err != nil {
		return nil, fmt.Errorf("wrong business end: %w", err)
	}
	if s >= e {
		return nil, fmt.Errorf("business start %s must be before end %s", businessStart, businessEnd)
	}
	if location == nil {
		location = time.Local
	}
	return &NightWindow{start: s, end: e, location: location}, nil
}

// DefaultNightWindow returns 08:00-22:00 business hours
func DefaultNightWindow(location *time.Location) *NightWindow {
	if location == nil {
		location = time.Local
	}
	return &NightWindow{start: 8 * 60, end: 22 * 60, location: location}
}

// IsNight returns true if t is outside business hours
func (w *NightWindow) IsNight(t time.Time) bool {
	lt := t.In(w.location)
	m := lt.Hour()*60 + lt.Minute()
	return m < w.start || m >= w.end
}

// NextBusinessTime returns the next business hours start after t
func (w *NightWindow) NextBusinessTime(t time.Time) time.Time {
	lt := t.In(w.location)
	y, mo, d := lt.Date()
	res := time.Date(y, mo, d, w.start/60, w.start%60, 0, 0, w.location)
	if lt.Before(res) {
		return res
	}
	return time.Date(y, mo, d+1, w.start/60, w.start%60, 0, 0, w.location)
}

func parseDayMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
