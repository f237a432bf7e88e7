package timing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConvertToHoursMins formats minutes as "45min", "1h" or "02h 05min"
func ConvertToHoursMins(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	if minutes == 60 {
		return "1h"
	}
	return fmt.Sprintf("%02dh %02dmin", minutes/60, minutes%60)
}

// SessionInterval returns elapsed time in "H:M:S" format
func SessionInterval(from, to time.Time) string {
	d := to.Sub(from)
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%d:%d", s/3600, (s/60)%60, s%60)
}

// SessionText converts "H:M[:S]" to "H tim M min"
func SessionText(sessionTime string) string {
	parts := strings.Split(strings.TrimSpace(sessionTime), ":")
	if len(parts) < 2 {
		return sessionTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return sessionTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return sessionTime
	}
	return fmt.Sprintf("%d tim %d min", h, m)
}

// DueText formats due for message texts
func DueText(t time.Time, location *time.Location) string {
	if location != nil {
		t = t.In(location)
	}
	return t.Format("2006-01-02 15:04")
}
