package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Month is a validated calendar month in ISO YYYY-MM form. Bills and
// consumption queries are keyed by it.
type Month struct {
	Year int
	Mon  time.Month
}

// ParseMonth validates and parses an ISO month string.
func ParseMonth(s string) (Month, error) {
	if !monthPattern.MatchString(s) {
		return Month{}, NewValidationError("month", "must be in YYYY-MM format")
	}
	year, _ := strconv.Atoi(s[:4])
	mon, _ := strconv.Atoi(s[5:])
	return Month{Year: year, Mon: time.Month(mon)}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon))
}

// IsZero reports whether the month has not been set.
func (m Month) IsZero() bool { return m.Year == 0 && m.Mon == 0 }

// Range returns the first and last day of the month (UTC, day granularity).
func (m Month) Range() (time.Time, time.Time) {
	first := time.Date(m.Year, m.Mon, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	_, last := m.Range()
	return last.Day()
}

func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

func (m *Month) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
