package model

import (
	"fmt"
	"time"
)

// Period identifies a calendar month. The zero value means the month is
// unknown (the row's reference date did not parse).
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// IsZero reports whether the period is unknown.
func (p Period) IsZero() bool {
	return p.Year == 0
}

// String formats the period as year-month, e.g. "2024-03". Sorting the
// formatted values lexicographically sorts periods chronologically.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Before reports whether p is chronologically before other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}
