package population

import (
	"fmt"
	"time"
)

// Period identifies which sample of a year a TimeKey refers to.
type Period int

const (
	// Annual is a single yearly sample.
	Annual Period = iota
	// January is the 1 January sample of a half-yearly series.
	January
	// July is the 1 July sample of a half-yearly series.
	July
)

func (p Period) String() string {
	switch p {
	case January:
		return "January"
	case July:
		return "Mid-Year"
	default:
		return "Annual"
	}
}

// TimeKey is the sortable label of one animation frame.
type TimeKey struct {
	Year   int
	Period Period
}

// Before reports whether k sorts before o.
func (k TimeKey) Before(o TimeKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Period < o.Period
}

// Time returns the timestamp the key was constructed from.
func (k TimeKey) Time() time.Time {
	month := time.January
	if k.Period == July {
		month = time.July
	}
	return time.Date(k.Year, month, 1, 0, 0, 0, 0, time.UTC)
}

func (k TimeKey) String() string {
	switch k.Period {
	case January:
		return fmt.Sprintf("%d-01", k.Year)
	case July:
		return fmt.Sprintf("%d-07", k.Year)
	default:
		return fmt.Sprintf("%d", k.Year)
	}
}

// ParseTimeKey parses the String form of a TimeKey.
func ParseTimeKey(s string) (TimeKey, error) {
	var year, month int
	if n, err := fmt.Sscanf(s, "%d-%d", &year, &month); err == nil && n == 2 {
		k := TimeKey{Year: year}
		switch month {
		case 1:
			k.Period = January
		case 7:
			k.Period = July
		default:
			return TimeKey{}, fmt.Errorf("time key %q: month must be 01 or 07", s)
		}
		if k.String() != s {
			return TimeKey{}, fmt.Errorf("time key %q: expected YYYY or YYYY-MM", s)
		}
		return k, nil
	}
	if _, err := fmt.Sscanf(s, "%d", &year); err != nil || fmt.Sprintf("%d", year) != s {
		return TimeKey{}, fmt.Errorf("time key %q: expected YYYY or YYYY-MM", s)
	}
	return TimeKey{Year: year, Period: Annual}, nil
}
