package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// APN is an Assignment Priority Number: a fixed-point decimal whose integer
// part is the date serial of the registration day and whose fractional part
// is an intraday tie-break sequence. Stored as integer hundredths so that
// comparison and increment stay exact (same idea as money-in-cents).
//
// APNs are assigned append-only per book: the next number is always strictly
// greater than every number already on the book, so a book's queue order is a
// total order with no ties.
type APN int64

// serialEpoch is the day-zero of the date serial (spreadsheet convention).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateSerial returns the date serial for t's calendar date.
func DateSerial(t time.Time) int64 {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int64(d.Sub(serialEpoch).Hours() / 24)
}

// NewAPN builds an APN from a date serial and an intraday sequence (0-99).
func NewAPN(serial, seq int64) APN {
	return APN(serial*100 + seq)
}

// NextAPN computes the APN for a new registration given the current maximum
// on the book. The first registration of a day takes fraction .10; later
// registrations advance by .01 past whatever is already on the book, even if
// that spills past today's serial.
func NextAPN(currentMax APN, today int64) APN {
	base := NewAPN(today, 10)
	if currentMax < base {
		return base
	}
	return currentMax + 1
}

// Serial returns the date-serial (integer) part.
func (a APN) Serial() int64 { return int64(a) / 100 }

// Seq returns the intraday tie-break (fractional) part in hundredths.
func (a APN) Seq() int64 { return int64(a) % 100 }

// IsZero reports whether the APN is unset.
func (a APN) IsZero() bool { return a == 0 }

// Less orders APNs ascending: earlier registration first.
func (a APN) Less(b APN) bool { return a < b }

// String renders the decimal form, e.g. "46275.10".
func (a APN) String() string {
	return fmt.Sprintf("%d.%02d", a.Serial(), a.Seq())
}

// Value implements driver.Valuer; APNs map to NUMERIC(12,2) columns.
func (a APN) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner. lib/pq hands NUMERIC back as []byte.
func (a *APN) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = 0
		return nil
	case int64:
		*a = APN(v * 100)
		return nil
	case float64:
		*a = APN(v*100 + 0.5)
		return nil
	case []byte:
		return a.parse(string(v))
	case string:
		return a.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into APN", src)
	}
}

func (a *APN) parse(s string) error {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	serial, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid APN %q: %w", s, err)
	}
	var seq int64
	if frac != "" {
		// Normalize to exactly two fractional digits.
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		seq, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid APN %q: %w", s, err)
		}
	}
	*a = NewAPN(serial, seq)
	return nil
}
