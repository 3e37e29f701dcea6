package task

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	localTimeLayout = "2006-01-02T15:04:05"
)

// Date is a calendar day. The service sends it as YYYY-MM-DD with no zone;
// it is held as local midnight. The zero value means unset.
type Date struct {
	time.Time
}

// NewDate returns local midnight of the given day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.Local)}
}

// DateOf truncates t to local midnight.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	lt := t.In(time.Local)
	return NewDate(lt.Year(), lt.Month(), lt.Day())
}

// ParseDate reads YYYY-MM-DD. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		d.Time = time.Time{}
		return nil
	}
	// Some endpoints serialize a LocalDateTime where a date is expected.
	if len(s) > len(dateLayout) {
		ts, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*d = DateOf(ts.Time)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// Timestamp is a server-maintained point in time. The service emits zone-less
// local date-times; those are read in the client's zone. RFC 3339 input
// with an offset is honoured as is.
type Timestamp struct {
	time.Time
}

func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{t}, nil
	}
	// Fractional seconds are accepted after the seconds field even though
	// the layout does not name them.
	if t, err := time.ParseInLocation(localTimeLayout, s, time.Local); err == nil {
		return Timestamp{t}, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return Timestamp{t}, nil
	}
	return Timestamp{}, fmt.Errorf("parse timestamp %q: unsupported layout", s)
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		ts.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.In(time.Local).Format("2006-01-02T15:04:05.000") + `"`), nil
}
