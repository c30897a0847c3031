// Package date provides a Date type that marshals as YYYY-MM-DD.
package date

import (
	"encoding/json"
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"
)

const format = "2006-01-02"

// Date represents a calendar date without time or timezone.
type Date struct {
	time.Time
}

// New creates a Date from year, month, day.
func New(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns today's date.
func Today() Date {
	return FromTime(time.Now())
}

// FromTime truncates a time.Time to its calendar date.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Parse parses a YYYY-MM-DD string into a Date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(format, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(format)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

// AddWeeks returns the date n weeks later.
func (d Date) AddWeeks(n int) Date {
	return Date{d.AddDate(0, 0, 7*n)}
}

// AddMonths returns the date n months later.
func (d Date) AddMonths(n int) Date {
	return Date{d.AddDate(0, n, 0)}
}

// AddYears returns the date n years later.
func (d Date) AddYears(n int) Date {
	return Date{d.AddDate(n, 0, 0)}
}

// NextWeekday returns the first date strictly after d that falls on one of
// the given weekdays. With an empty set it returns the next day.
func (d Date) NextWeekday(days []time.Weekday) Date {
	next := d.AddDays(1)
	if len(days) == 0 {
		return next
	}
	for i := 0; i < 7; i++ {
		for _, wd := range days {
			if next.Weekday() == wd {
				return next
			}
		}
		next = next.AddDays(1)
	}
	return d.AddDays(7)
}

// StartOfWeek returns the Monday of the week containing d.
func (d Date) StartOfWeek() Date {
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDays(-offset)
}

// EndOfWeek returns the Sunday of the week containing d.
func (d Date) EndOfWeek() Date {
	return d.StartOfWeek().AddDays(6)
}

// BeforeDate reports whether d is strictly before other.
func (d Date) BeforeDate(other Date) bool {
	return d.Time.Before(other.Time)
}

// AfterDate reports whether d is strictly after other.
func (d Date) AfterDate(other Date) bool {
	return d.Time.After(other.Time)
}

// EqualDate reports whether d and other are the same calendar date.
func (d Date) EqualDate(other Date) bool {
	return d.Time.Equal(other.Time)
}

// MarshalYAML implements yaml.Marshaler.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.v3 Unmarshaler.
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := Parse(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
