// Package timegrid holds the minute-resolution calendar values used by
// availability and booking code. Times of day are plain integers, so every
// comparison is exact and no timezone conversion happens here: callers pass
// values that are already local to the tenant.
package timegrid

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay is the exclusive upper bound of a TimeOfDay.
const MinutesPerDay = 24 * 60

var ErrInvalidTimeValue = errors.New("invalid time value")

// TimeOfDay is a wall-clock time as minutes since midnight, in [0, 1440).
type TimeOfDay int

func NewTimeOfDay(minutes int) (TimeOfDay, error) {
	if minutes < 0 || minutes >= MinutesPerDay {
		return 0, fmt.Errorf("%w: minute %d out of range", ErrInvalidTimeValue, minutes)
	}
	return TimeOfDay(minutes), nil
}

// Clock builds a TimeOfDay from hour and minute fields.
func Clock(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeValue, hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay accepts "15:04" and "15:04:05"; seconds must be zero.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeValue, s)
	}
	if t.Second() != 0 {
		return 0, fmt.Errorf("%w: %q has seconds", ErrInvalidTimeValue, s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Valid reports whether t lies in [0, 1440).
func (t TimeOfDay) Valid() bool {
	return t >= 0 && int(t) < MinutesPerDay
}

// AddMinutes fails when the result leaves the day.
func (t TimeOfDay) AddMinutes(n int) (TimeOfDay, error) {
	return NewTimeOfDay(int(t) + n)
}

func (t TimeOfDay) IsBefore(o TimeOfDay) bool { return t < o }

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimeValue, string(data))
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Date is a calendar day without time or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidTimeValue, year, int(month), day)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidTimeValue, s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// At places a time of day on this date in loc (UTC when loc is nil).
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, loc)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimeValue, string(data))
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

func NewInterval(start, end TimeOfDay) (Interval, error) {
	if !start.Valid() || !end.Valid() {
		return Interval{}, fmt.Errorf("%w: %d-%d", ErrInvalidTimeValue, int(start), int(end))
	}
	if !start.IsBefore(end) {
		return Interval{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidTimeValue, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval parses two "HH:MM" strings into an interval.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

func (i Interval) Minutes() int { return int(i.End - i.Start) }

func (i Interval) Overlaps(o Interval) bool { return Overlaps(i, o) }

// Contains reports whether o lies entirely inside i.
func (i Interval) Contains(o Interval) bool {
	return i.Start <= o.Start && o.End <= i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// Overlaps reports whether [a.Start, a.End) and [b.Start, b.End) share a minute.
// Touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}
