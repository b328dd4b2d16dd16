// Package epoch implements the fixed-epoch day-number time representation
// used throughout the orbit prediction core.
//
// A DayTime is an integer day count plus a fractional-day offset. The day
// numbering follows the Plan-13 convention (Julian Day − 1721409.5, or
// AMSAT day + 722100) and the calendar conversion is a linear approximation
// valid from 1900-03-01 through 2100-02-28.
package epoch

import (
	"fmt"
	"math"
	"time"
)

// DayTime represents an absolute instant as a whole day number DN plus a
// day fraction TN in [0,1). Value semantics: Add and RoundUp return new
// values, they never mutate the receiver.
type DayTime struct {
	DN int64
	TN float64
}

// InvalidDateError reports calendar fields outside their natural ranges or
// outside the valid conversion window.
type InvalidDateError struct {
	Field string
	Value int
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date field %s: %d", e.Field, e.Value)
}

// Validity window of the day-number formula. The linear approximation breaks
// across the 1900 and 2100 Gregorian leap exceptions.
var (
	windowMin = DayNumber(1900, 3, 1)
	windowMax = DayNumber(2100, 2, 28)
)

// DayNumber converts a calendar date to the Plan-13 day number.
// January and February are treated as months 13 and 14 of the prior year.
func DayNumber(year, month, day int) int64 {
	if month < 3 {
		month += 12
		year--
	}
	return int64(float64(year)*365.25) + int64(float64(month+1)*30.6001) + int64(day) - 428
}

// dayToCalendar is the inverse of DayNumber within the validity window.
func dayToCalendar(dn int64) (year, month, day int) {
	dn += 428
	year = int((float64(dn) - 122.1) / 365.25)
	dn -= int64(float64(year) * 365.25)
	month = int(float64(dn) / 30.6001)
	dn -= int64(float64(month) * 30.6001)
	month--
	if month > 12 {
		month -= 12
		year++
	}
	day = int(dn)
	return year, month, day
}

// New constructs a DayTime from Gregorian calendar fields.
// Fields must be in their natural ranges and the date must fall inside
// 1900-03-01..2100-02-28; otherwise an *InvalidDateError is returned.
func New(year, month, day, hour, min, sec int) (DayTime, error) {
	switch {
	case month < 1 || month > 12:
		return DayTime{}, &InvalidDateError{Field: "month", Value: month}
	case day < 1 || day > 31:
		return DayTime{}, &InvalidDateError{Field: "day", Value: day}
	case hour < 0 || hour > 23:
		return DayTime{}, &InvalidDateError{Field: "hour", Value: hour}
	case min < 0 || min > 59:
		return DayTime{}, &InvalidDateError{Field: "minute", Value: min}
	case sec < 0 || sec > 59:
		return DayTime{}, &InvalidDateError{Field: "second", Value: sec}
	}

	dn := DayNumber(year, month, day)
	if dn < windowMin || dn > windowMax {
		return DayTime{}, &InvalidDateError{Field: "year", Value: year}
	}

	return DayTime{
		DN: dn,
		TN: (float64(hour) + float64(min)/60.0 + float64(sec)/3600.0) / 24.0,
	}, nil
}

// FromTime converts a wall-clock instant (UTC) to a DayTime.
// Sub-second precision is preserved in the day fraction.
func FromTime(t time.Time) DayTime {
	t = t.UTC()
	dn := DayNumber(t.Year(), int(t.Month()), t.Day())
	secs := float64(t.Hour())*3600 + float64(t.Minute())*60 +
		float64(t.Second()) + float64(t.Nanosecond())/1e9
	return DayTime{DN: dn, TN: secs / 86400.0}
}

// Calendar renders the DayTime back to calendar fields at second precision.
func (dt DayTime) Calendar() (year, month, day, hour, min, sec int) {
	dn := dt.DN
	// Round to the nearest whole second so settime/gettime round-trips exactly.
	total := int64(dt.TN*86400.0 + 0.5)
	if total >= 86400 {
		total -= 86400
		dn++
	}
	year, month, day = dayToCalendar(dn)
	hour = int(total / 3600)
	min = int(total % 3600 / 60)
	sec = int(total % 60)
	return year, month, day, hour, min, sec
}

// Add returns dt advanced by a (possibly negative) number of days, with the
// fractional part renormalized into [0,1).
func (dt DayTime) Add(days float64) DayTime {
	tn := dt.TN + days
	carry := math.Floor(tn)
	return DayTime{DN: dt.DN + int64(carry), TN: tn - carry}
}

// RoundUp advances the day fraction to the next multiple of step, carrying
// into the day number when it rolls past midnight. Used to align prediction
// ticks to a polling cadence.
func (dt DayTime) RoundUp(step float64) DayTime {
	inc := step - math.Mod(dt.TN, step)
	tn := dt.TN + inc
	carry := math.Floor(tn)
	return DayTime{DN: dt.DN + int64(carry), TN: tn - carry}
}

// Time converts the DayTime to a wall-clock instant (UTC) at second
// precision. Inverse of FromTime up to rounding of the day fraction.
func (dt DayTime) Time() time.Time {
	y, mo, d, h, mi, s := dt.Calendar()
	return time.Date(y, time.Month(mo), d, h, mi, s, 0, time.UTC)
}

// Sub returns the elapsed time dt − other in days.
func (dt DayTime) Sub(other DayTime) float64 {
	return float64(dt.DN-other.DN) + (dt.TN - other.TN)
}

// String renders the instant as "YYYY/MM/DD HH:MM:SS".
func (dt DayTime) String() string {
	y, mo, d, h, mi, s := dt.Calendar()
	return fmt.Sprintf("%04d/%02d/%02d %02d:%02d:%02d", y, mo, d, h, mi, s)
}
