package elapsed

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Interval is a calendar-aware difference between two points in time.
//
// Days only holds the part left over after whole months were taken out, while
// TotalDays is the number of complete days between both points and therefore
// already accounts for leap years and months of different length.
type Interval struct {
	Years     int  `json:"years"`
	Months    int  `json:"months"`
	Days      int  `json:"days"`
	Hours     int  `json:"hours"`
	Minutes   int  `json:"minutes"`
	Seconds   int  `json:"seconds"`
	TotalDays int  `json:"total_days"`
	Inverted  bool `json:"inverted"`
}

// MaxIntervalValue bounds every field of an Interval built by hand, so that the
// cascading accumulators cannot overflow.
const MaxIntervalValue = 1_000_000_000

// Validate checks an Interval that did not come from Between, e.g. one decoded
// from a request. All fields must lie within 0..MaxIntervalValue.
func (iv Interval) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"years", iv.Years},
		{"months", iv.Months},
		{"days", iv.Days},
		{"hours", iv.Hours},
		{"minutes", iv.Minutes},
		{"seconds", iv.Seconds},
		{"total_days", iv.TotalDays},
	}
	for _, field := range fields {
		if field.value < 0 || field.value > MaxIntervalValue {
			return errors.New("Invalid interval field '" + field.name + "': " + strconv.Itoa(field.value) +
				" is not within 0.." + strconv.Itoa(MaxIntervalValue))
		}
	}
	return nil
}

func (iv Interval) ActualMonths() int {
	return iv.Months + YearsToMonths(iv.Years)
}

func (iv Interval) ActualHours() int {
	// TotalDays instead of Years/Months/Days, the calendar work is already done there
	return iv.Hours + DaysToHours(iv.TotalDays)
}

func (iv Interval) ActualMinutes() int {
	return iv.Minutes + HoursToMinutes(iv.ActualHours())
}

func (iv Interval) ActualSeconds() int {
	return iv.Seconds + MinutesToSeconds(iv.ActualMinutes())
}

// Actual returns how many complete units of the given kind the interval spans.
func (iv Interval) Actual(unit TimeUnit) int {
	switch unit {
	case Years:
		return iv.Years
	case Months:
		return iv.ActualMonths()
	case Weeks:
		return DaysToWeeks(iv.TotalDays)
	case Hours:
		return iv.ActualHours()
	case Minutes:
		return iv.ActualMinutes()
	case Seconds:
		return iv.ActualSeconds()
	default:
		return iv.TotalDays
	}
}

// String renders the interval in ISO-8601 duration notation, e.g. P1Y2M3DT4H5M6S.
func (iv Interval) String() string {
	var sb strings.Builder
	if iv.Inverted {
		sb.WriteString("-")
	}
	sb.WriteString("P")
	appendField := func(value int, designator string) {
		if value != 0 {
			sb.WriteString(strconv.Itoa(value))
			sb.WriteString(designator)
		}
	}
	appendField(iv.Years, "Y")
	appendField(iv.Months, "M")
	appendField(iv.Days, "D")
	if iv.Hours != 0 || iv.Minutes != 0 || iv.Seconds != 0 {
		sb.WriteString("T")
		appendField(iv.Hours, "H")
		appendField(iv.Minutes, "M")
		appendField(iv.Seconds, "S")
	} else if iv.Years == 0 && iv.Months == 0 && iv.Days == 0 {
		sb.WriteString("T0S")
	}
	return sb.String()
}

// Between computes the calendar difference from start to end. Both points are
// compared in start's location with second precision. When end lies before
// start the result is flagged as inverted.
func Between(start, end time.Time) Interval {
	s := start.Truncate(time.Second)
	e := end.In(start.Location()).Truncate(time.Second)

	inverted := false
	if e.Before(s) {
		s, e = e, s
		inverted = true
	}

	years := e.Year() - s.Year()
	months := int(e.Month()) - int(s.Month())
	days := e.Day() - s.Day()
	hours := e.Hour() - s.Hour()
	minutes := e.Minute() - s.Minute()
	seconds := e.Second() - s.Second()

	if seconds < 0 {
		seconds += SecondsPerMinute
		minutes--
	}
	if minutes < 0 {
		minutes += MinutesPerHour
		hours--
	}
	if hours < 0 {
		hours += HoursPerDay
		days--
	}
	// borrow whole months, starting with the length of start's month
	borrowFrom := time.Date(s.Year(), s.Month(), 1, 0, 0, 0, 0, time.UTC)
	for days < 0 {
		days += daysIn(borrowFrom.Year(), borrowFrom.Month())
		months--
		borrowFrom = borrowFrom.AddDate(0, 1, 0)
	}
	for months < 0 {
		months += MonthsPerYear
		years--
	}

	return Interval{
		Years:     years,
		Months:    months,
		Days:      days,
		Hours:     hours,
		Minutes:   minutes,
		Seconds:   seconds,
		TotalDays: totalDays(s, e),
		Inverted:  inverted,
	}
}

// Since is Between(start, now), for callers asking how long ago start was.
func Since(start, now time.Time) Interval {
	return Between(start, now)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// totalDays expects s <= e, both in the same location.
func totalDays(s, e time.Time) int {
	startDate := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	endDate := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	days := int((endDate.Unix() - startDate.Unix()) / (HoursPerDay * MinutesPerHour * SecondsPerMinute))
	if clockSeconds(e) < clockSeconds(s) {
		days--
	}
	return days
}

func clockSeconds(t time.Time) int {
	return (t.Hour()*MinutesPerHour+t.Minute())*SecondsPerMinute + t.Second()
}
