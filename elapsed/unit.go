package elapsed

import "strings"

type TimeUnit int

const (
	Years TimeUnit = iota
	Months
	Weeks
	Days
	Hours
	Minutes
	Seconds
)

const (
	MonthsPerYear    = 12
	DaysPerWeek      = 7
	HoursPerDay      = 24
	MinutesPerHour   = 60
	SecondsPerMinute = 60
)

// DefaultUnit is used whenever a caller does not name a unit.
const DefaultUnit = "days"

// ValidTimeUnits lists every accepted unit token, singular before plural.
var ValidTimeUnits = []string{
	"year",
	"years",
	"month",
	"months",
	"week",
	"weeks",
	"day",
	"days",
	"hour",
	"hours",
	"minute",
	"minutes",
	"second",
	"seconds",
}

var allUnits = []TimeUnit{Years, Months, Weeks, Days, Hours, Minutes, Seconds}

func (u TimeUnit) String() string {
	switch u {
	case Years:
		return "years"
	case Months:
		return "months"
	case Weeks:
		return "weeks"
	case Days:
		return "days"
	case Hours:
		return "hours"
	case Minutes:
		return "minutes"
	case Seconds:
		return "seconds"
	default:
		return "unknown"
	}
}

// Singular returns the singular token for this unit ("year", "month", ...).
func (u TimeUnit) Singular() string {
	return strings.TrimSuffix(u.String(), "s")
}

// Units returns all time units, largest first.
func Units() []TimeUnit {
	result := make([]TimeUnit, len(allUnits))
	copy(result, allUnits)
	return result
}

// ParseTimeUnit maps one of the ValidTimeUnits tokens (any letter case) to its unit.
func ParseTimeUnit(unit string) (TimeUnit, error) {
	switch strings.ToLower(unit) {
	case "year", "years":
		return Years, nil
	case "month", "months":
		return Months, nil
	case "week", "weeks":
		return Weeks, nil
	case "day", "days":
		return Days, nil
	case "hour", "hours":
		return Hours, nil
	case "minute", "minutes":
		return Minutes, nil
	case "second", "seconds":
		return Seconds, nil
	default:
		return 0, newError(KindValue, CodeUnitNotRecognized, "unit is not recognized, given ("+unit+")")
	}
}

// IsValidTimeUnit reports whether ParseTimeUnit would accept unit.
func IsValidTimeUnit(unit string) bool {
	_, err := ParseTimeUnit(unit)
	return err == nil
}
