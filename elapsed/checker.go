package elapsed

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"code-sourcery.de/time-elapsed/logger"
)

var log = logger.GetLogger("elapsed")

var numericAmount = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Checker answers whether at least some amount of a time unit has passed
// within an interval.
type Checker interface {
	Interval() (Interval, bool)
	SetInterval(iv Interval) error
	HasElapsed(amount float64, unit string) (bool, error)
}

// Service is the Checker implementation. It holds at most one interval.
//
// A Service must not be mutated concurrently with reads; give every goroutine
// its own instance or synchronize externally.
type Service struct {
	interval *Interval
}

var _ Checker = (*Service)(nil)

func New() *Service {
	return &Service{}
}

func NewWithInterval(iv Interval) (*Service, error) {
	s := New()
	if err := s.SetInterval(iv); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) Interval() (Interval, bool) {
	if s.interval == nil {
		return Interval{}, false
	}
	return *s.interval, true
}

// SetInterval replaces the stored interval. Inverted intervals are rejected
// and leave the current one in place.
func (s *Service) SetInterval(iv Interval) error {
	if iv.Inverted {
		return newError(KindLogic, CodeInvertedInterval, "interval must not represent a backwards span")
	}
	stored := iv
	s.interval = &stored
	return nil
}

func (s *Service) HasElapsed(amount float64, unit string) (bool, error) {
	if s.interval == nil {
		return false, intervalNotSet()
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return false, newError(KindLogic, CodeAmountNotNumeric, "amount must be numeric, given ("+strconv.FormatFloat(amount, 'g', -1, 64)+")")
	}
	return s.hasElapsed(amount, unit)
}

// HasElapsedString is HasElapsed for an amount that still has to be parsed,
// e.g. taken from a command line or a query string.
func (s *Service) HasElapsedString(amount string, unit string) (bool, error) {
	if s.interval == nil {
		return false, intervalNotSet()
	}
	value, err := ParseAmount(amount)
	if err != nil {
		return false, err
	}
	return s.hasElapsed(value, unit)
}

func (s *Service) hasElapsed(amount float64, unit string) (bool, error) {
	if amount < 1 {
		return false, newError(KindValue, CodeAmountNotPositive, "amount must be a positive value, given ("+strconv.FormatFloat(amount, 'g', -1, 64)+")")
	}
	timeUnit, err := ParseTimeUnit(unit)
	if err != nil {
		return false, err
	}
	actual := s.interval.Actual(timeUnit)
	result := float64(actual) >= amount
	if log.IsTraceEnabled() {
		log.Trace("Interval " + s.interval.String() + " spans " + strconv.Itoa(actual) + " " + timeUnit.String() +
			", threshold " + strconv.FormatFloat(amount, 'g', -1, 64) + " => elapsed: " + strconv.FormatBool(result))
	}
	return result, nil
}

// ParseAmount accepts decimal numbers with optional sign, fraction, exponent
// and surrounding whitespace.
func ParseAmount(amount string) (float64, error) {
	trimmed := strings.TrimSpace(amount)
	if !numericAmount.MatchString(trimmed) {
		return 0, newError(KindLogic, CodeAmountNotNumeric, "amount must be numeric, given ("+amount+")")
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, newError(KindLogic, CodeAmountNotNumeric, "amount must be numeric, given ("+amount+")")
	}
	return value, nil
}

func intervalNotSet() error {
	return newError(KindLogic, CodeIntervalNotSet, "interval has not been set")
}

func (s *Service) HasYearsElapsed(amount float64) (bool, error) {
	return s.HasElapsed(amount, "years")
}

func (s *Service) HasMonthsElapsed(amount float64) (bool, error) {
	return s.HasElapsed(amount, "months")
}

func (s *Service) HasWeeksElapsed(amount float64) (bool, error) {
	return s.HasElapsed(amount, "weeks")
}

func (s *Service) HasDaysElapsed(amount float64) (bool, error) {
	return s.HasElapsed(amount, "days")
}

func (s *Service) HasHoursElapsed(amount float64) (bool, error) {
	return s.HasElapsed(amount, "hours")
}

func (s *Service) HasMinutesElapsed(amount float64) (bool, error) {
	return s.HasElapsed(amount, "minutes")
}

func (s *Service) HasSecondsElapsed(amount float64) (bool, error) {
	return s.HasElapsed(amount, "seconds")
}

func (s *Service) ActualMonths() (int, error) {
	if s.interval == nil {
		return 0, intervalNotSet()
	}
	return s.interval.ActualMonths(), nil
}

func (s *Service) ActualHours() (int, error) {
	if s.interval == nil {
		return 0, intervalNotSet()
	}
	return s.interval.ActualHours(), nil
}

func (s *Service) ActualMinutes() (int, error) {
	if s.interval == nil {
		return 0, intervalNotSet()
	}
	return s.interval.ActualMinutes(), nil
}

func (s *Service) ActualSeconds() (int, error) {
	if s.interval == nil {
		return 0, intervalNotSet()
	}
	return s.interval.ActualSeconds(), nil
}
