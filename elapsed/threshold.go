package elapsed

import (
	"errors"
	"strconv"
	"strings"
)

// Threshold is a named "at least Amount Unit" question that can be asked of
// any Checker.
type Threshold struct {
	Name   string
	Amount float64
	Unit   TimeUnit
}

// ParseThreshold reads "<amount> <unit>", e.g. "30 days" or "1.5 hours".
// A bare amount uses DefaultUnit. Amount and unit are validated the same
// way HasElapsed validates them.
func ParseThreshold(name string, value string) (*Threshold, error) {
	fields := strings.Fields(value)
	unit := DefaultUnit
	switch len(fields) {
	case 1:
	case 2:
		unit = fields[1]
	default:
		return nil, errors.New("Invalid threshold '" + value + "', expected '<amount> <unit>'")
	}
	amount, err := ParseAmount(fields[0])
	if err != nil {
		return nil, err
	}
	if amount < 1 {
		return nil, newError(KindValue, CodeAmountNotPositive, "amount must be a positive value, given ("+fields[0]+")")
	}
	timeUnit, err := ParseTimeUnit(unit)
	if err != nil {
		return nil, err
	}
	return &Threshold{Name: name, Amount: amount, Unit: timeUnit}, nil
}

func (t *Threshold) Check(c Checker) (bool, error) {
	return c.HasElapsed(t.Amount, t.Unit.String())
}

func (t *Threshold) String() string {
	return strconv.FormatFloat(t.Amount, 'f', -1, 64) + " " + t.Unit.String()
}
