package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"code-sourcery.de/time-elapsed/common"
	"code-sourcery.de/time-elapsed/elapsed"
)

const (
	exitElapsed    = 0
	exitNotElapsed = 1
	exitError      = 2
)

// runCheck answers a single question from the command line and returns the
// process exit code.
func runCheck(start string, end string, amount string, unit string, loc *time.Location, out io.Writer) int {

	startTime, err := common.ParseTimestamp(start, loc)
	if err != nil {
		_, _ = fmt.Fprintln(out, "error: "+err.Error())
		return exitError
	}
	endTime, err := common.ParseTimestamp(end, loc)
	if err != nil {
		_, _ = fmt.Fprintln(out, "error: "+err.Error())
		return exitError
	}

	svc, err := elapsed.NewWithInterval(elapsed.Between(startTime, endTime))
	if err != nil {
		_, _ = fmt.Fprintln(out, "error: "+err.Error())
		return exitError
	}
	result, err := svc.HasElapsedString(amount, unit)
	if err != nil {
		_, _ = fmt.Fprintln(out, "error: "+err.Error())
		return exitError
	}

	iv, _ := svc.Interval()
	timeUnit, _ := elapsed.ParseTimeUnit(unit)
	amountValue, _ := elapsed.ParseAmount(amount)
	actual := iv.Actual(timeUnit)
	_, _ = fmt.Fprintf(out, "%s (%d %s) elapsed >= %s %s: %t\n", iv.String(), actual, unitName(float64(actual), timeUnit),
		strings.TrimSpace(amount), unitName(amountValue, timeUnit), result)
	if result {
		return exitElapsed
	}
	return exitNotElapsed
}

func unitName(count float64, unit elapsed.TimeUnit) string {
	if count == 1 {
		return unit.Singular()
	}
	return unit.String()
}
