package elapsed

func YearsToMonths(years int) int {
	return years * MonthsPerYear
}

// DaysToWeeks counts complete weeks, rounding towards negative infinity.
func DaysToWeeks(days int) int {
	weeks := days / DaysPerWeek
	if days < 0 && days%DaysPerWeek != 0 {
		weeks--
	}
	return weeks
}

func DaysToHours(days int) int {
	return days * HoursPerDay
}

func HoursToMinutes(hours int) int {
	return hours * MinutesPerHour
}

func MinutesToSeconds(minutes int) int {
	return minutes * SecondsPerMinute
}
