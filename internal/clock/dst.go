package clock

// US daylight-saving transitions under the 2007 rule: daylight time begins
// on the second Sunday of March and ends on the first Sunday of November.
// The decision is purely calendrical, by UTC date only; the hour-level
// error band around the 02:00 local switchover instant is accepted.

// minYear/maxYear bound the supported calendar range. Receivers report
// two-digit years; anything outside the window clamps rather than wrapping.
const (
	minYear = 2000
	maxYear = 2099
)

// DSTActive reports whether daylight time is in effect in zone z on the
// given civil date. Dates are not validated; an impossible day still
// produces a deterministic answer.
func DSTActive(z Zone, year, month, day int) bool {
	if !z.ObservesDST {
		return false
	}
	year = clampYear(year)
	switch {
	case month > 3 && month < 11:
		return true
	case month < 3 || month > 11:
		return false
	case month == 3:
		return day >= SecondSunday(year, 3)
	default: // November
		return day < FirstSunday(year, 11)
	}
}

// clampYear maps two-digit receiver years onto 20xx and clamps anything
// outside the supported window.
func clampYear(y int) int {
	if y >= 0 && y < 100 {
		y += 2000
	}
	if y < minYear {
		return minYear
	}
	if y > maxYear {
		return maxYear
	}
	return y
}

// FirstSunday returns the day of month (1..7) of the first Sunday.
func FirstSunday(year, month int) int {
	dow := dayOfWeek(year, month, 1)
	if dow == 0 {
		return 1
	}
	return 8 - dow
}

// SecondSunday returns the day of month (8..14) of the second Sunday.
func SecondSunday(year, month int) int {
	return FirstSunday(year, month) + 7
}

// dayOfWeek computes the Gregorian weekday (Sunday=0) with Zeller's
// congruence. January and February count as months 13 and 14 of the
// preceding year, as the congruence requires.
func dayOfWeek(year, month, day int) int {
	if month < 3 {
		month += 12
		year--
	}
	k := year % 100
	j := year / 100
	h := (day + 13*(month+1)/5 + k + k/4 + j/4 + 5*j) % 7
	// Zeller numbers Saturday as 0; shift so Sunday is 0.
	return (h + 6) % 7
}
