package clock

// ComposeLocal applies the zone's UTC offset, plus the DST delta when
// active, to a UTC time of day and returns a normalized local time of day:
// hour 0..23, minute and second 0..59. No supported zone uses a fractional
// offset.
func ComposeLocal(z Zone, dstActive bool, hour, minute, second int) (int, int, int) {
	offset := z.UTCOffsetHours
	if dstActive {
		offset += z.DSTDeltaHours
	}
	// Receivers report second 60 during a leap second. Fold the carry into
	// the next minute so the published time stays within 00:00:00..23:59:59.
	minute += second / 60
	second %= 60
	hour += minute / 60
	minute %= 60
	return NormalizeHour(hour + offset), minute, second
}

// NormalizeHour wraps an hour count into 0..23. Modular rather than a
// single +/-24 correction, so extreme offsets still land in range.
func NormalizeHour(h int) int {
	h %= 24
	if h < 0 {
		h += 24
	}
	return h
}

// To12Hour converts a 0..23 hour to the 1..12 display numeral. Midnight
// shows as 12. There is no AM/PM output, only the numeral wrap.
func To12Hour(hour int) int {
	switch {
	case hour == 0:
		return 12
	case hour > 12:
		return hour - 12
	default:
		return hour
	}
}
