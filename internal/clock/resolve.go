package clock

// ResolveManual maps the selector switch bits onto a table index. Any
// selector value wraps modulo the table size, so stray high bits can never
// produce an out-of-range index.
func ResolveManual(t *Table, selector uint) int {
	return int(selector % uint(t.Len()))
}

// ResolveAuto returns the first declared zone whose bounding box contains
// the point, or the fallback index when none does. Declaration order is the
// tie-break where boxes overlap.
func ResolveAuto(t *Table, lat, lon float64) int {
	for i := 0; i < t.Len(); i++ {
		z := t.Get(i)
		if z.Box != nil && z.Box.Contains(lat, lon) {
			return i
		}
	}
	return t.FallbackIndex()
}
