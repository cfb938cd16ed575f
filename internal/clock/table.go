package clock

import "fmt"

// Zone describes one selectable timezone. Zones are static data: the table
// is built once at startup, from the built-in list or a config override,
// and never mutated afterwards.
type Zone struct {
	// Name is the human-facing zone name, e.g. "Pacific".
	Name string

	// StdAbbr and DSTAbbr are the standard and daylight abbreviations
	// ("PST"/"PDT"). DSTAbbr is empty for zones that never observe DST.
	StdAbbr string
	DSTAbbr string

	// UTCOffsetHours is the standard offset from UTC in whole hours.
	UTCOffsetHours int

	// ObservesDST enables the daylight rule; DSTDeltaHours is the offset
	// added while daylight time is in effect.
	ObservesDST   bool
	DSTDeltaHours int

	// Box bounds the zone for geographic resolution. The fallback entry has
	// no box and is selected when no box matches.
	Box *Box
}

// Abbr returns the abbreviation matching the given DST state.
func (z Zone) Abbr(dstActive bool) string {
	if dstActive && z.DSTAbbr != "" {
		return z.DSTAbbr
	}
	return z.StdAbbr
}

// Box is a closed latitude/longitude rectangle in decimal degrees, west
// longitudes negative.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lon >= b.MinLon && lon <= b.MaxLon
}

// Table is a validated, read-only set of selectable zones. Declaration
// order is load-bearing twice over: the manual selector indexes it, and
// geographic resolution returns the first box that matches.
type Table struct {
	zones    []Zone
	fallback int
}

// NewTable validates zones and builds a table. Exactly one entry must have
// no bounding box; it becomes the fallback selected when geographic
// resolution matches nothing.
func NewTable(zones []Zone) (*Table, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("timezone table is empty")
	}
	fallback := -1
	for i, z := range zones {
		if z.Name == "" {
			return nil, fmt.Errorf("timezone %d has no name", i)
		}
		if z.UTCOffsetHours < -12 || z.UTCOffsetHours > 14 {
			return nil, fmt.Errorf("timezone %q: utc offset %d out of range -12..14", z.Name, z.UTCOffsetHours)
		}
		if z.ObservesDST && z.DSTDeltaHours == 0 {
			return nil, fmt.Errorf("timezone %q observes dst but has zero delta", z.Name)
		}
		if z.Box != nil {
			if z.Box.MinLat > z.Box.MaxLat || z.Box.MinLon > z.Box.MaxLon {
				return nil, fmt.Errorf("timezone %q: malformed bounding box", z.Name)
			}
			continue
		}
		if fallback != -1 {
			return nil, fmt.Errorf("timezones %q and %q both lack a bounding box; exactly one fallback allowed",
				zones[fallback].Name, z.Name)
		}
		fallback = i
	}
	if fallback == -1 {
		return nil, fmt.Errorf("timezone table has no fallback entry without a bounding box")
	}
	t := &Table{zones: make([]Zone, len(zones)), fallback: fallback}
	copy(t.zones, zones)
	return t, nil
}

// Len returns the number of zones.
func (t *Table) Len() int { return len(t.zones) }

// Get returns the zone at index i. Indexes come from the resolvers and are
// always in range; anything else is a programmer error and panics.
func (t *Table) Get(i int) Zone {
	if i < 0 || i >= len(t.zones) {
		panic(fmt.Sprintf("clock: zone index %d out of range 0..%d", i, len(t.zones)-1))
	}
	return t.zones[i]
}

// FallbackIndex returns the index of the boxless fallback entry.
func (t *Table) FallbackIndex() int { return t.fallback }

// Zones returns a copy of the table entries, for status reporting.
func (t *Table) Zones() []Zone {
	out := make([]Zone, len(t.zones))
	copy(out, t.zones)
	return out
}

// Builtin returns the default table: the continental US zones plus Alaska
// and Hawaii, with a UTC fallback. Arizona is declared ahead of Mountain so
// first-match resolution picks the non-DST zone inside their overlap.
func Builtin() *Table {
	t, err := NewTable([]Zone{
		{
			Name: "Eastern", StdAbbr: "EST", DSTAbbr: "EDT",
			UTCOffsetHours: -5, ObservesDST: true, DSTDeltaHours: 1,
			Box: &Box{MinLat: 24, MaxLat: 50, MinLon: -82.5, MaxLon: -66},
		},
		{
			Name: "Central", StdAbbr: "CST", DSTAbbr: "CDT",
			UTCOffsetHours: -6, ObservesDST: true, DSTDeltaHours: 1,
			Box: &Box{MinLat: 24, MaxLat: 50, MinLon: -97.5, MaxLon: -82.5},
		},
		{
			Name: "Arizona", StdAbbr: "MST",
			UTCOffsetHours: -7,
			Box:            &Box{MinLat: 31.3, MaxLat: 37, MinLon: -114.8, MaxLon: -109},
		},
		{
			Name: "Mountain", StdAbbr: "MST", DSTAbbr: "MDT",
			UTCOffsetHours: -7, ObservesDST: true, DSTDeltaHours: 1,
			Box: &Box{MinLat: 24, MaxLat: 50, MinLon: -112.5, MaxLon: -97.5},
		},
		{
			Name: "Pacific", StdAbbr: "PST", DSTAbbr: "PDT",
			UTCOffsetHours: -8, ObservesDST: true, DSTDeltaHours: 1,
			Box: &Box{MinLat: 24, MaxLat: 50, MinLon: -125, MaxLon: -112.5},
		},
		{
			Name: "Alaska", StdAbbr: "AKST", DSTAbbr: "AKDT",
			UTCOffsetHours: -9, ObservesDST: true, DSTDeltaHours: 1,
			Box: &Box{MinLat: 51, MaxLat: 72, MinLon: -170, MaxLon: -129},
		},
		{
			Name: "Hawaii", StdAbbr: "HST",
			UTCOffsetHours: -10,
			Box:            &Box{MinLat: 18, MaxLat: 23, MinLon: -161, MaxLon: -154},
		},
		{
			Name: "UTC", StdAbbr: "UTC",
		},
	})
	if err != nil {
		panic("clock: built-in timezone table invalid: " + err.Error())
	}
	return t
}
