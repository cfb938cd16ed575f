package clock

import "testing"

func TestResolveManual_Wraps(t *testing.T) {
	tab := Builtin()
	cases := []struct {
		selector uint
		want     int
	}{
		{0, 0},
		{4, 4},
		{7, 7},
		{8, 0},
		{9, 1},
		{255, 7},
	}
	for _, tc := range cases {
		if got := ResolveManual(tab, tc.selector); got != tc.want {
			t.Fatalf("ResolveManual(%d)=%d want %d", tc.selector, got, tc.want)
		}
	}
}

func TestResolveAuto_KnownCities(t *testing.T) {
	tab := Builtin()
	cases := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"new york", 40.71, -74.01, "Eastern"},
		{"chicago", 41.88, -87.63, "Central"},
		{"denver", 39.74, -104.99, "Mountain"},
		{"phoenix", 33.45, -112.07, "Arizona"},
		{"los angeles", 34.05, -118.24, "Pacific"},
		{"las vegas", 36.17, -115.14, "Pacific"},
		{"anchorage", 61.22, -149.90, "Alaska"},
		{"honolulu", 21.31, -157.86, "Hawaii"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx := ResolveAuto(tab, tc.lat, tc.lon)
			if got := tab.Get(idx).Name; got != tc.want {
				t.Fatalf("ResolveAuto(%.2f,%.2f)=%s want %s", tc.lat, tc.lon, got, tc.want)
			}
		})
	}
}

func TestResolveAuto_OverlapPrefersDeclarationOrder(t *testing.T) {
	// Phoenix sits inside both the Arizona and Mountain boxes; Arizona is
	// declared first and must win.
	tab := Builtin()
	idx := ResolveAuto(tab, 33.45, -112.07)
	z := tab.Get(idx)
	if z.Name != "Arizona" {
		t.Fatalf("expected Arizona, got %s", z.Name)
	}
	if z.ObservesDST {
		t.Fatalf("expected non-dst zone")
	}
}

func TestResolveAuto_FallbackOutsideAllBoxes(t *testing.T) {
	tab := Builtin()
	// Mid-Atlantic, far from any box.
	idx := ResolveAuto(tab, 30, -40)
	if idx != tab.FallbackIndex() {
		t.Fatalf("expected fallback index %d, got %d", tab.FallbackIndex(), idx)
	}
	if got := tab.Get(idx).Name; got != "UTC" {
		t.Fatalf("expected UTC fallback, got %s", got)
	}
}

func TestResolveAuto_Deterministic(t *testing.T) {
	tab := Builtin()
	first := ResolveAuto(tab, 47.61, -122.33)
	for i := 0; i < 5; i++ {
		if got := ResolveAuto(tab, 47.61, -122.33); got != first {
			t.Fatalf("resolution changed between calls: %d then %d", first, got)
		}
	}
}
