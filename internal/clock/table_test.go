package clock

import (
	"strings"
	"testing"
)

func zonesWithBoxes() []Zone {
	return []Zone{
		{Name: "A", StdAbbr: "AST", UTCOffsetHours: -5, Box: &Box{MinLat: 0, MaxLat: 10, MinLon: -10, MaxLon: 0}},
		{Name: "B", StdAbbr: "BST", UTCOffsetHours: -6, Box: &Box{MinLat: 0, MaxLat: 10, MinLon: -20, MaxLon: -10}},
		{Name: "Z", StdAbbr: "UTC", UTCOffsetHours: 0},
	}
}

func TestNewTable_Valid(t *testing.T) {
	tab, err := NewTable(zonesWithBoxes())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if tab.Len() != 3 {
		t.Fatalf("expected 3 zones, got %d", tab.Len())
	}
	if tab.FallbackIndex() != 2 {
		t.Fatalf("expected fallback index 2, got %d", tab.FallbackIndex())
	}
}

func TestNewTable_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		zones   []Zone
		errPart string
	}{
		{"empty", nil, "empty"},
		{
			"no fallback",
			[]Zone{{Name: "A", StdAbbr: "A", Box: &Box{MaxLat: 1, MaxLon: 1}}},
			"no fallback",
		},
		{
			"two fallbacks",
			[]Zone{{Name: "A", StdAbbr: "A"}, {Name: "B", StdAbbr: "B"}},
			"both lack",
		},
		{
			"unnamed zone",
			[]Zone{{StdAbbr: "A"}},
			"no name",
		},
		{
			"offset out of range",
			[]Zone{{Name: "A", StdAbbr: "A", UTCOffsetHours: 15}},
			"out of range",
		},
		{
			"dst without delta",
			[]Zone{{Name: "A", StdAbbr: "A", ObservesDST: true}},
			"zero delta",
		},
		{
			"inverted box",
			[]Zone{
				{Name: "A", StdAbbr: "A", Box: &Box{MinLat: 10, MaxLat: 0, MinLon: 0, MaxLon: 1}},
				{Name: "Z", StdAbbr: "Z"},
			},
			"malformed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.zones)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Fatalf("error %q does not mention %q", err, tc.errPart)
			}
		})
	}
}

func TestTable_GetPanicsOutOfRange(t *testing.T) {
	tab, err := NewTable(zonesWithBoxes())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	tab.Get(3)
}

func TestBox_ContainsEdges(t *testing.T) {
	b := Box{MinLat: 24, MaxLat: 50, MinLon: -125, MaxLon: -112.5}
	if !b.Contains(24, -125) {
		t.Fatalf("expected lower edge inside")
	}
	if !b.Contains(50, -112.5) {
		t.Fatalf("expected upper edge inside")
	}
	if b.Contains(23.999, -120) {
		t.Fatalf("expected point south of box outside")
	}
	if b.Contains(40, -112.499) {
		t.Fatalf("expected point east of box outside")
	}
}

func TestZone_Abbr(t *testing.T) {
	z := Zone{Name: "Pacific", StdAbbr: "PST", DSTAbbr: "PDT"}
	if got := z.Abbr(false); got != "PST" {
		t.Fatalf("Abbr(false)=%q want PST", got)
	}
	if got := z.Abbr(true); got != "PDT" {
		t.Fatalf("Abbr(true)=%q want PDT", got)
	}
	noDST := Zone{Name: "Arizona", StdAbbr: "MST"}
	if got := noDST.Abbr(true); got != "MST" {
		t.Fatalf("Abbr(true) without DSTAbbr=%q want MST", got)
	}
}

func TestBuiltin_ShapeAndOrder(t *testing.T) {
	tab := Builtin()
	if tab.Len() != 8 {
		t.Fatalf("expected 8 zones, got %d", tab.Len())
	}
	last := tab.Get(tab.Len() - 1)
	if last.Name != "UTC" || last.Box != nil {
		t.Fatalf("expected boxless UTC fallback last, got %+v", last)
	}
	if tab.FallbackIndex() != tab.Len()-1 {
		t.Fatalf("expected fallback at end, got %d", tab.FallbackIndex())
	}
	// Arizona must precede Mountain so first-match resolution wins the
	// deliberate box overlap.
	az, mt := -1, -1
	for i := 0; i < tab.Len(); i++ {
		switch tab.Get(i).Name {
		case "Arizona":
			az = i
		case "Mountain":
			mt = i
		}
	}
	if az == -1 || mt == -1 || az >= mt {
		t.Fatalf("expected Arizona before Mountain, got az=%d mt=%d", az, mt)
	}
}
