package gps

import (
	"math"
	"testing"
	"time"
)

func TestGPSDState_TPVUpdatesFix(t *testing.T) {
	now := time.Date(2024, 7, 4, 14, 30, 15, 0, time.UTC)
	st := newGPSDState("127.0.0.1:2947")

	line := `{"class":"TPV","mode":3,"time":"2024-07-04T14:30:15.000Z","lat":34.05,"lon":-118.24}`
	updated, err := st.applyLine(now, line)
	if err != nil {
		t.Fatalf("applyLine err: %v", err)
	}
	if !updated {
		t.Fatalf("expected updated")
	}

	snap := st.snapshot()
	if !snap.Valid {
		t.Fatalf("expected valid")
	}
	if math.Abs(snap.LatDeg-34.05) > 1e-9 {
		t.Fatalf("lat=%v", snap.LatDeg)
	}
	if math.Abs(snap.LonDeg-(-118.24)) > 1e-9 {
		t.Fatalf("lon=%v", snap.LonDeg)
	}
	if !snap.HasTime || snap.Hour != 14 || snap.Minute != 30 || snap.Second != 15 {
		t.Fatalf("time %02d:%02d:%02d has_time=%v want 14:30:15", snap.Hour, snap.Minute, snap.Second, snap.HasTime)
	}
	if !snap.HasDate || snap.Year != 2024 || snap.Month != 7 || snap.Day != 4 {
		t.Fatalf("date %04d-%02d-%02d has_date=%v want 2024-07-04", snap.Year, snap.Month, snap.Day, snap.HasDate)
	}
	if snap.FixMode == nil || *snap.FixMode != 3 {
		t.Fatalf("fix_mode=%v", snap.FixMode)
	}
	if snap.LastFixUTC == "" {
		t.Fatalf("expected last_fix_utc")
	}
}

func TestGPSDState_NoFixWithoutMode(t *testing.T) {
	st := newGPSDState("127.0.0.1:2947")
	now := time.Date(2024, 7, 4, 14, 30, 15, 0, time.UTC)

	// Mode 1 means no fix even with time present.
	line := `{"class":"TPV","mode":1,"time":"2024-07-04T14:30:15.000Z"}`
	updated, err := st.applyLine(now, line)
	if err != nil {
		t.Fatalf("applyLine err: %v", err)
	}
	if !updated {
		t.Fatalf("expected time update")
	}
	snap := st.snapshot()
	if snap.Valid {
		t.Fatalf("mode 1 must not validate the fix")
	}
	if !snap.HasTime || snap.Hour != 14 {
		t.Fatalf("expected time despite mode 1, got %+v", snap)
	}
}

func TestGPSDState_SKYUpdatesSatsAndHDOP(t *testing.T) {
	st := newGPSDState("127.0.0.1:2947")
	line := `{"class":"SKY","hdop":0.9,"satellites":[{"used":true},{"used":false},{"used":true}]}`
	updated, err := st.applyLine(time.Now().UTC(), line)
	if err != nil {
		t.Fatalf("applyLine err: %v", err)
	}
	if !updated {
		t.Fatalf("expected updated")
	}
	snap := st.snapshot()
	if snap.Satellites == nil || *snap.Satellites != 2 {
		t.Fatalf("satellites=%v", snap.Satellites)
	}
	if snap.HDOP == nil || math.Abs(*snap.HDOP-0.9) > 1e-9 {
		t.Fatalf("hdop=%v", snap.HDOP)
	}
}

func TestGPSDState_IgnoresOtherClasses(t *testing.T) {
	st := newGPSDState("127.0.0.1:2947")
	updated, err := st.applyLine(time.Now().UTC(), `{"class":"VERSION","release":"3.25"}`)
	if err != nil {
		t.Fatalf("applyLine err: %v", err)
	}
	if updated {
		t.Fatalf("expected no update for VERSION")
	}
}
