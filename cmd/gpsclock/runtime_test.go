package main

import (
	"context"
	"testing"
	"time"

	"gpsclock/internal/clock"
	"gpsclock/internal/config"
	"gpsclock/internal/display"
	"gpsclock/internal/gps"
	"gpsclock/internal/switches"
	"gpsclock/internal/web"
)

func testConfig() config.Config {
	return config.Config{
		GPS: config.GPSConfig{
			Source:     "sim",
			FixTimeout: config.Duration(10 * time.Second),
			Sim:        config.SimConfig{CenterLatDeg: 33.45, CenterLonDeg: -112.07},
		},
		Clock: config.ClockConfig{
			Tick:                 config.Duration(10 * time.Millisecond),
			Mode:                 "auto",
			DSTSource:            "rule",
			DisplayRefresh:       config.Duration(50 * time.Millisecond),
			ZoneRecheck:          config.Duration(20 * time.Millisecond),
			LocationRecheck:      config.Duration(time.Second),
			LocationToleranceDeg: 0.1,
		},
	}
}

func freshGPS(now time.Time) gps.Snapshot {
	return gps.Snapshot{
		Enabled: true,
		Valid:   true,
		HasTime: true,
		HasDate: true,
		Hour:    14, Minute: 30, Second: 15,
		Day: 22, Month: 8, Year: 2026,
		LatDeg:     33.45,
		LonDeg:     -112.07,
		LastFixUTC: now.Add(-500 * time.Millisecond).Format(time.RFC3339Nano),
	}
}

func TestBuildInputs(t *testing.T) {
	now := time.Date(2026, 8, 22, 14, 30, 15, 0, time.UTC)

	cases := []struct {
		name    string
		mutate  func(*gps.Snapshot)
		timeout time.Duration
		want    bool
	}{
		{name: "fresh_fix", mutate: func(*gps.Snapshot) {}, timeout: 10 * time.Second, want: true},
		{name: "receiver_invalid", mutate: func(g *gps.Snapshot) { g.Valid = false }, timeout: 10 * time.Second, want: false},
		{name: "missing_time", mutate: func(g *gps.Snapshot) { g.HasTime = false }, timeout: 10 * time.Second, want: false},
		{name: "missing_date", mutate: func(g *gps.Snapshot) { g.HasDate = false }, timeout: 10 * time.Second, want: false},
		{
			name:    "stale_fix",
			mutate:  func(g *gps.Snapshot) { g.LastFixUTC = now.Add(-30 * time.Second).Format(time.RFC3339Nano) },
			timeout: 10 * time.Second,
			want:    false,
		},
		{
			name:    "no_fix_timestamp",
			mutate:  func(g *gps.Snapshot) { g.LastFixUTC = "" },
			timeout: 10 * time.Second,
			want:    false,
		},
		{
			name:    "zero_timeout_skips_age_check",
			mutate:  func(g *gps.Snapshot) { g.LastFixUTC = now.Add(-30 * time.Second).Format(time.RFC3339Nano) },
			timeout: 0,
			want:    true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := freshGPS(now)
			tc.mutate(&g)
			in := buildInputs(now, g, switches.Snapshot{}, tc.timeout)
			if in.Fix.Valid != tc.want {
				t.Fatalf("fix valid=%v want %v", in.Fix.Valid, tc.want)
			}
			if !tc.want {
				return
			}
			if in.Fix.Hour != 14 || in.Fix.Minute != 30 || in.Fix.Second != 15 {
				t.Fatalf("time %02d:%02d:%02d", in.Fix.Hour, in.Fix.Minute, in.Fix.Second)
			}
			if in.Fix.Day != 22 || in.Fix.Month != 8 || in.Fix.Year != 2026 {
				t.Fatalf("date %d-%d-%d", in.Fix.Year, in.Fix.Month, in.Fix.Day)
			}
			if in.Fix.Lat != 33.45 || in.Fix.Lon != -112.07 {
				t.Fatalf("position %v,%v", in.Fix.Lat, in.Fix.Lon)
			}
		})
	}
}

func TestBuildInputs_SwitchPassthrough(t *testing.T) {
	now := time.Date(2026, 8, 22, 14, 30, 15, 0, time.UTC)
	sw := switches.Snapshot{Selector: 5, AutoMode: true, TwelveHour: true, DSTSwitch: true}

	in := buildInputs(now, gps.Snapshot{}, sw, 10*time.Second)
	if in.Selector != 5 || !in.AutoMode || !in.TwelveHour || !in.DSTSwitch {
		t.Fatalf("switch state not carried: %+v", in)
	}
	if in.Fix.Valid {
		t.Fatalf("fix should be invalid without receiver data")
	}
}

func TestStep_NoFixPaintsNoSignalOnce(t *testing.T) {
	status := web.NewStatus()
	rt := &clockRuntime{
		status:     status,
		eng:        clock.NewEngine(clock.Config{}),
		fixTimeout: 10 * time.Second,
		gpsSvc:     gps.New(gps.Config{}),
		swSvc:      switches.New(switches.Config{}),
		dispSvc:    display.New(display.Config{}),
	}

	now := time.Date(2026, 8, 22, 14, 30, 15, 0, time.UTC)
	rt.step(now)

	snap := status.Snapshot(now)
	if snap.TicksTotal != 1 || snap.FramesTotal != 1 {
		t.Fatalf("ticks=%d frames=%d", snap.TicksTotal, snap.FramesTotal)
	}
	if !snap.Clock.NoSignal || snap.Clock.FixValid {
		t.Fatalf("clock %+v", snap.Clock)
	}
	if snap.Clock.ZoneName != "Eastern" {
		t.Fatalf("zone=%q", snap.Clock.ZoneName)
	}

	// A second tick inside the refresh interval must not repaint.
	rt.step(now.Add(10 * time.Millisecond))
	snap = status.Snapshot(now)
	if snap.TicksTotal != 2 || snap.FramesTotal != 1 {
		t.Fatalf("ticks=%d frames=%d", snap.TicksTotal, snap.FramesTotal)
	}
}

func TestStep_FallbacksDriveInputs(t *testing.T) {
	status := web.NewStatus()
	rt := &clockRuntime{
		status:     status,
		eng:        clock.NewEngine(clock.Config{}),
		fixTimeout: 10 * time.Second,
		gpsSvc:     gps.New(gps.Config{}),
		swSvc: switches.New(switches.Config{
			FallbackSelector:   6,
			FallbackTwelveHour: true,
		}),
		dispSvc: display.New(display.Config{}),
	}

	now := time.Date(2026, 8, 22, 14, 30, 15, 0, time.UTC)
	rt.step(now)

	snap := status.Snapshot(now)
	if snap.Clock.ZoneName != "Hawaii" {
		t.Fatalf("zone=%q want Hawaii", snap.Clock.ZoneName)
	}
	if !snap.Clock.TwelveHour || snap.Clock.AutoMode {
		t.Fatalf("clock %+v", snap.Clock)
	}
}

func TestRuntime_SimFixReachesStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	status := web.NewStatus()
	rt, err := newClockRuntime(ctx, testConfig(), status)
	if err != nil {
		t.Fatalf("newClockRuntime: %v", err)
	}
	defer rt.Close()

	// The sim source emits its first sentences after about a second.
	deadline := time.Now().Add(5 * time.Second)
	for {
		rt.step(time.Now().UTC())
		snap := status.Snapshot(time.Now().UTC())
		if snap.Clock.FixValid {
			if snap.Clock.ZoneName != "Arizona" || snap.Clock.ZoneAbbr != "MST" {
				t.Fatalf("zone=%q abbr=%q", snap.Clock.ZoneName, snap.Clock.ZoneAbbr)
			}
			if snap.Clock.DSTActive {
				t.Fatalf("Arizona never observes DST")
			}
			if snap.Clock.NoSignal {
				t.Fatalf("no-signal frame with a valid fix")
			}
			if snap.Clock.LocalTime == "" {
				t.Fatalf("missing local time")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no fix from sim source; gps=%+v", rt.gpsSvc.Snapshot())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestNewClockRuntime_BadZoneTable(t *testing.T) {
	cfg := testConfig()
	cfg.Clock.Zones = []config.ZoneConfig{
		{Name: "A", StdAbbr: "A", UTCOffsetHours: 0},
		{Name: "B", StdAbbr: "B", UTCOffsetHours: 1},
	}

	if _, err := newClockRuntime(context.Background(), cfg, web.NewStatus()); err == nil {
		t.Fatalf("expected zone table error")
	}
}

func TestNewClockRuntime_NilStatus(t *testing.T) {
	if _, err := newClockRuntime(context.Background(), testConfig(), nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPushFrame_ErrorLoggedOnEdge(t *testing.T) {
	// Enabled but never started: every write fails.
	rt := &clockRuntime{dispSvc: display.New(display.Config{Enable: true})}

	rt.pushFrame(clock.Frame{Value: 123, ColonOn: true})
	if !rt.dispErrLogged {
		t.Fatalf("write failure not flagged")
	}
	rt.pushFrame(clock.Frame{Value: 124, ColonOn: true})
	if !rt.dispErrLogged {
		t.Fatalf("flag should hold while writes keep failing")
	}

	// A succeeding write clears the edge so the next failure logs again.
	rt.dispSvc = display.New(display.Config{})
	rt.pushFrame(clock.Frame{Value: 125, ColonOn: false})
	if rt.dispErrLogged {
		t.Fatalf("flag should clear after a good write")
	}
}
