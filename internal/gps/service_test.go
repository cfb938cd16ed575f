package gps

import (
	"testing"
	"time"
)

func TestService_EnqueueDropsWhenFull(t *testing.T) {
	s := New(Config{})
	out := make(chan string, 2)

	s.enqueue(out, "$one*00")
	s.enqueue(out, "$two*00")
	s.enqueue(out, "$three*00")

	if got := s.dropped.Load(); got != 1 {
		t.Fatalf("dropped=%d want 1", got)
	}
	if len(out) != 2 {
		t.Fatalf("queued=%d want 2", len(out))
	}
	// The oldest sentences survive; the overflow is the one discarded.
	if got := <-out; got != "$one*00" {
		t.Fatalf("first=%q want $one*00", got)
	}
}

func TestService_SnapshotBeforeStart(t *testing.T) {
	s := New(Config{Enable: true, Source: "nmea", Device: "/dev/ttyACM0", Baud: 9600})
	snap := s.Snapshot()
	if !snap.Enabled || snap.Valid {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
	if snap.Source != "nmea" || snap.Device != "/dev/ttyACM0" || snap.Baud != 9600 {
		t.Fatalf("initial snapshot lost config: %+v", snap)
	}
}

func TestService_NilReceiverIsSafe(t *testing.T) {
	var s *Service
	if err := s.Start(nil); err == nil {
		t.Fatalf("expected error from nil service")
	}
	s.Close()
	if snap := s.Snapshot(); snap.Enabled {
		t.Fatalf("expected zero snapshot")
	}
}

func TestSnapshot_FixAge(t *testing.T) {
	now := time.Date(2024, 7, 4, 14, 30, 20, 0, time.UTC)

	var snap Snapshot
	if _, ok := snap.FixAge(now); ok {
		t.Fatalf("expected no age without a fix")
	}

	snap.LastFixUTC = time.Date(2024, 7, 4, 14, 30, 15, 0, time.UTC).Format(time.RFC3339Nano)
	age, ok := snap.FixAge(now)
	if !ok || age != 5*time.Second {
		t.Fatalf("age=%v ok=%v want 5s", age, ok)
	}

	snap.LastFixUTC = "garbage"
	if _, ok := snap.FixAge(now); ok {
		t.Fatalf("expected no age for unparseable timestamp")
	}
}
