package switches

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeLines struct {
	mu     sync.Mutex
	vals   []int
	err    error
	closed bool

	readCh chan struct{}
}

func (f *fakeLines) Values() ([]int, error) {
	f.mu.Lock()
	vals := append([]int(nil), f.vals...)
	err := f.err
	f.mu.Unlock()
	select {
	case f.readCh <- struct{}{}:
	default:
	}
	if err != nil {
		return nil, err
	}
	return vals, nil
}

func (f *fakeLines) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeLines) set(vals ...int) {
	f.mu.Lock()
	f.vals = vals
	f.err = nil
	f.mu.Unlock()
}

func panelConfig() Config {
	return Config{
		Enable:       true,
		SelectorPins: []int{5, 6, 13},
		AutoPin:      19,
		ModePin:      26,
		DSTPin:       21,
		PollInterval: time.Millisecond,
	}
}

func installFake(t *testing.T, fake *fakeLines) {
	t.Helper()
	oldOpen := openLinesFn
	openLinesFn = func(pins []int, pullUp bool) (inputLines, error) { return fake, nil }
	t.Cleanup(func() { openLinesFn = oldOpen })
}

// waitFor polls the snapshot until pred accepts it.
func waitFor(t *testing.T, svc *Service, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := svc.Snapshot()
		if pred(snap) {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("snapshot never matched: %+v", svc.Snapshot())
	return Snapshot{}
}

func TestDecode_ActiveLowPanel(t *testing.T) {
	svc := New(panelConfig())

	// Active low: a grounded line (0) is an asserted switch.
	// Selector bits are LSB first: pins 5 and 13 thrown -> 0b101.
	snap := svc.decode([]int{0, 1, 0, 1, 0, 1})

	if snap.Selector != 5 {
		t.Fatalf("selector=%d want 5", snap.Selector)
	}
	if snap.AutoMode {
		t.Fatalf("auto should be off for raw value 1")
	}
	if !snap.TwelveHour {
		t.Fatalf("twelve-hour should be on for raw value 0")
	}
	if snap.DSTSwitch {
		t.Fatalf("dst should be off for raw value 1")
	}
}

func TestDecode_ActiveHigh(t *testing.T) {
	cfg := panelConfig()
	cfg.ActiveHigh = true
	svc := New(cfg)

	snap := svc.decode([]int{1, 0, 1, 1, 0, 0})
	if snap.Selector != 5 {
		t.Fatalf("selector=%d want 5", snap.Selector)
	}
	if !snap.AutoMode {
		t.Fatalf("auto should be on for raw value 1")
	}
	if snap.TwelveHour || snap.DSTSwitch {
		t.Fatalf("mode/dst should be off, got %+v", snap)
	}
}

func TestDecode_MissingPinsHoldFallback(t *testing.T) {
	cfg := panelConfig()
	cfg.AutoPin = 0
	cfg.DSTPin = 0
	cfg.FallbackAuto = true
	cfg.FallbackDST = true
	svc := New(cfg)

	// Four lines remain: three selector bits plus the mode toggle.
	snap := svc.decode([]int{1, 1, 1, 1})
	if snap.Selector != 0 {
		t.Fatalf("selector=%d want 0", snap.Selector)
	}
	if !snap.AutoMode || !snap.DSTSwitch {
		t.Fatalf("pinless functions should keep fallbacks, got %+v", snap)
	}
	if snap.TwelveHour {
		t.Fatalf("mode pin is wired and released, want false")
	}
}

func TestDecode_LengthMismatchFallsBack(t *testing.T) {
	cfg := panelConfig()
	cfg.FallbackSelector = 7
	svc := New(cfg)

	snap := svc.decode([]int{0, 0})
	if snap.Selector != 7 {
		t.Fatalf("selector=%d want fallback 7", snap.Selector)
	}
}

func TestService_PollsAndPublishes(t *testing.T) {
	fake := &fakeLines{vals: []int{0, 1, 0, 1, 0, 1}, readCh: make(chan struct{}, 8)}
	installFake(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := New(panelConfig())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Close()

	snap := waitFor(t, svc, func(s Snapshot) bool { return s.Available && s.Selector == 5 })
	if !snap.TwelveHour || snap.AutoMode {
		t.Fatalf("unexpected decode: %+v", snap)
	}

	// Throw the auto switch and clear a selector bit.
	fake.set(1, 1, 0, 0, 0, 1)
	snap = waitFor(t, svc, func(s Snapshot) bool { return s.Selector == 4 && s.AutoMode })
	if snap.LastError != "" {
		t.Fatalf("unexpected error: %q", snap.LastError)
	}
}

func TestService_ReadErrorHoldsLastValues(t *testing.T) {
	fake := &fakeLines{vals: []int{0, 0, 0, 0, 0, 0}, readCh: make(chan struct{}, 8)}
	installFake(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := New(panelConfig())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Close()

	waitFor(t, svc, func(s Snapshot) bool { return s.Selector == 7 && s.AutoMode })

	fake.mu.Lock()
	fake.err = fmt.Errorf("line gone")
	fake.mu.Unlock()

	snap := waitFor(t, svc, func(s Snapshot) bool { return s.LastError != "" })
	if snap.Selector != 7 || !snap.AutoMode || !snap.TwelveHour || !snap.DSTSwitch {
		t.Fatalf("read error must hold last good values, got %+v", snap)
	}
}

func TestService_OpenFailureFallsBack(t *testing.T) {
	oldOpen := openLinesFn
	openLinesFn = func(pins []int, pullUp bool) (inputLines, error) {
		return nil, fmt.Errorf("no gpio chip")
	}
	t.Cleanup(func() { openLinesFn = oldOpen })

	cfg := panelConfig()
	cfg.FallbackSelector = 3
	cfg.FallbackTwelveHour = true
	svc := New(cfg)

	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("expected open error")
	}
	defer svc.Close()

	snap := svc.Snapshot()
	if snap.Available {
		t.Fatalf("gpio must not report available")
	}
	if snap.Selector != 3 || !snap.TwelveHour {
		t.Fatalf("fallbacks not applied: %+v", snap)
	}
	if snap.LastError == "" {
		t.Fatalf("expected recorded error")
	}
}

func TestService_DisabledKeepsFallbacks(t *testing.T) {
	cfg := panelConfig()
	cfg.Enable = false
	cfg.FallbackSelector = 2
	cfg.FallbackAuto = true
	svc := New(cfg)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := svc.Snapshot()
	if snap.Enabled {
		t.Fatalf("disabled service must report enabled=false")
	}
	if snap.Selector != 2 || !snap.AutoMode {
		t.Fatalf("fallbacks not applied: %+v", snap)
	}
}

func TestService_CloseReleasesLines(t *testing.T) {
	fake := &fakeLines{vals: []int{0, 0, 0, 0, 0, 0}, readCh: make(chan struct{}, 8)}
	installFake(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := New(panelConfig())
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	<-fake.readCh
	svc.Close()
	svc.Close()

	fake.mu.Lock()
	closed := fake.closed
	fake.mu.Unlock()
	if !closed {
		t.Fatalf("expected lines closed")
	}
}

func TestService_NilReceiver(t *testing.T) {
	var svc *Service
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("expected error from nil service")
	}
	svc.Close()
	if snap := svc.Snapshot(); snap.Enabled {
		t.Fatalf("nil snapshot should be zero")
	}
}
