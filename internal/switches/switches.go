package switches

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

var openLinesFn = openLines

type Config struct {
	Enable bool

	// SelectorPins are BCM GPIO numbers for the timezone selector bits,
	// least significant first. The 8-zone table needs three.
	SelectorPins []int

	// AutoPin, ModePin and DSTPin are single-function toggles: geographic
	// resolution, 12-hour display, and the DST override. Zero leaves the
	// function on its fallback.
	AutoPin int
	ModePin int
	DSTPin  int

	// ActiveHigh reads asserted as line value 1. The default wiring is
	// switches to ground with internal pull-ups, i.e. active low.
	ActiveHigh bool

	// PollInterval controls how often the lines are sampled.
	PollInterval time.Duration

	// Fallbacks stand in for functions with no pin and whenever the GPIO
	// hardware is unavailable.
	FallbackSelector   int
	FallbackAuto       bool
	FallbackTwelveHour bool
	FallbackDST        bool
}

type Snapshot struct {
	Enabled   bool `json:"enabled"`
	Available bool `json:"available"`

	Selector   uint `json:"selector"`
	AutoMode   bool `json:"auto_mode"`
	TwelveHour bool `json:"twelve_hour"`
	DSTSwitch  bool `json:"dst_switch"`

	LastUpdateAt time.Time `json:"last_update_utc,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

// inputLines is the platform seam: one value per requested pin, in request
// order.
type inputLines interface {
	Values() ([]int, error)
	Close() error
}

type Service struct {
	cfg  Config
	pins []int

	selN    int
	autoIdx int
	modeIdx int
	dstIdx  int

	mu   sync.RWMutex
	snap Snapshot

	linesMu sync.Mutex
	lines   inputLines

	wg sync.WaitGroup

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(cfg Config) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.FallbackSelector < 0 {
		cfg.FallbackSelector = 0
	}

	s := &Service{cfg: cfg, stopCh: make(chan struct{}), autoIdx: -1, modeIdx: -1, dstIdx: -1}
	for _, p := range cfg.SelectorPins {
		if p > 0 {
			s.pins = append(s.pins, p)
		}
	}
	s.selN = len(s.pins)
	if cfg.AutoPin > 0 {
		s.autoIdx = len(s.pins)
		s.pins = append(s.pins, cfg.AutoPin)
	}
	if cfg.ModePin > 0 {
		s.modeIdx = len(s.pins)
		s.pins = append(s.pins, cfg.ModePin)
	}
	if cfg.DSTPin > 0 {
		s.dstIdx = len(s.pins)
		s.pins = append(s.pins, cfg.DSTPin)
	}

	s.snap = s.fallbackSnapshot()
	s.snap.Enabled = cfg.Enable
	return s
}

func (s *Service) fallbackSnapshot() Snapshot {
	return Snapshot{
		Enabled:    s.cfg.Enable,
		Selector:   uint(s.cfg.FallbackSelector),
		AutoMode:   s.cfg.FallbackAuto,
		TwelveHour: s.cfg.FallbackTwelveHour,
		DSTSwitch:  s.cfg.FallbackDST,
	}
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	// Ensure the lines are not read concurrently with Close.
	s.wg.Wait()

	s.linesMu.Lock()
	lines := s.lines
	s.lines = nil
	s.linesMu.Unlock()
	if lines != nil {
		_ = lines.Close()
	}
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastError = msg
	s.snap.LastUpdateAt = time.Now().UTC()
}

func (s *Service) setState(update func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.snap)
	s.snap.LastUpdateAt = time.Now().UTC()
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("switches: service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if len(s.pins) == 0 {
		// Nothing wired; the fallbacks stand.
		return nil
	}

	lines, err := openLinesFn(s.pins, !s.cfg.ActiveHigh)
	if err != nil {
		s.setErr(err.Error())
		return err
	}
	s.linesMu.Lock()
	s.lines = lines
	s.linesMu.Unlock()

	s.setState(func(sn *Snapshot) { sn.Available = true })
	log.Printf("switches enabled pins=%v poll=%s", s.pins, s.cfg.PollInterval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx, lines)
	}()

	// Ensure resources are released if the runtime context is canceled.
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return nil
}

func (s *Service) runLoop(ctx context.Context, lines inputLines) {
	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-t.C:
			vals, err := lines.Values()
			if err != nil {
				// Hold the last good values; a flapping line must not
				// flap the clock.
				s.setErr(fmt.Sprintf("switches read failed: %v", err))
				continue
			}
			next := s.decode(vals)
			s.setState(func(sn *Snapshot) {
				sn.Selector = next.Selector
				sn.AutoMode = next.AutoMode
				sn.TwelveHour = next.TwelveHour
				sn.DSTSwitch = next.DSTSwitch
				sn.LastError = ""
			})
		}
	}
}

// decode maps raw line values onto switch functions. Functions without a
// pin hold their fallback.
func (s *Service) decode(vals []int) Snapshot {
	snap := s.fallbackSnapshot()
	if len(vals) != len(s.pins) {
		return snap
	}
	if s.selN > 0 {
		sel := uint(0)
		for i := 0; i < s.selN; i++ {
			if s.asserted(vals[i]) {
				sel |= 1 << uint(i)
			}
		}
		snap.Selector = sel
	}
	if s.autoIdx >= 0 {
		snap.AutoMode = s.asserted(vals[s.autoIdx])
	}
	if s.modeIdx >= 0 {
		snap.TwelveHour = s.asserted(vals[s.modeIdx])
	}
	if s.dstIdx >= 0 {
		snap.DSTSwitch = s.asserted(vals[s.dstIdx])
	}
	return snap
}

// asserted applies the configured polarity: pull-up wiring grounds a
// thrown switch, so value 0 means asserted unless ActiveHigh is set.
func (s *Service) asserted(raw int) bool {
	if s.cfg.ActiveHigh {
		return raw != 0
	}
	return raw == 0
}
