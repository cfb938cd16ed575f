package display

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

var openDevFn = openDev

type Config struct {
	Enable bool

	// Bus is the I2C character device; Addr the backpack's 7-bit address.
	Bus  string
	Addr uint16

	// Brightness sets the HT16K33 dimming duty, 0 (dimmest) to 15.
	Brightness int
}

type Snapshot struct {
	Enabled   bool `json:"enabled"`
	Available bool `json:"available"`

	Brightness int  `json:"brightness"`
	TwelveHour bool `json:"twelve_hour"`

	Value    int  `json:"value"`
	ColonOn  bool `json:"colon_on"`
	NoSignal bool `json:"no_signal"`

	LastUpdateAt time.Time `json:"last_update_utc,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

// frameDev is the hardware seam: one full-buffer write per frame.
type frameDev interface {
	Write(p []byte) error
	Close() error
}

type Service struct {
	cfg Config

	mu   sync.RWMutex
	snap Snapshot

	// devMu serializes frame writes against Close.
	devMu      sync.Mutex
	dev        frameDev
	last       []byte
	twelveHour bool

	stopOnce sync.Once
}

func New(cfg Config) *Service {
	if cfg.Bus == "" {
		cfg.Bus = "/dev/i2c-1"
	}
	if cfg.Addr == 0 {
		cfg.Addr = 0x70
	}
	if cfg.Brightness < 0 {
		cfg.Brightness = 0
	}
	if cfg.Brightness > 15 {
		cfg.Brightness = 15
	}

	s := &Service{cfg: cfg}
	s.snap = Snapshot{Enabled: cfg.Enable, Brightness: cfg.Brightness}
	return s
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
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
		return fmt.Errorf("display: service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}

	dev, err := openDevFn(s.cfg.Bus, s.cfg.Addr)
	if err != nil {
		s.setErr(err.Error())
		return err
	}
	if err := initSequence(dev, s.cfg.Brightness); err != nil {
		_ = dev.Close()
		s.setErr(err.Error())
		return err
	}

	s.devMu.Lock()
	s.dev = dev
	s.last = blankBuffer()
	s.devMu.Unlock()

	s.setState(func(sn *Snapshot) { sn.Available = true })
	log.Printf("display enabled bus=%s addr=0x%02X brightness=%d", s.cfg.Bus, s.cfg.Addr, s.cfg.Brightness)

	// Ensure the tube goes dark if the runtime context is canceled.
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	return nil
}

// SetTwelveHour selects the leading-zero policy: 12-hour clocks blank a
// zero hour-tens digit, 24-hour clocks keep it.
func (s *Service) SetTwelveHour(on bool) {
	if s == nil {
		return
	}
	s.devMu.Lock()
	changed := s.twelveHour != on
	s.twelveHour = on
	s.devMu.Unlock()
	if changed {
		s.setState(func(sn *Snapshot) { sn.TwelveHour = on })
	}
}

// Show renders an hhmm value with the colon state. Identical frames are
// not rewritten.
func (s *Service) Show(value int, colon bool) error {
	if s == nil || !s.cfg.Enable {
		return nil
	}
	s.devMu.Lock()
	defer s.devMu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("display: not initialized")
	}
	if err := s.write(encodeValue(value, colon, s.twelveHour)); err != nil {
		s.setErr(fmt.Sprintf("display write failed: %v", err))
		return err
	}
	s.setState(func(sn *Snapshot) {
		sn.Value = value
		sn.ColonOn = colon
		sn.NoSignal = false
		sn.LastError = ""
	})
	return nil
}

// ShowNoSignal renders the four-dash pattern used while no valid fix
// exists.
func (s *Service) ShowNoSignal() error {
	if s == nil || !s.cfg.Enable {
		return nil
	}
	s.devMu.Lock()
	defer s.devMu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("display: not initialized")
	}
	if err := s.write(noSignalBuffer()); err != nil {
		s.setErr(fmt.Sprintf("display write failed: %v", err))
		return err
	}
	s.setState(func(sn *Snapshot) {
		sn.Value = 0
		sn.ColonOn = false
		sn.NoSignal = true
		sn.LastError = ""
	})
	return nil
}

// Clear blanks all digits and the colon.
func (s *Service) Clear() error {
	if s == nil || !s.cfg.Enable {
		return nil
	}
	s.devMu.Lock()
	defer s.devMu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("display: not initialized")
	}
	if err := s.write(blankBuffer()); err != nil {
		s.setErr(fmt.Sprintf("display write failed: %v", err))
		return err
	}
	s.setState(func(sn *Snapshot) {
		sn.Value = 0
		sn.ColonOn = false
		sn.NoSignal = false
		sn.LastError = ""
	})
	return nil
}

// write sends buf unless it matches the frame already on the wire.
func (s *Service) write(buf []byte) error {
	if bytes.Equal(buf, s.last) {
		return nil
	}
	if err := s.dev.Write(buf); err != nil {
		return err
	}
	s.last = append(s.last[:0], buf...)
	return nil
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		s.devMu.Lock()
		dev := s.dev
		s.dev = nil
		s.devMu.Unlock()
		if dev != nil {
			// Leave the tube dark.
			_ = dev.Write(blankBuffer())
			_ = dev.Close()
		}
	})
}
