package web

import (
	"sync/atomic"
	"time"
)

type Status struct {
	startUnixNano int64
	ticksTotal    uint64
	framesTotal   uint64
	lastTickNano  int64

	source     atomic.Value // string
	listen     atomic.Value // string
	clock      atomic.Value // ClockSnapshot
	subsystems atomic.Value // Subsystems
}

func NewStatus() *Status {
	s := &Status{}
	now := time.Now().UTC()
	atomic.StoreInt64(&s.startUnixNano, now.UnixNano())
	atomic.StoreInt64(&s.lastTickNano, 0)
	s.source.Store("")
	s.listen.Store("")
	s.clock.Store(ClockSnapshot{})
	s.subsystems.Store(Subsystems{})
	return s
}

// ClockSnapshot is a small, UI-friendly view of the tick engine.
//
// This is intended for debugging/verification; the display itself is the
// product surface.
type ClockSnapshot struct {
	ZoneName       string `json:"zone_name"`
	ZoneAbbr       string `json:"zone_abbr"`
	UTCOffsetHours int    `json:"utc_offset_hours"`
	DSTActive      bool   `json:"dst_active"`
	AutoMode       bool   `json:"auto_mode"`
	TwelveHour     bool   `json:"twelve_hour"`
	FixValid       bool   `json:"fix_valid"`
	LocalTime      string `json:"local_time,omitempty"`
	DisplayValue   int    `json:"display_value"`
	ColonOn        bool   `json:"colon_on"`
	NoSignal       bool   `json:"no_signal"`
	LastUpdateUTC  string `json:"last_update_utc,omitempty"`
}

// Subsystems carries the collaborator services' own snapshots. Stored as
// one value so atomic.Value sees a single concrete type.
type Subsystems struct {
	GPS      any `json:"gps,omitempty"`
	Switches any `json:"switches,omitempty"`
	Display  any `json:"display,omitempty"`
}

func (s *Status) SetClock(nowUTC time.Time, cs ClockSnapshot) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	cs.LastUpdateUTC = nowUTC.UTC().Format(time.RFC3339Nano)
	s.clock.Store(cs)
}

func (s *Status) SetSubsystems(sub Subsystems) {
	s.subsystems.Store(sub)
}

func (s *Status) SetStatic(source string, listen string) {
	if source != "" {
		s.source.Store(source)
	}
	if listen != "" {
		s.listen.Store(listen)
	}
}

func (s *Status) MarkTick(nowUTC time.Time, frameWritten bool) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	atomic.StoreInt64(&s.lastTickNano, nowUTC.UnixNano())
	atomic.AddUint64(&s.ticksTotal, 1)
	if frameWritten {
		atomic.AddUint64(&s.framesTotal, 1)
	}
}

type StatusSnapshot struct {
	Service     string        `json:"service"`
	NowUTC      string        `json:"now_utc"`
	UptimeSec   int64         `json:"uptime_sec"`
	GPSSource   string        `json:"gps_source"`
	Listen      string        `json:"listen"`
	TicksTotal  uint64        `json:"ticks_total"`
	FramesTotal uint64        `json:"frames_total"`
	LastTickUTC string        `json:"last_tick_utc,omitempty"`
	Clock       ClockSnapshot `json:"clock"`
	Subsystems
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	uptime := nowUTC.Sub(start)
	lastTick := atomic.LoadInt64(&s.lastTickNano)

	snap := StatusSnapshot{
		Service:     "gpsclock",
		NowUTC:      nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:   int64(uptime.Seconds()),
		GPSSource:   s.source.Load().(string),
		Listen:      s.listen.Load().(string),
		TicksTotal:  atomic.LoadUint64(&s.ticksTotal),
		FramesTotal: atomic.LoadUint64(&s.framesTotal),
		Clock:       s.clock.Load().(ClockSnapshot),
		Subsystems:  s.subsystems.Load().(Subsystems),
	}
	if lastTick != 0 {
		snap.LastTickUTC = time.Unix(0, lastTick).UTC().Format(time.RFC3339Nano)
	}
	return snap
}
