package clock

import (
	"fmt"
	"math"
	"time"
)

// State is the clock state threaded through each tick. The engine owns the
// authoritative copy; everyone else sees snapshots.
type State struct {
	// ZoneIndex indexes the table and is always in range.
	ZoneIndex int

	// DSTActive is meaningful only while the indexed zone observes DST and
	// reads false otherwise.
	DSTActive bool

	// Last known receiver position, meaningful once HasPosition is set. It
	// survives fix loss so auto mode can hold the last resolved zone.
	LastLat     float64
	LastLon     float64
	HasPosition bool

	// Local wall-clock time from the most recent composition. FixValid
	// gates whether these fields are current.
	LocalHour   int
	LocalMinute int
	LocalSecond int

	FixValid bool
}

// Config parameterizes the engine. Zero intervals get the defaults below so
// a hand-built engine in tests behaves.
type Config struct {
	Table *Table

	// DSTFromSwitch honors the override switch instead of the calendar
	// rule. Zones that never observe DST ignore the switch.
	DSTFromSwitch bool

	// DisplayRefresh gates composition and formatting. ZoneRecheck gates
	// selector evaluation and DST re-evaluation. LocationRecheck bounds how
	// stale an auto-mode resolution may get with a parked receiver.
	DisplayRefresh  time.Duration
	ZoneRecheck     time.Duration
	LocationRecheck time.Duration

	// LocationToleranceDeg is the per-axis movement that forces an
	// auto-mode re-resolution before LocationRecheck elapses.
	LocationToleranceDeg float64
}

// Fix is the engine's view of the GPS source: one decoded snapshot, read
// once per tick. Time fields are UTC straight from the receiver.
type Fix struct {
	Valid bool

	Hour, Minute, Second int
	Day, Month, Year     int

	Lat, Lon float64
}

// Inputs carries one tick's worth of collaborator reads. Switch states are
// sampled every tick; the engine detects and logs their transitions.
type Inputs struct {
	Fix Fix

	// Selector is the manual timezone selector value.
	Selector uint

	// AutoMode selects geographic resolution instead of the selector.
	AutoMode bool

	// TwelveHour selects the 1..12 display numeral instead of 0..23.
	TwelveHour bool

	// DSTSwitch is the override input state, honored only when the engine
	// is configured for switch-driven DST.
	DSTSwitch bool
}

// EventKind classifies state-transition events.
type EventKind string

const (
	EventTimezone EventKind = "timezone"
	EventDST      EventKind = "dst"
	EventMode     EventKind = "mode"
	EventFix      EventKind = "fix"
)

// Event is a state transition worth a diagnostic log line.
type Event struct {
	Kind    EventKind
	Message string
}

// Result is the outcome of one tick.
type Result struct {
	// Frame is the current display frame. FrameUpdated reports whether this
	// tick recomputed it; unchanged ticks leave the display alone.
	Frame        Frame
	FrameUpdated bool

	Events []Event
}

// Engine runs the resolver, DST rule, compositor and formatter once per
// scheduling tick. It is not safe for concurrent use: exactly one goroutine
// owns it and threads time and inputs through Tick.
type Engine struct {
	cfg   Config
	state State
	frame Frame

	started    bool
	autoMode   bool
	twelveHour bool

	lastZoneEval time.Time
	lastLocEval  time.Time
	lastFrameAt  time.Time

	evalLat, evalLon float64
	locEvaluated     bool
}

// NewEngine builds an engine over cfg, filling interval defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.Table == nil {
		cfg.Table = Builtin()
	}
	if cfg.DisplayRefresh <= 0 {
		cfg.DisplayRefresh = 250 * time.Millisecond
	}
	if cfg.ZoneRecheck <= 0 {
		cfg.ZoneRecheck = time.Second
	}
	if cfg.LocationRecheck <= 0 {
		cfg.LocationRecheck = time.Minute
	}
	if cfg.LocationToleranceDeg <= 0 {
		cfg.LocationToleranceDeg = 0.1
	}
	return &Engine{cfg: cfg, frame: NoSignalFrame()}
}

// State returns a copy of the current clock state.
func (e *Engine) State() State { return e.state }

// Zone returns the currently selected zone.
func (e *Engine) Zone() Zone { return e.cfg.Table.Get(e.state.ZoneIndex) }

// Frame returns the most recently formatted frame.
func (e *Engine) Frame() Frame { return e.frame }

// Tick advances the engine by one pass: remember position, re-resolve the
// zone and DST state on their cadence, then compose and format on the
// display cadence. nowUTC is scheduling time only; displayed time always
// comes from the fix.
func (e *Engine) Tick(nowUTC time.Time, in Inputs) Result {
	var res Result

	// A mode flip is worth a log line and an immediate re-resolution.
	if e.started && in.AutoMode != e.autoMode {
		res.Events = append(res.Events, Event{
			Kind:    EventMode,
			Message: fmt.Sprintf("resolver mode changed auto=%v", in.AutoMode),
		})
		e.lastZoneEval = time.Time{}
		e.locEvaluated = false
	}
	e.autoMode = in.AutoMode

	if e.started && in.TwelveHour != e.twelveHour {
		res.Events = append(res.Events, Event{
			Kind:    EventMode,
			Message: fmt.Sprintf("display mode changed twelve_hour=%v", in.TwelveHour),
		})
	}

	// A validity flip forces the zone pass so DST is current before the
	// repaint below, instead of waiting out the recheck interval.
	if in.Fix.Valid != e.state.FixValid {
		e.lastZoneEval = time.Time{}
	}

	if in.Fix.Valid {
		e.state.LastLat = in.Fix.Lat
		e.state.LastLon = in.Fix.Lon
		e.state.HasPosition = true
	}

	if e.lastZoneEval.IsZero() || nowUTC.Sub(e.lastZoneEval) >= e.cfg.ZoneRecheck {
		e.resolveZone(nowUTC, in, &res)
		e.updateDST(in, &res)
		e.lastZoneEval = nowUTC
	}

	e.compose(nowUTC, in, &res)

	e.started = true
	res.Frame = e.frame
	return res
}

// resolveZone picks the zone index for this pass. Manual mode always
// evaluates the selector; auto mode holds the current zone until the
// receiver moves past the tolerance or the location recheck interval
// elapses.
func (e *Engine) resolveZone(nowUTC time.Time, in Inputs, res *Result) {
	next := e.state.ZoneIndex
	if in.AutoMode {
		if idx, ok := e.autoIndex(nowUTC, in); ok {
			next = idx
		}
	} else {
		next = ResolveManual(e.cfg.Table, in.Selector)
	}
	if next == e.state.ZoneIndex {
		return
	}
	old := e.cfg.Table.Get(e.state.ZoneIndex)
	z := e.cfg.Table.Get(next)
	e.state.ZoneIndex = next
	res.Events = append(res.Events, Event{
		Kind:    EventTimezone,
		Message: fmt.Sprintf("timezone changed old=%s new=%s utc_offset=%+d", old.Name, z.Name, z.UTCOffsetHours),
	})
}

// autoIndex resolves geographically, with its own gating: no fix means no
// basis to resolve (hold), and an unmoved receiver is re-resolved only on
// the location recheck interval.
func (e *Engine) autoIndex(nowUTC time.Time, in Inputs) (int, bool) {
	if !in.Fix.Valid {
		return 0, false
	}
	moved := !e.locEvaluated ||
		math.Abs(in.Fix.Lat-e.evalLat) > e.cfg.LocationToleranceDeg ||
		math.Abs(in.Fix.Lon-e.evalLon) > e.cfg.LocationToleranceDeg
	stale := e.lastLocEval.IsZero() || nowUTC.Sub(e.lastLocEval) >= e.cfg.LocationRecheck
	if !moved && !stale {
		return 0, false
	}
	e.evalLat, e.evalLon = in.Fix.Lat, in.Fix.Lon
	e.locEvaluated = true
	e.lastLocEval = nowUTC
	return ResolveAuto(e.cfg.Table, in.Fix.Lat, in.Fix.Lon), true
}

// updateDST re-evaluates the DST state for the current zone. It runs on the
// zone recheck cadence, which also covers every zone change.
func (e *Engine) updateDST(in Inputs, res *Result) {
	z := e.cfg.Table.Get(e.state.ZoneIndex)
	active := e.state.DSTActive
	switch {
	case !z.ObservesDST:
		active = false
	case e.cfg.DSTFromSwitch:
		active = in.DSTSwitch
	case in.Fix.Valid:
		active = DSTActive(z, in.Fix.Year, in.Fix.Month, in.Fix.Day)
	default:
		// No date to judge by; hold the last decision.
	}
	if active != e.state.DSTActive {
		e.state.DSTActive = active
		res.Events = append(res.Events, Event{
			Kind:    EventDST,
			Message: fmt.Sprintf("dst changed active=%v zone=%s abbr=%s", active, z.Name, z.Abbr(active)),
		})
	}
}

// compose recomputes the display frame when the refresh interval elapses or
// the signal state flips. Without a valid fix the compositor is skipped
// entirely and the no-signal frame is shown.
func (e *Engine) compose(nowUTC time.Time, in Inputs, res *Result) {
	flipped := in.Fix.Valid != e.state.FixValid
	if flipped {
		msg := "fix lost"
		if in.Fix.Valid {
			msg = "fix acquired"
		}
		res.Events = append(res.Events, Event{Kind: EventFix, Message: msg})
	}
	modeFlip := e.started && in.TwelveHour != e.twelveHour
	e.state.FixValid = in.Fix.Valid
	e.twelveHour = in.TwelveHour

	due := !e.started || flipped || modeFlip ||
		e.lastFrameAt.IsZero() || nowUTC.Sub(e.lastFrameAt) >= e.cfg.DisplayRefresh
	if !due {
		return
	}
	e.lastFrameAt = nowUTC
	res.FrameUpdated = true

	if !in.Fix.Valid {
		e.frame = NoSignalFrame()
		return
	}
	z := e.cfg.Table.Get(e.state.ZoneIndex)
	h, m, s := ComposeLocal(z, e.state.DSTActive, in.Fix.Hour, in.Fix.Minute, in.Fix.Second)
	e.state.LocalHour, e.state.LocalMinute, e.state.LocalSecond = h, m, s
	dh := h
	if in.TwelveHour {
		dh = To12Hour(h)
	}
	e.frame = MakeFrame(dh, m, s)
}
