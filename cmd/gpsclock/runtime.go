package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"gpsclock/internal/clock"
	"gpsclock/internal/config"
	"gpsclock/internal/display"
	"gpsclock/internal/gps"
	"gpsclock/internal/switches"
	"gpsclock/internal/web"
)

// clockRuntime wires the tick engine to its collaborators: GPS in, frames
// out, switch state sampled in between. All clock work runs on the Run
// goroutine; the services only publish snapshots.
type clockRuntime struct {
	cfg    config.Config
	status *web.Status

	eng        *clock.Engine
	fixTimeout time.Duration

	gpsSvc  *gps.Service
	swSvc   *switches.Service
	dispSvc *display.Service

	ticker *time.Ticker

	dispErrLogged bool
}

// newClockRuntime builds the engine and brings up the hardware services.
// Bring-up is best-effort: a receiver unplugged at boot or a dead display
// bus is logged and reported on /api/status, not fatal.
func newClockRuntime(ctx context.Context, cfg config.Config, status *web.Status) (*clockRuntime, error) {
	if status == nil {
		return nil, fmt.Errorf("status is nil")
	}

	table, err := cfg.Clock.Table()
	if err != nil {
		return nil, err
	}

	r := &clockRuntime{
		cfg:    cfg,
		status: status,
		eng: clock.NewEngine(clock.Config{
			Table:                table,
			DSTFromSwitch:        cfg.Clock.DSTSource == "switch",
			DisplayRefresh:       time.Duration(cfg.Clock.DisplayRefresh),
			ZoneRecheck:          time.Duration(cfg.Clock.ZoneRecheck),
			LocationRecheck:      time.Duration(cfg.Clock.LocationRecheck),
			LocationToleranceDeg: cfg.Clock.LocationToleranceDeg,
		}),
		fixTimeout: time.Duration(cfg.GPS.FixTimeout),
		ticker:     time.NewTicker(time.Duration(cfg.Clock.Tick)),
	}

	r.gpsSvc = gps.New(gps.Config{
		Enable:      true,
		Source:      cfg.GPS.Source,
		GPSDAddr:    cfg.GPS.GPSDAddr,
		Device:      cfg.GPS.Device,
		Baud:        cfg.GPS.Baud,
		SimLatDeg:   cfg.GPS.Sim.CenterLatDeg,
		SimLonDeg:   cfg.GPS.Sim.CenterLonDeg,
		SimWanderNm: cfg.GPS.Sim.WanderNm,
	})
	if err := r.gpsSvc.Start(ctx); err != nil {
		log.Printf("gps init failed: %v", err)
	}

	// The panel service is constructed even when disabled so every tick
	// reads the configured fallbacks through the same snapshot path.
	r.swSvc = switches.New(switches.Config{
		Enable:             cfg.Switches.Enable,
		SelectorPins:       cfg.Switches.SelectorPins,
		AutoPin:            cfg.Switches.AutoPin,
		ModePin:            cfg.Switches.ModePin,
		DSTPin:             cfg.Switches.DSTPin,
		ActiveHigh:         cfg.Switches.ActiveHigh,
		PollInterval:       time.Duration(cfg.Switches.PollInterval),
		FallbackSelector:   cfg.Clock.ManualIndex,
		FallbackAuto:       cfg.Clock.Mode == "auto",
		FallbackTwelveHour: cfg.Clock.TwelveHour,
	})
	if err := r.swSvc.Start(ctx); err != nil {
		log.Printf("switches init failed: %v", err)
	}

	r.dispSvc = display.New(display.Config{
		Enable:     cfg.Display.Enable,
		Bus:        cfg.Display.Bus,
		Addr:       cfg.Display.Addr,
		Brightness: cfg.Display.Brightness,
	})
	if err := r.dispSvc.Start(ctx); err != nil {
		log.Printf("display init failed: %v", err)
	}

	return r, nil
}

// Run drives the scheduler until the context ends.
func (r *clockRuntime) Run(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-r.ticker.C:
			r.step(now.UTC())
		}
	}
}

// step runs one scheduler tick end to end: sample the collaborators, advance
// the engine, push the frame, publish status.
func (r *clockRuntime) step(nowUTC time.Time) {
	gpsSnap := r.gpsSvc.Snapshot()
	swSnap := r.swSvc.Snapshot()

	in := buildInputs(nowUTC, gpsSnap, swSnap, r.fixTimeout)
	res := r.eng.Tick(nowUTC, in)

	for _, ev := range res.Events {
		log.Printf("%s", ev.Message)
	}

	r.dispSvc.SetTwelveHour(in.TwelveHour)
	if res.FrameUpdated {
		r.pushFrame(res.Frame)
	}

	r.publish(nowUTC, gpsSnap, in, res)
	r.status.MarkTick(nowUTC, res.FrameUpdated)
}

// buildInputs maps subsystem snapshots onto one tick's engine inputs. The
// fix is presented as valid only while the receiver reports a valid fix with
// both time and date, and the fix is younger than fixTimeout.
func buildInputs(nowUTC time.Time, g gps.Snapshot, sw switches.Snapshot, fixTimeout time.Duration) clock.Inputs {
	in := clock.Inputs{
		Selector:   sw.Selector,
		AutoMode:   sw.AutoMode,
		TwelveHour: sw.TwelveHour,
		DSTSwitch:  sw.DSTSwitch,
	}
	if !g.Valid || !g.HasTime || !g.HasDate {
		return in
	}
	if fixTimeout > 0 {
		age, ok := g.FixAge(nowUTC)
		if !ok || age > fixTimeout {
			return in
		}
	}
	in.Fix = clock.Fix{
		Valid:  true,
		Hour:   g.Hour,
		Minute: g.Minute,
		Second: g.Second,
		Day:    g.Day,
		Month:  g.Month,
		Year:   g.Year,
		Lat:    g.LatDeg,
		Lon:    g.LonDeg,
	}
	return in
}

// pushFrame writes one frame to the display. Write errors land in the
// display snapshot; the log only carries the edges so a dead bus does not
// flood it at the display refresh rate.
func (r *clockRuntime) pushFrame(f clock.Frame) {
	var err error
	if f.NoSignal {
		err = r.dispSvc.ShowNoSignal()
	} else {
		err = r.dispSvc.Show(f.Value, f.ColonOn)
	}
	if err != nil {
		if !r.dispErrLogged {
			log.Printf("display write failed: %v", err)
			r.dispErrLogged = true
		}
		return
	}
	r.dispErrLogged = false
}

func (r *clockRuntime) publish(nowUTC time.Time, gpsSnap gps.Snapshot, in clock.Inputs, res clock.Result) {
	st := r.eng.State()
	z := r.eng.Zone()

	cs := web.ClockSnapshot{
		ZoneName:       z.Name,
		ZoneAbbr:       z.Abbr(st.DSTActive),
		UTCOffsetHours: z.UTCOffsetHours,
		DSTActive:      st.DSTActive,
		AutoMode:       in.AutoMode,
		TwelveHour:     in.TwelveHour,
		FixValid:       st.FixValid,
		DisplayValue:   res.Frame.Value,
		ColonOn:        res.Frame.ColonOn,
		NoSignal:       res.Frame.NoSignal,
	}
	if st.FixValid {
		cs.LocalTime = fmt.Sprintf("%02d:%02d:%02d", st.LocalHour, st.LocalMinute, st.LocalSecond)
	}
	r.status.SetClock(nowUTC, cs)
	r.status.SetSubsystems(web.Subsystems{
		GPS:      gpsSnap,
		Switches: r.swSvc.Snapshot(),
		Display:  r.dispSvc.Snapshot(),
	})
}

func (r *clockRuntime) Close() {
	if r == nil {
		return
	}
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if r.gpsSvc != nil {
		r.gpsSvc.Close()
	}
	if r.swSvc != nil {
		r.swSvc.Close()
	}
	if r.dispSvc != nil {
		// Close blanks the panel on the way out.
		r.dispSvc.Close()
	}
}
