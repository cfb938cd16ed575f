package gps

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"
)

const gpsdDefaultAddr = "127.0.0.1:2947"

// dialGPSD connects to gpsd over TCP.
func dialGPSD(ctx context.Context, addr string) (net.Conn, error) {
	if strings.TrimSpace(addr) == "" {
		addr = gpsdDefaultAddr
	}
	d := &net.Dialer{Timeout: 2 * time.Second}
	if ctx == nil {
		return d.Dial("tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

// gpsdWatch enables JSON streaming reports.
func gpsdWatch(conn net.Conn) error {
	// scaled=true yields SI units and degrees.
	_, err := conn.Write([]byte("?WATCH={\"enable\":true,\"json\":true,\"scaled\":true}\n"))
	return err
}

type gpsdMsgBase struct {
	Class string `json:"class"`
}

type gpsdTPV struct {
	Class string `json:"class"`
	Mode  *int   `json:"mode"`

	// Time is RFC3339; gpsd reports UTC.
	Time string `json:"time"`

	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type gpsdSat struct {
	Used bool `json:"used"`
}

type gpsdSKY struct {
	Class      string    `json:"class"`
	HDOP       *float64  `json:"hdop"`
	Satellites []gpsdSat `json:"satellites"`
}

type gpsdState struct {
	addr   string
	device string

	utcHour   int
	utcMinute int
	utcSecond int
	timeOK    bool

	day    int
	month  int
	year   int
	dateOK bool

	latDeg float64
	lonDeg float64
	latOK  bool
	lonOK  bool

	mode     int
	modeOK   bool
	satsUsed int
	satsOK   bool
	hdop     float64
	hdopOK   bool

	lastFix time.Time
	valid   bool

	lastErr string
}

func newGPSDState(addr string) *gpsdState {
	// Keep this user-facing label short; the address is configured separately.
	return &gpsdState{addr: addr, device: "gpsd"}
}

func (s *gpsdState) snapshot() Snapshot {
	out := Snapshot{
		Enabled:  true,
		Valid:    s.valid,
		Device:   s.device,
		Source:   "gpsd",
		GPSDAddr: strings.TrimSpace(s.addr),
	}
	if s.timeOK {
		out.HasTime = true
		out.Hour = s.utcHour
		out.Minute = s.utcMinute
		out.Second = s.utcSecond
	}
	if s.dateOK {
		out.HasDate = true
		out.Day = s.day
		out.Month = s.month
		out.Year = s.year
	}
	if s.modeOK {
		v := s.mode
		out.FixMode = &v
	}
	if s.satsOK {
		v := s.satsUsed
		out.Satellites = &v
	}
	if s.hdopOK {
		v := s.hdop
		out.HDOP = &v
	}
	if !s.lastFix.IsZero() {
		out.LastFixUTC = s.lastFix.UTC().Format(time.RFC3339Nano)
	}
	out.LatDeg = s.latDeg
	out.LonDeg = s.lonDeg
	out.LastError = s.lastErr
	return out
}

func (s *gpsdState) applyLine(nowUTC time.Time, line string) (bool, error) {
	var base gpsdMsgBase
	if err := json.Unmarshal([]byte(line), &base); err != nil {
		return false, fmt.Errorf("gpsd json parse failed: %v", err)
	}

	switch strings.ToUpper(strings.TrimSpace(base.Class)) {
	case "TPV":
		var tpv gpsdTPV
		if err := json.Unmarshal([]byte(line), &tpv); err != nil {
			return false, fmt.Errorf("gpsd tpv parse failed: %v", err)
		}
		return s.applyTPV(nowUTC, tpv), nil
	case "SKY":
		var sky gpsdSKY
		if err := json.Unmarshal([]byte(line), &sky); err != nil {
			return false, fmt.Errorf("gpsd sky parse failed: %v", err)
		}
		return s.applySKY(sky), nil
	default:
		// Ignore other gpsd messages (e.g. VERSION/DEVICES/WATCH).
		return false, nil
	}
}

func (s *gpsdState) applyTPV(nowUTC time.Time, tpv gpsdTPV) bool {
	updated := false

	if tpv.Mode != nil {
		s.mode = *tpv.Mode
		s.modeOK = true
		updated = true
	}

	if strings.TrimSpace(tpv.Time) != "" {
		if t, err := time.Parse(time.RFC3339Nano, tpv.Time); err == nil {
			t = t.UTC()
			s.utcHour, s.utcMinute, s.utcSecond = t.Hour(), t.Minute(), t.Second()
			s.day, s.month, s.year = t.Day(), int(t.Month()), t.Year()
			s.timeOK = true
			s.dateOK = true
			updated = true
		}
	}

	if tpv.Lat != nil {
		s.latDeg = *tpv.Lat
		s.latOK = true
		updated = true
	}
	if tpv.Lon != nil {
		s.lonDeg = *tpv.Lon
		s.lonOK = true
		updated = true
	}

	// Consider valid when mode indicates at least a 2D fix and position and
	// time are both present. lastFix is stamped with receipt time, not the
	// receiver's clock: fix age judges link freshness, and the local clock
	// is only trusted against itself.
	mode := 0
	if s.modeOK {
		mode = s.mode
	}
	if mode >= 2 && s.latOK && s.lonOK && s.timeOK && s.dateOK {
		s.valid = true
		s.lastFix = nowUTC
		updated = true
	}

	return updated
}

func (s *gpsdState) applySKY(sky gpsdSKY) bool {
	updated := false
	if sky.HDOP != nil {
		s.hdop = *sky.HDOP
		s.hdopOK = true
		updated = true
	}
	if len(sky.Satellites) > 0 {
		used := 0
		for _, sat := range sky.Satellites {
			if sat.Used {
				used++
			}
		}
		s.satsUsed = used
		s.satsOK = true
		updated = true
	}
	return updated
}
