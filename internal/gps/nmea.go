package gps

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type nmeaSentence struct {
	Type string
	// Fields is the comma-split NMEA payload (excluding $ and checksum).
	Fields []string
}

func parseNMEASentence(line string) (nmeaSentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return nmeaSentence{}, fmt.Errorf("nmea: missing '$'")
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return nmeaSentence{}, fmt.Errorf("nmea: missing checksum")
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return nmeaSentence{}, fmt.Errorf("nmea: short checksum")
	}
	ck = ck[:2]
	want, err := hex.DecodeString(ck)
	if err != nil || len(want) != 1 {
		return nmeaSentence{}, fmt.Errorf("nmea: bad checksum")
	}
	got := byte(0)
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	if got != want[0] {
		return nmeaSentence{}, fmt.Errorf("nmea: checksum mismatch")
	}

	parts := strings.Split(payload, ",")
	if len(parts) == 0 {
		return nmeaSentence{}, fmt.Errorf("nmea: empty")
	}
	typeField := parts[0]
	if len(typeField) < 3 {
		return nmeaSentence{}, fmt.Errorf("nmea: short type")
	}
	// Accept GNxxx/GPxxx, etc; normalize to last 3 chars.
	t := typeField
	if len(t) > 3 {
		t = t[len(t)-3:]
	}
	return nmeaSentence{Type: strings.ToUpper(t), Fields: parts}, nil
}

type nmeaState struct {
	device string
	baud   int

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

	fixQuality   int
	fixQualityOK bool
	satellites   int
	satsOK       bool
	hdop         float64
	hdopOK       bool

	lastFix time.Time
	valid   bool

	lastErr string
}

func (s *nmeaState) apply(nowUTC time.Time, sent nmeaSentence) bool {
	switch sent.Type {
	case "RMC":
		return s.applyRMC(nowUTC, sent.Fields)
	case "GGA":
		return s.applyGGA(nowUTC, sent.Fields)
	default:
		return false
	}
}

func (s *nmeaState) snapshot() Snapshot {
	out := Snapshot{
		Enabled: true,
		Valid:   s.valid,
		Source:  "nmea",
		Device:  s.device,
		Baud:    s.baud,
		LatDeg:  s.latDeg,
		LonDeg:  s.lonDeg,
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
	if s.fixQualityOK {
		v := s.fixQuality
		out.FixQuality = &v
	}
	if s.satsOK {
		v := s.satellites
		out.Satellites = &v
	}
	if s.hdopOK {
		v := s.hdop
		out.HDOP = &v
	}
	if !s.lastFix.IsZero() {
		out.LastFixUTC = s.lastFix.UTC().Format(time.RFC3339Nano)
	}
	out.LastError = s.lastErr
	return out
}

// RMC: Recommended Minimum Specific GNSS Data
// Fields (NMEA 0183 v2.3):
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
func (s *nmeaState) applyRMC(nowUTC time.Time, f []string) bool {
	if len(f) < 10 {
		return false
	}
	updated := false

	// Receivers report time of day before they have a position; keep it so
	// the status page can show UTC while acquiring.
	if h, m, sec, ok := parseNMEATime(f[1]); ok {
		s.utcHour, s.utcMinute, s.utcSecond = h, m, sec
		s.timeOK = true
		updated = true
	}
	if d, mo, y, ok := parseNMEADate(f[9]); ok {
		s.day, s.month, s.year = d, mo, y
		s.dateOK = true
		updated = true
	}

	status := strings.TrimSpace(f[2])
	if status != "A" {
		// Void fix: time may still be usable, position is not. Do not
		// update validity.
		return updated
	}

	lat, latOK := parseNMEALatLon(f[3], f[4])
	lon, lonOK := parseNMEALatLon(f[5], f[6])
	if latOK {
		s.latDeg = lat
		s.latOK = true
	}
	if lonOK {
		s.lonDeg = lon
		s.lonOK = true
	}

	// A fix needs position, time and date all present: the clock cannot
	// place a timezone or judge daylight time without them.
	if s.latOK && s.lonOK && s.timeOK && s.dateOK {
		s.lastFix = nowUTC
		s.valid = true
		return true
	}
	return updated
}

// GGA: Global Positioning System Fix Data
// Fields:
//
//	0: talker+type
//	1: time
//	2: latitude
//	3: N/S
//	4: longitude
//	5: E/W
//	6: fix quality (0=invalid)
//	7: number of satellites
//	8: HDOP
func (s *nmeaState) applyGGA(nowUTC time.Time, f []string) bool {
	if len(f) < 9 {
		return false
	}
	fixQStr := strings.TrimSpace(f[6])
	if fixQStr == "" || fixQStr == "0" {
		return false
	}
	updated := false
	if q, err := strconv.Atoi(fixQStr); err == nil {
		s.fixQuality = q
		s.fixQualityOK = true
		updated = true
	}
	if sats, err := strconv.Atoi(strings.TrimSpace(f[7])); err == nil {
		s.satellites = sats
		s.satsOK = true
		updated = true
	}
	if hdop, ok := parseFloat(f[8]); ok {
		s.hdop = hdop
		s.hdopOK = true
		updated = true
	}

	if h, m, sec, ok := parseNMEATime(f[1]); ok {
		s.utcHour, s.utcMinute, s.utcSecond = h, m, sec
		s.timeOK = true
		updated = true
	}

	if lat, ok := parseNMEALatLon(f[2], f[3]); ok {
		s.latDeg = lat
		s.latOK = true
		updated = true
	}
	if lon, ok := parseNMEALatLon(f[4], f[5]); ok {
		s.lonDeg = lon
		s.lonOK = true
		updated = true
	}

	// GGA carries no date, so validity transitions stay with RMC; GGA only
	// refreshes an already-valid fix.
	if s.valid && s.latOK && s.lonOK && s.timeOK && s.dateOK {
		s.lastFix = nowUTC
	}
	return updated
}

// parseNMEATime parses hhmmss or hhmmss.sss. Second 60 is allowed for leap
// seconds.
func parseNMEATime(v string) (hour, minute, second int, ok bool) {
	v = strings.TrimSpace(v)
	if dot := strings.IndexByte(v, '.'); dot != -1 {
		v = v[:dot]
	}
	if len(v) != 6 {
		return 0, 0, 0, false
	}
	h, err1 := strconv.Atoi(v[0:2])
	m, err2 := strconv.Atoi(v[2:4])
	sec, err3 := strconv.Atoi(v[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 60 {
		return 0, 0, 0, false
	}
	return h, m, sec, true
}

// parseNMEADate parses ddmmyy. The century is pinned to 20xx; downstream
// date logic clamps anything the receiver gets wrong.
func parseNMEADate(v string) (day, month, year int, ok bool) {
	v = strings.TrimSpace(v)
	if len(v) != 6 {
		return 0, 0, 0, false
	}
	d, err1 := strconv.Atoi(v[0:2])
	m, err2 := strconv.Atoi(v[2:4])
	y, err3 := strconv.Atoi(v[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	if d < 1 || d > 31 || m < 1 || m > 12 || y < 0 {
		return 0, 0, 0, false
	}
	return d, m, 2000 + y, true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseNMEALatLon parses NMEA lat/lon in ddmm.mmmm or dddmm.mmmm plus hemisphere.
//
// For latitude (N/S): ddmm.mmmm
// For longitude (E/W): dddmm.mmmm
func parseNMEALatLon(v string, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	// Split degrees/minutes at the decimal point by taking the last two digits of the integer part as minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}

	degPart := intPart[:len(intPart)-2]
	minPart := v[len(intPart)-2:]

	deg, err := strconv.Atoi(degPart)
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(minPart, 64)
	if err != nil {
		return 0, false
	}

	dec := float64(deg) + (mins / 60.0)
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
