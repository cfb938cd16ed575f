package gps

import (
	"context"
	"fmt"
	"math"
	"time"
)

// simSource synthesizes RMC/GGA from the wall clock so the queue and parser
// run exactly as they do against real hardware.
type simSource struct {
	lat      float64
	lon      float64
	wanderNm float64
}

func (sim simSource) run(ctx context.Context, svc *Service, out chan<- string) {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			now = now.UTC()
			lat, lon := sim.position(now)
			svc.enqueue(out, simRMC(now, lat, lon))
			svc.enqueue(out, simGGA(now, lat, lon))
		}
	}
}

// position wanders a small deterministic figure-eight around the configured
// center so geographic resolution sees plausible movement. wanderNm <= 0
// parks the receiver.
func (sim simSource) position(now time.Time) (float64, float64) {
	if sim.wanderNm <= 0 {
		return sim.lat, sim.lon
	}
	const period = 120 * time.Second
	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())
	w := 2 * math.Pi * phase

	// ~60 NM per degree latitude; longitude scaled by cos(lat).
	radiusDeg := sim.wanderNm / 60.0
	lat := sim.lat + radiusDeg*0.5*math.Sin(2*w)
	lon := sim.lon + (radiusDeg*math.Cos(w))/math.Cos(sim.lat*math.Pi/180.0)
	return lat, lon
}

func simRMC(now time.Time, lat, lon float64) string {
	payload := fmt.Sprintf("GPRMC,%02d%02d%02d,A,%s,%s,000.0,000.0,%02d%02d%02d,,",
		now.Hour(), now.Minute(), now.Second(),
		formatNMEALat(lat), formatNMEALon(lon),
		now.Day(), int(now.Month()), now.Year()%100)
	return withNMEAChecksum(payload)
}

func simGGA(now time.Time, lat, lon float64) string {
	payload := fmt.Sprintf("GPGGA,%02d%02d%02d,%s,%s,1,08,1.0,30.0,M,0.0,M,,",
		now.Hour(), now.Minute(), now.Second(),
		formatNMEALat(lat), formatNMEALon(lon))
	return withNMEAChecksum(payload)
}

// formatNMEALat renders ddmm.mmmm plus hemisphere, the inverse of
// parseNMEALatLon.
func formatNMEALat(lat float64) string {
	hemi := "N"
	if lat < 0 {
		hemi = "S"
		lat = -lat
	}
	deg := int(lat)
	mins := (lat - float64(deg)) * 60
	if mins > 59.9999 {
		mins = 59.9999
	}
	return fmt.Sprintf("%02d%07.4f,%s", deg, mins, hemi)
}

func formatNMEALon(lon float64) string {
	hemi := "E"
	if lon < 0 {
		hemi = "W"
		lon = -lon
	}
	deg := int(lon)
	mins := (lon - float64(deg)) * 60
	if mins > 59.9999 {
		mins = 59.9999
	}
	return fmt.Sprintf("%03d%07.4f,%s", deg, mins, hemi)
}

func withNMEAChecksum(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}
