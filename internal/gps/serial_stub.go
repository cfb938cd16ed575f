//go:build !linux

package gps

import (
	"fmt"
	"os"
)

// Direct serial input needs the Linux termios path. On other platforms the
// service records this error; the sim and gpsd sources still work.
func openSerial(path string, baud int) (*os.File, error) {
	return nil, fmt.Errorf("nmea serial %s: unsupported on this platform (set gps.source to sim or gpsd)", path)
}
