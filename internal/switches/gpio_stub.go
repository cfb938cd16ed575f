//go:build !linux || (!arm && !arm64)

package switches

import "fmt"

// Stub implementation for non-Linux and/or non-ARM platforms.
func openLines(pins []int, pullUp bool) (inputLines, error) {
	return nil, fmt.Errorf("switches: gpio unsupported on this platform")
}
