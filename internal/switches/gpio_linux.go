//go:build linux && (arm || arm64)

package switches

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// openLines requests the given BCM GPIOs as inputs using the Linux GPIO
// character device (libgpiod). pullUp enables the internal pull-up for the
// usual switch-to-ground wiring.
func openLines(pins []int, pullUp bool) (inputLines, error) {
	if len(pins) == 0 {
		return nil, fmt.Errorf("switches: no pins configured")
	}

	// On Pi, line names are commonly "GPIO17", etc.

	// Try likely chips first (Pi 5 kernel variants can expose header GPIOs on gpiochip0
	// and sometimes additional chips exist).
	chipCandidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", name))
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		lines, err := requestAll(chip, pins, pullUp)
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpiodLines{chip: chip, lines: lines}, nil
	}

	return nil, fmt.Errorf("switches: gpio lines %v not found (or busy)", pins)
}

// requestAll acquires every pin on one chip; panel switches are expected to
// land on the same header.
func requestAll(chip *gpiocdev.Chip, pins []int, pullUp bool) ([]*gpiocdev.Line, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithConsumer("gpsclock-switches"),
	}
	if pullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	}

	out := make([]*gpiocdev.Line, 0, len(pins))
	for _, pin := range pins {
		offset, err := chip.FindLine(fmt.Sprintf("GPIO%d", pin))
		if err != nil {
			closeAll(out)
			return nil, err
		}
		line, err := chip.RequestLine(offset, opts...)
		if err != nil {
			closeAll(out)
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func closeAll(lines []*gpiocdev.Line) {
	for _, l := range lines {
		_ = l.Close()
	}
}

type gpiodLines struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

func (g *gpiodLines) Values() ([]int, error) {
	if g == nil || len(g.lines) == 0 {
		return nil, fmt.Errorf("switches: gpio driver not initialized")
	}
	out := make([]int, len(g.lines))
	for i, l := range g.lines {
		v, err := l.Value()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (g *gpiodLines) Close() error {
	if g == nil {
		return nil
	}
	closeAll(g.lines)
	g.lines = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return nil
}
