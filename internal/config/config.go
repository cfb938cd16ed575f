package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gpsclock/internal/clock"
)

// Duration is a time.Duration that YAML decodes from strings with units,
// e.g. "250ms", "1s", "1m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*d = 0
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	GPS      GPSConfig      `yaml:"gps"`
	Clock    ClockConfig    `yaml:"clock"`
	Switches SwitchesConfig `yaml:"switches"`
	Display  DisplayConfig  `yaml:"display"`
	Web      WebConfig      `yaml:"web"`
}

type GPSConfig struct {
	Source     string    `yaml:"source"`
	Device     string    `yaml:"device"`
	Baud       int       `yaml:"baud"`
	GPSDAddr   string    `yaml:"gpsd_addr"`
	FixTimeout Duration  `yaml:"fix_timeout"`
	Sim        SimConfig `yaml:"sim"`
}

type SimConfig struct {
	CenterLatDeg float64 `yaml:"center_lat_deg"`
	CenterLonDeg float64 `yaml:"center_lon_deg"`
	WanderNm     float64 `yaml:"wander_nm"`
}

type ClockConfig struct {
	Tick                 Duration     `yaml:"tick"`
	Mode                 string       `yaml:"mode"`
	ManualIndex          int          `yaml:"manual_index"`
	TwelveHour           bool         `yaml:"twelve_hour"`
	DSTSource            string       `yaml:"dst_source"`
	DisplayRefresh       Duration     `yaml:"display_refresh"`
	ZoneRecheck          Duration     `yaml:"zone_recheck"`
	LocationRecheck      Duration     `yaml:"location_recheck"`
	LocationToleranceDeg float64      `yaml:"location_tolerance_deg"`
	Zones                []ZoneConfig `yaml:"zones"`
}

// ZoneConfig declares one timezone when the built-in table is overridden.
type ZoneConfig struct {
	Name           string     `yaml:"name"`
	StdAbbr        string     `yaml:"std_abbr"`
	DSTAbbr        string     `yaml:"dst_abbr"`
	UTCOffsetHours int        `yaml:"utc_offset_hours"`
	ObservesDST    bool       `yaml:"observes_dst"`
	DSTDeltaHours  int        `yaml:"dst_delta_hours"`
	Box            *BoxConfig `yaml:"box"`
}

type BoxConfig struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
}

type SwitchesConfig struct {
	Enable       bool     `yaml:"enable"`
	SelectorPins []int    `yaml:"selector_pins"`
	AutoPin      int      `yaml:"auto_pin"`
	ModePin      int      `yaml:"mode_pin"`
	DSTPin       int      `yaml:"dst_pin"`
	ActiveHigh   bool     `yaml:"active_high"`
	PollInterval Duration `yaml:"poll_interval"`
}

type DisplayConfig struct {
	Enable     bool   `yaml:"enable"`
	Bus        string `yaml:"bus"`
	Addr       uint16 `yaml:"addr"`
	Brightness int    `yaml:"brightness"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

// Table builds the timezone table: the declarative override when present,
// the built-in list otherwise. Validation is the core table constructor's.
func (c ClockConfig) Table() (*clock.Table, error) {
	if len(c.Zones) == 0 {
		return clock.Builtin(), nil
	}
	zones := make([]clock.Zone, 0, len(c.Zones))
	for _, z := range c.Zones {
		zone := clock.Zone{
			Name:           z.Name,
			StdAbbr:        z.StdAbbr,
			DSTAbbr:        z.DSTAbbr,
			UTCOffsetHours: z.UTCOffsetHours,
			ObservesDST:    z.ObservesDST,
			DSTDeltaHours:  z.DSTDeltaHours,
		}
		if z.Box != nil {
			zone.Box = &clock.Box{
				MinLat: z.Box.MinLat,
				MaxLat: z.Box.MaxLat,
				MinLon: z.Box.MinLon,
				MaxLon: z.Box.MaxLon,
			}
		}
		zones = append(zones, zone)
	}
	t, err := clock.NewTable(zones)
	if err != nil {
		return nil, fmt.Errorf("clock.zones: %w", err)
	}
	return t, nil
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.GPS.Source == "" {
		cfg.GPS.Source = "nmea"
	}
	switch cfg.GPS.Source {
	case "nmea", "gpsd", "sim":
	default:
		return Config{}, fmt.Errorf("gps.source must be one of nmea, gpsd, sim")
	}
	if cfg.GPS.Baud <= 0 {
		cfg.GPS.Baud = 9600
	}
	if cfg.GPS.GPSDAddr == "" {
		cfg.GPS.GPSDAddr = "127.0.0.1:2947"
	}
	if cfg.GPS.FixTimeout <= 0 {
		cfg.GPS.FixTimeout = Duration(10 * time.Second)
	}

	if cfg.Clock.Tick <= 0 {
		cfg.Clock.Tick = Duration(50 * time.Millisecond)
	}
	if cfg.Clock.Mode == "" {
		cfg.Clock.Mode = "manual"
	}
	if cfg.Clock.Mode != "manual" && cfg.Clock.Mode != "auto" {
		return Config{}, fmt.Errorf("clock.mode must be manual or auto")
	}
	if cfg.Clock.DSTSource == "" {
		cfg.Clock.DSTSource = "rule"
	}
	if cfg.Clock.DSTSource != "rule" && cfg.Clock.DSTSource != "switch" {
		return Config{}, fmt.Errorf("clock.dst_source must be rule or switch")
	}
	if cfg.Clock.DisplayRefresh <= 0 {
		cfg.Clock.DisplayRefresh = Duration(250 * time.Millisecond)
	}
	if cfg.Clock.ZoneRecheck <= 0 {
		cfg.Clock.ZoneRecheck = Duration(1 * time.Second)
	}
	if cfg.Clock.LocationRecheck <= 0 {
		cfg.Clock.LocationRecheck = Duration(1 * time.Minute)
	}
	if cfg.Clock.LocationToleranceDeg <= 0 {
		cfg.Clock.LocationToleranceDeg = 0.1
	}

	table, err := cfg.Clock.Table()
	if err != nil {
		return Config{}, err
	}
	if cfg.Clock.ManualIndex < 0 || cfg.Clock.ManualIndex >= table.Len() {
		return Config{}, fmt.Errorf("clock.manual_index %d out of range 0..%d", cfg.Clock.ManualIndex, table.Len()-1)
	}

	for _, p := range cfg.Switches.SelectorPins {
		if p <= 0 {
			return Config{}, fmt.Errorf("switches.selector_pins entries must be positive BCM numbers")
		}
	}
	if cfg.Switches.AutoPin < 0 || cfg.Switches.ModePin < 0 || cfg.Switches.DSTPin < 0 {
		return Config{}, fmt.Errorf("switches pins must be positive BCM numbers (0 disables)")
	}
	if cfg.Switches.PollInterval <= 0 {
		cfg.Switches.PollInterval = Duration(50 * time.Millisecond)
	}

	if cfg.Display.Bus == "" {
		cfg.Display.Bus = "/dev/i2c-1"
	}
	if cfg.Display.Addr == 0 {
		cfg.Display.Addr = 0x70
	}
	if cfg.Display.Brightness == 0 {
		cfg.Display.Brightness = 8
	}
	if cfg.Display.Brightness < 0 || cfg.Display.Brightness > 15 {
		return Config{}, fmt.Errorf("display.brightness must be in 0..15")
	}

	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	return cfg, nil
}
