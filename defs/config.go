package defs

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	UnitMg   = "mg"
	UnitMmol = "mmol"

	// DefaultSmoothingWindow is the moving average width, in samples, used
	// by excursion detection when the config leaves it unset.
	DefaultSmoothingWindow = 9

	// DefaultEventDuration is the minimum minutes out of range before a
	// run of samples counts as an episode.
	DefaultEventDuration = 15

	DefaultDBName = "glyco"
)

type Config struct {
	Mongo      MongoConfig      `yaml:"mongo"`
	Nightscout NightscoutConfig `yaml:"nightscout"`
	Discord    DiscordConfig    `yaml:"discord"`
	HTTP       HTTPConfig       `yaml:"http"`
	Calc       CalcConfig       `yaml:"calc"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Indices    []string         `yaml:"indices"`

	Logger *zap.Logger `yaml:"-"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbName"`
}

type NightscoutConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type DiscordConfig struct {
	Token string `yaml:"token"`
	Guild string `yaml:"guild"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// AlertsConfig holds the limits the analyzer checks computed indices
// against. A zero limit disables its check.
type AlertsConfig struct {
	LBGIMax      float64 `yaml:"lbgiMax"`
	HBGIMax      float64 `yaml:"hbgiMax"`
	TimeBelowMax float64 `yaml:"timeBelowMax"`
}

// CalcConfig carries the run parameters shared by every index. It is
// validated once at index construction and read-only afterwards.
type CalcConfig struct {
	// Unit is the glucose unit of the series, UnitMg or UnitMmol.
	Unit string `yaml:"unit"`
	// Interval is the minutes between consecutive samples.
	Interval float64 `yaml:"interval"`
	// SmoothingWindow is the moving average width, in samples, applied
	// before excursion detection.
	SmoothingWindow int `yaml:"smoothingWindow"`
	// EventDuration is the minimum minutes out of range before a run of
	// samples counts as an episode. WithDefaults reads zero as unset, so
	// a literal zero only reaches the indices on configs that skip it.
	EventDuration int `yaml:"eventDuration"`
	// HypoThreshold and HyperThreshold, in the series unit, bound the
	// target range for event scans. Zero leaves the scan unconfigured.
	HypoThreshold  int `yaml:"hypoThreshold"`
	HyperThreshold int `yaml:"hyperThreshold"`
}

// WithDefaults fills unset optional fields. Zero marks a field unset,
// so an explicit zero SmoothingWindow or EventDuration comes back as
// the package default; validate directly to keep a zero EventDuration.
func (c CalcConfig) WithDefaults() CalcConfig {
	if c.SmoothingWindow == 0 {
		c.SmoothingWindow = DefaultSmoothingWindow
	}
	if c.EventDuration == 0 {
		c.EventDuration = DefaultEventDuration
	}
	return c
}

func (c *CalcConfig) Validate() error {
	if c.Unit != UnitMg && c.Unit != UnitMmol {
		return fmt.Errorf("unit must be %q or %q, got %q", UnitMg, UnitMmol, c.Unit)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing window must be at least 1, got %d", c.SmoothingWindow)
	}
	if c.EventDuration < 0 {
		return fmt.Errorf("event duration must not be negative, got %d", c.EventDuration)
	}
	if c.HypoThreshold < 0 {
		return fmt.Errorf("hypo threshold must not be negative, got %d", c.HypoThreshold)
	}
	if c.HyperThreshold < 0 {
		return fmt.Errorf("hyper threshold must not be negative, got %d", c.HyperThreshold)
	}
	return nil
}
