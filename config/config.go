// Package config reads the YAML configuration of a conversion run.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/untillpro/goutils/logger"
	"gopkg.in/yaml.v2"

	"github.com/godeepar/geoxchange/convert"
	"github.com/godeepar/geoxchange/layer"
	"github.com/godeepar/geoxchange/mesh"
	"github.com/godeepar/geoxchange/raster"
	"github.com/godeepar/geoxchange/transform"
)

var ErrInvalid = errors.New("invalid configuration")

type Mesh struct {
	FanThreshold         int     `yaml:"fan_threshold"`
	ConstrainedThreshold int     `yaml:"constrained_threshold"`
	Height               float64 `yaml:"height"`
}

type Raster struct {
	LookbackFactor int `yaml:"lookback_factor"`
	// Sigmas are pointers so an explicit 0 disables smoothing.
	SigmaElevation  *float64 `yaml:"sigma_elevation"`
	SigmaTexture    *float64 `yaml:"sigma_texture"`
	ProgressRows    int      `yaml:"progress_rows"`
	ElevationSource string   `yaml:"elevation_source"`
	ElevationBand   int      `yaml:"elevation_band"`
	// Dir holds <name>.xyz grids elevation sources are read from.
	Dir string `yaml:"dir"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Serve configures the HTTP service.
type Serve struct {
	Addr         string `yaml:"addr"`
	RequestLog   string `yaml:"request_log"`
	FlushSeconds int    `yaml:"flush_seconds"`
}

// Config is one conversion run. Keys absent from the file keep the values
// of Default.
type Config struct {
	Source   transform.CRS   `yaml:"source_crs"`
	Target   transform.CRS   `yaml:"target_crs"`
	Frame    transform.Frame `yaml:"frame"`
	Units    string          `yaml:"units"`
	Curves   *bool           `yaml:"curves"`
	StageDir string          `yaml:"stage_dir"`
	Mesh     Mesh            `yaml:"mesh"`
	Raster   Raster          `yaml:"raster"`
	Log      Log             `yaml:"log"`
	Serve    Serve           `yaml:"serve"`
}

func Default() *Config {
	m := mesh.DefaultOptions()
	r := raster.DefaultOptions()
	curves := true
	return &Config{
		Units:  transform.Meters,
		Curves: &curves,
		Mesh: Mesh{
			FanThreshold:         m.FanThreshold,
			ConstrainedThreshold: m.ConstrainedThreshold,
		},
		Raster: Raster{
			LookbackFactor: r.LookbackFactor,
			SigmaElevation: &r.SigmaElevation,
			SigmaTexture:   &r.SigmaTexture,
			ProgressRows:   r.ProgressRows,
		},
		Log:   Log{Level: "info"},
		Serve: Serve{Addr: ":8000", RequestLog: "./apilog", FlushSeconds: 600},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[Load] in pkg [config] encountered: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("[Parse] in pkg [config] encountered: %w: %v", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("[Validate] in pkg [config] encountered: %w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate ...
func (c *Config) Validate() error {
	if c.Mesh.FanThreshold <= 0 || c.Mesh.ConstrainedThreshold <= 0 {
		return invalid("mesh thresholds must be positive")
	}
	if c.Raster.LookbackFactor <= 0 {
		return invalid("raster lookback_factor must be positive")
	}
	if (c.Raster.SigmaElevation != nil && *c.Raster.SigmaElevation < 0) || (c.Raster.SigmaTexture != nil && *c.Raster.SigmaTexture < 0) {
		return invalid("raster sigmas must not be negative")
	}
	if c.Raster.ElevationBand < 0 {
		return invalid("raster elevation_band is 1-based")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel maps the configured level name onto the logger level.
func (c *Config) LogLevel() (logger.TLogLevel, error) {
	switch strings.ToLower(c.Log.Level) {
	case "none":
		return logger.LogLevelNone, nil
	case "error":
		return logger.LogLevelError, nil
	case "warning", "warn":
		return logger.LogLevelWarning, nil
	case "", "info":
		return logger.LogLevelInfo, nil
	case "verbose", "debug":
		return logger.LogLevelVerbose, nil
	case "trace":
		return logger.LogLevelTrace, nil
	}
	return logger.LogLevelInfo, invalid("unknown log level %q", c.Log.Level)
}

// Context builds the conversion context of the run.
func (c *Config) Context(reprojector transform.Reprojector) *convert.ConversionContext {
	ctx := convert.NewContext(transform.Pipeline{
		Source:      c.Source,
		Target:      c.Target,
		Frame:       c.Frame,
		Reprojector: reprojector,
	}, c.Units)
	ctx.ElevationSource = c.Raster.ElevationSource
	return ctx
}

// Assembler builds a layer assembler tuned by the configuration.
func (c *Config) Assembler(reprojector transform.Reprojector) *layer.Assembler {
	a := layer.New(c.Context(reprojector))
	a.Mesh.FanThreshold = c.Mesh.FanThreshold
	a.Mesh.ConstrainedThreshold = c.Mesh.ConstrainedThreshold
	a.Mesh.Height = c.Mesh.Height
	a.Raster.LookbackFactor = c.Raster.LookbackFactor
	if c.Raster.SigmaElevation != nil {
		a.Raster.SigmaElevation = *c.Raster.SigmaElevation
	}
	if c.Raster.SigmaTexture != nil {
		a.Raster.SigmaTexture = *c.Raster.SigmaTexture
	}
	a.Raster.ProgressRows = c.Raster.ProgressRows
	a.Raster.ElevationBand = c.Raster.ElevationBand
	if c.Raster.Dir != "" {
		a.Elevation = raster.Dir{Path: c.Raster.Dir, CRS: c.Source}
	}
	if c.Curves != nil {
		a.Curves = *c.Curves
	}
	a.StageDir = c.StageDir
	return a
}
