package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the webcamd daemon.
//
// The config file is the primary configuration surface; flags exist for small
// overrides and for environments where a file is awkward. Defaults and
// validation are centralized here so the rest of the code can assume a
// well-formed config.
type Config struct {
	// Orientation sensor input configuration
	Sensor SensorConfig `yaml:"sensor"`

	// Camera selection and vendor preference files
	Camera CameraConfig `yaml:"camera"`

	// Zoom UI behavior
	Zoom ZoomFileConfig `yaml:"zoom"`

	// IPC configuration
	IPC IPCConfig `yaml:"ipc"`

	// State WebSocket server configuration
	StateWS StateWSConfig `yaml:"state_ws"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type SensorConfig struct {
	// Devices lists the Linux input event devices carrying orientation
	// samples (EV_ABS/ABS_MISC events, value in degrees, -1 unknown).
	Devices []string `yaml:"devices"`

	// SensorOrientation is the clockwise mount correction of the camera
	// sensor in degrees [0,360).
	SensorOrientation int `yaml:"sensor_orientation"`

	// LensFacing is "front" or "back"; front-facing lenses mirror the
	// sensor orientation correction.
	LensFacing string `yaml:"lens_facing"`
}

type CameraConfig struct {
	// DefaultID is the camera active at startup, in identifier form
	// (e.g. "0-null" or "0-2").
	DefaultID string `yaml:"default_id"`

	// DefaultZoomMin/Max apply when the vendor preferences carry no zoom
	// range override for the active camera.
	DefaultZoomMin float64 `yaml:"default_zoom_min"`
	DefaultZoomMax float64 `yaml:"default_zoom_max"`

	// Vendor preference JSON files; all optional.
	PhysicalMappingFile string `yaml:"physical_mapping_file,omitempty"`
	ZoomRatioRangesFile string `yaml:"zoom_ratio_ranges_file,omitempty"`
	IgnoredCamerasFile  string `yaml:"ignored_cameras_file,omitempty"`
}

type ZoomFileConfig struct {
	AutoRevertMS              int `yaml:"auto_revert_ms"`
	AutoRevertAccessibilityMS int `yaml:"auto_revert_accessibility_ms"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type StateWSConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults and current CLI defaults.
func DefaultConfig() Config {
	return Config{
		Sensor: SensorConfig{
			Devices:           []string{"/dev/input/event4"},
			SensorOrientation: defaultSensorOrientation,
			LensFacing:        "back",
		},
		Camera: CameraConfig{
			DefaultID:      "0-null",
			DefaultZoomMin: defaultZoomRatioMin,
			DefaultZoomMax: defaultZoomRatioMax,
		},
		Zoom: ZoomFileConfig{
			AutoRevertMS:              defaultToggleAutoRevertMS,
			AutoRevertAccessibilityMS: defaultToggleAutoRevertAccessibilityMS,
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/webcamd.sock",
		},
		StateWS: StateWSConfig{
			ListenAddr: "127.0.0.1:8787",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// Flags should pass pointers; each override is only applied if the pointer is
// non-nil. Keeping the override mechanism separate makes it easy to evolve
// flags without proliferating conditionals all over the code.
type FlagOverrides struct {
	SensorDevice *string

	CameraID *string

	IPCSocketPath     *string
	StateWSListenAddr *string

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.SensorDevice != nil {
		cfg.Sensor.Devices = []string{*o.SensorDevice}
	}
	if o.CameraID != nil {
		cfg.Camera.DefaultID = *o.CameraID
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.StateWSListenAddr != nil {
		cfg.StateWS.ListenAddr = *o.StateWSListenAddr
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Sensor
	if len(c.Sensor.Devices) == 0 {
		return errors.New("sensor.devices must not be empty")
	}
	for i, dev := range c.Sensor.Devices {
		if dev == "" {
			return fmt.Errorf("sensor.devices[%d] is empty", i)
		}
	}
	if c.Sensor.SensorOrientation < 0 || c.Sensor.SensorOrientation >= 360 {
		return errors.New("sensor.sensor_orientation must be in [0, 360)")
	}
	if c.Sensor.LensFacing != "front" && c.Sensor.LensFacing != "back" {
		return errors.New(`sensor.lens_facing must be "front" or "back"`)
	}

	// Camera
	if _, ok := ParseCameraID(c.Camera.DefaultID); !ok {
		return fmt.Errorf("camera.default_id %q is not a valid camera identifier", c.Camera.DefaultID)
	}
	if c.Camera.DefaultZoomMin <= 0 {
		return errors.New("camera.default_zoom_min must be > 0")
	}
	if c.Camera.DefaultZoomMax <= c.Camera.DefaultZoomMin {
		return errors.New("camera.default_zoom_max must be > camera.default_zoom_min")
	}

	// Zoom
	if c.Zoom.AutoRevertMS <= 0 {
		return errors.New("zoom.auto_revert_ms must be > 0")
	}
	if c.Zoom.AutoRevertAccessibilityMS < c.Zoom.AutoRevertMS {
		return errors.New("zoom.auto_revert_accessibility_ms must be >= zoom.auto_revert_ms")
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// State WS
	if c.StateWS.ListenAddr == "" {
		return errors.New("state_ws.listen_addr must not be empty")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// LensFacing converts the config string into the internal lens facing value.
// Call only after Validate.
func (c *Config) LensFacing() int {
	if c.Sensor.LensFacing == "front" {
		return lensFacingFront
	}
	return lensFacingBack
}

// ToZoomConfig converts the zoom file config into the controller config.
func (c *Config) ToZoomConfig() ZoomConfig {
	return ZoomConfig{
		AutoRevert:              time.Duration(c.Zoom.AutoRevertMS) * time.Millisecond,
		AutoRevertAccessibility: time.Duration(c.Zoom.AutoRevertAccessibilityMS) * time.Millisecond,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
// This is handy for config values like the vendor preference files.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
