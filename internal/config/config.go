package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/landingsim/internal/core/dynamics"
	"github.com/zeusync/landingsim/internal/core/observability/log"
	"github.com/zeusync/landingsim/internal/core/platform"
	"github.com/zeusync/landingsim/internal/core/systems/physics"
)

// Scenario describes one simulation run. Lengths are in meters, times in
// seconds and angles in radians unless a field says otherwise.
type Scenario struct {
	Drone    DroneConfig    `json:"drone" yaml:"drone"`
	Platform PlatformConfig `json:"platform" yaml:"platform"`
	Run      RunConfig      `json:"run" yaml:"run"`
	Stream   StreamConfig   `json:"stream" yaml:"stream"`
	LogLevel string         `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// DroneConfig configures the batched drone engine.
type DroneConfig struct {
	NumEnvs  int         `json:"num_envs" yaml:"num_envs"`
	States   [][]float64 `json:"states" yaml:"states"`
	Tau      float64     `json:"tau" yaml:"tau"`
	TimeStep float64     `json:"time_step" yaml:"time_step"`
	Workers  int         `json:"workers,omitempty" yaml:"workers,omitempty"`
	ExactLag bool        `json:"exact_lag,omitempty" yaml:"exact_lag,omitempty"`
}

// PlatformConfig configures the platform motion generator.
type PlatformConfig struct {
	EdgeLength    float64          `json:"edge_length" yaml:"edge_length"`
	Tick          float64          `json:"tick" yaml:"tick"`
	Desynchronize bool             `json:"desynchronize,omitempty" yaml:"desynchronize,omitempty"`
	Platforms     []PlatformMotion `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

// PlatformMotion configures one platform. Omitted oscillators stay still.
type PlatformMotion struct {
	Name     string           `json:"name" yaml:"name"`
	Position [3]float64       `json:"position" yaml:"position"`
	Heading  float64          `json:"heading,omitempty" yaml:"heading,omitempty"`
	Surge    OscillatorConfig `json:"surge,omitempty" yaml:"surge,omitempty"`
	Sway     OscillatorConfig `json:"sway,omitempty" yaml:"sway,omitempty"`
	Heave    OscillatorConfig `json:"heave,omitempty" yaml:"heave,omitempty"`
	Yaw      OscillatorConfig `json:"yaw,omitempty" yaml:"yaw,omitempty"`
	Pitch    OscillatorConfig `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Roll     OscillatorConfig `json:"roll,omitempty" yaml:"roll,omitempty"`
}

// OscillatorConfig is a sinusoid given by its period in seconds. A zero
// period keeps the axis at Amplitude*sin(Phase).
type OscillatorConfig struct {
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Period    float64 `json:"period" yaml:"period"`
	Phase     float64 `json:"phase,omitempty" yaml:"phase,omitempty"`
}

// RunConfig configures the headless driver.
type RunConfig struct {
	Frames   int           `json:"frames" yaml:"frames"`
	Interval time.Duration `json:"interval" yaml:"interval"`
	Command  [3]float64    `json:"command" yaml:"command"`
}

// UnmarshalJSON accepts interval either as a duration string ("100ms"),
// like the YAML form, or as integer nanoseconds.
func (r *RunConfig) UnmarshalJSON(data []byte) error {
	aux := struct {
		Frames   int             `json:"frames"`
		Interval json.RawMessage `json:"interval"`
		Command  [3]float64      `json:"command"`
	}{Frames: r.Frames, Command: r.Command}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&aux); err != nil {
		return err
	}
	r.Frames, r.Command = aux.Frames, aux.Command

	raw := bytes.TrimSpace(aux.Interval)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		d, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("run: interval: %w", err)
		}
		r.Interval = d
	default:
		var ns int64
		if err := json.Unmarshal(raw, &ns); err != nil {
			return fmt.Errorf("run: interval must be a duration string or nanoseconds: %w", err)
		}
		r.Interval = time.Duration(ns)
	}
	return nil
}

// StreamConfig configures the websocket frame stream. Empty Listen disables it.
type StreamConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`
}

// Default mirrors the original landing animation: one drone hovering 3 m
// above a 5 m deck, pulled down by gravity for 100 frames of 100 ms.
func Default() *Scenario {
	return &Scenario{
		Drone: DroneConfig{
			NumEnvs:  1,
			States:   [][]float64{{0, 0, 3, 0, 0, 0, 0, 0, 0}},
			Tau:      1,
			TimeStep: 0.1,
			Workers:  1,
		},
		Platform: PlatformConfig{
			EdgeLength: platform.DefaultEdgeLength,
			Tick:       platform.DefaultTick,
		},
		Run: RunConfig{
			Frames:   100,
			Interval: 100 * time.Millisecond,
			Command:  [3]float64{0, 0, -9.81},
		},
		LogLevel: "info",
	}
}

// Load reads a scenario from path. Files ending in .json are decoded as
// JSON, anything else as YAML.
func Load(path string) (*Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario file: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(file)
	}
	return LoadYAML(file)
}

// LoadYAML decodes a scenario over the defaults and validates it.
func LoadYAML(r io.Reader) (*Scenario, error) {
	s := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadJSON decodes a scenario over the defaults and validates it.
func LoadJSON(r io.Reader) (*Scenario, error) {
	s := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks every section against the component constructors' rules.
func (s *Scenario) Validate() error {
	if err := s.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("drone: %w", err)
	}
	if err := s.GeneratorConfig().Validate(); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	for i, p := range s.Platform.Platforms {
		for axis, o := range map[string]OscillatorConfig{
			"surge": p.Surge, "sway": p.Sway, "heave": p.Heave,
			"yaw": p.Yaw, "pitch": p.Pitch, "roll": p.Roll,
		} {
			if o.Period < 0 {
				return fmt.Errorf("platform %d %s: %w: period must not be negative", i, axis, platform.ErrInvalidConfig)
			}
		}
	}
	if s.Drone.Workers < 0 {
		return fmt.Errorf("drone: %w: workers must not be negative", dynamics.ErrInvalidConfig)
	}
	if s.Run.Frames < 0 {
		return fmt.Errorf("run: frames must not be negative, got %d", s.Run.Frames)
	}
	if s.Run.Interval < 0 {
		return fmt.Errorf("run: interval must not be negative, got %s", s.Run.Interval)
	}
	if !physics.FromArray(s.Run.Command).IsFinite() {
		return fmt.Errorf("run: command must be finite")
	}
	if s.LogLevel != "" {
		if _, ok := log.ParseLevel(s.LogLevel); !ok {
			return fmt.Errorf("unknown log level %q", s.LogLevel)
		}
	}
	return nil
}

// Level returns the configured log level.
func (s *Scenario) Level() log.Level {
	level, _ := log.ParseLevel(s.LogLevel)
	return level
}

// EngineConfig converts the drone section.
func (s *Scenario) EngineConfig() dynamics.Config {
	return dynamics.Config{
		NumEnvs:  s.Drone.NumEnvs,
		Initial:  s.Drone.States,
		Tau:      s.Drone.Tau,
		TimeStep: s.Drone.TimeStep,
	}
}

// EngineOptions converts the drone section's tuning knobs.
func (s *Scenario) EngineOptions(logger log.Log) []dynamics.Option {
	opts := []dynamics.Option{dynamics.WithLogger(logger), dynamics.WithWorkers(s.Drone.Workers)}
	if s.Drone.ExactLag {
		opts = append(opts, dynamics.WithExactLag())
	}
	return opts
}

// GeneratorConfig converts the platform section.
func (s *Scenario) GeneratorConfig() platform.Config {
	cfg := platform.Config{
		EdgeLength: s.Platform.EdgeLength,
		Tick:       s.Platform.Tick,
	}
	for _, p := range s.Platform.Platforms {
		cfg.Platforms = append(cfg.Platforms, p.motion())
	}
	return cfg
}

// GeneratorOptions converts the platform section's tuning knobs.
func (s *Scenario) GeneratorOptions(logger log.Log) []platform.Option {
	opts := []platform.Option{platform.WithLogger(logger)}
	if s.Platform.Desynchronize {
		opts = append(opts, platform.WithDesynchronizedPhases())
	}
	return opts
}

// CommandVector returns the run's constant acceleration command.
func (s *Scenario) CommandVector() physics.Vec3 {
	return physics.FromArray(s.Run.Command)
}

func (p PlatformMotion) motion() platform.Motion {
	return platform.Motion{
		Name:     p.Name,
		Position: physics.FromArray(p.Position),
		Heading:  p.Heading,
		Surge:    p.Surge.oscillator(),
		Sway:     p.Sway.oscillator(),
		Heave:    p.Heave.oscillator(),
		Yaw:      p.Yaw.oscillator(),
		Pitch:    p.Pitch.oscillator(),
		Roll:     p.Roll.oscillator(),
	}
}

func (o OscillatorConfig) oscillator() platform.Oscillator {
	return platform.Periodic(o.Amplitude, o.Period, o.Phase)
}
