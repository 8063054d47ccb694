// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/opd-ai/go-skijet/pkg/locomotion"
	"github.com/opd-ai/go-skijet/pkg/thruster"
	"github.com/opd-ai/go-skijet/pkg/validation"
)

// EnvPrefix is prepended to every environment override, e.g.
// SKIJET_LOCOMOTION_MAXSPEED=40.
const EnvPrefix = "SKIJET"

// Config is the complete tuning for a simulation run.
type Config struct {
	Thruster   thruster.Config   `json:"thruster" mapstructure:"thruster"`
	Locomotion locomotion.Config `json:"locomotion" mapstructure:"locomotion"`
	Simulation SimulationConfig  `json:"simulation" mapstructure:"simulation"`
	Character  CharacterConfig   `json:"character" mapstructure:"character"`
	Telemetry  TelemetryConfig   `json:"telemetry" mapstructure:"telemetry"`
	Trace      TraceConfig       `json:"trace" mapstructure:"trace"`
}

// SimulationConfig controls the fixed-step clock.
type SimulationConfig struct {
	TickRate     float64 `json:"tickRate" mapstructure:"tickRate"`         // Hz
	MaxFrameTime float64 `json:"maxFrameTime" mapstructure:"maxFrameTime"` // seconds
	BaseSpeed    float64 `json:"baseSpeed" mapstructure:"baseSpeed"`
}

// CharacterConfig holds the host controller values the integrator reads.
type CharacterConfig struct {
	JumpSpeed         float64 `json:"jumpSpeed" mapstructure:"jumpSpeed"`
	GravityMultiplier float64 `json:"gravityMultiplier" mapstructure:"gravityMultiplier"`
}

// TelemetryConfig toggles OpenTelemetry instruments.
type TelemetryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// TraceConfig selects where recorded runs are stored.
type TraceConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Driver  string `json:"driver" mapstructure:"driver"` // sqlite or postgres
	DSN     string `json:"dsn" mapstructure:"dsn"`
}

// Trace drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultConfig returns the canonical tuning.
func DefaultConfig() *Config {
	return &Config{
		Thruster:   thruster.DefaultConfig(),
		Locomotion: locomotion.DefaultConfig(),
		Simulation: SimulationConfig{
			TickRate:     60,
			MaxFrameTime: 0.1,
			BaseSpeed:    10,
		},
		Character: CharacterConfig{
			JumpSpeed:         10,
			GravityMultiplier: 2,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
		Trace: TraceConfig{
			Driver: DriverSQLite,
			DSN:    "skijet-trace.db",
		},
	}
}

// BasicConfig returns DefaultConfig with the simpler locomotion and
// thruster variant.
func BasicConfig() *Config {
	cfg := DefaultConfig()
	cfg.Locomotion = BasicLocomotion()
	cfg.Thruster = BasicThruster()
	return cfg
}

// BasicLocomotion returns the uncapped locomotion tuning.
func BasicLocomotion() locomotion.Config {
	return locomotion.BasicConfig()
}

// BasicThruster returns the constant-force thruster tuning.
func BasicThruster() thruster.Config {
	return thruster.BasicConfig()
}

// Preset returns the named base configuration: "extended" (or "") or "basic".
func Preset(name string) (*Config, error) {
	switch strings.ToLower(name) {
	case "", "extended":
		return DefaultConfig(), nil
	case "basic":
		return BasicConfig(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q", name)
	}
}

// Load reads path over DefaultConfig. See LoadFrom.
func Load(path string) (*Config, error) {
	return LoadFrom(path, DefaultConfig())
}

// LoadFrom layers, lowest first: base, the JSON file at path (skipped when
// path is empty), and SKIJET_* environment variables. The result is
// validated before it is returned.
func LoadFrom(path string, base *Config) (*Config, error) {
	if base == nil {
		base = DefaultConfig()
	}

	v := viper.New()
	if err := setDefaults(v, base); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every field of base as a viper default so that
// environment overrides apply to keys the file never mentions.
func setDefaults(v *viper.Viper, base *Config) error {
	data, err := json.Marshal(base)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	walkDefaults(v, "", tree)
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			walkDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Save writes cfg as indented JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// JSON returns cfg as compact JSON, as stored with recorded runs.
func (c *Config) JSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// Parse decodes a config previously produced by JSON or Save.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate reports every out-of-range field at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	t := c.Thruster
	add(validation.NonNegative("thruster.forceMagnitude", t.ForceMagnitude))
	add(validation.NonNegative("thruster.maxVerticalSpeed", t.MaxVerticalSpeed))
	add(validation.InRange("thruster.taperFloor", t.TaperFloor, 0, 1))
	add(validation.Positive("thruster.maxFuel", t.MaxFuel))
	add(validation.NonNegative("thruster.consumeRate", t.ConsumeRate))
	add(validation.NonNegative("thruster.refillRate", t.RefillRate))
	add(validation.NonNegative("thruster.refillDelay", t.RefillDelay))

	l := c.Locomotion
	add(validation.NonNegative("locomotion.minSpeedToSki", l.MinSpeedToSki))
	add(validation.NonNegative("locomotion.maxSpeed", l.MaxSpeed))
	add(validation.NonNegative("locomotion.gravity", l.Gravity))
	add(validation.Finite("locomotion.worldGravity", l.WorldGravity))
	add(validation.NonNegative("locomotion.groundFriction", l.GroundFriction))
	add(validation.InRange("locomotion.skiFriction", l.SkiFriction, 0, 1))
	add(validation.NonNegative("locomotion.flatSkiFrictionScale", l.FlatSkiFrictionScale))
	add(validation.NonNegative("locomotion.groundControl", l.GroundControl))
	add(validation.NonNegative("locomotion.skiControl", l.SkiControl))
	add(validation.NonNegative("locomotion.airControl", l.AirControl))
	add(validation.NonNegative("locomotion.airControlTakeoffBoost", l.AirControlTakeoffBoost))
	add(validation.NonNegative("locomotion.airControlSustained", l.AirControlSustained))
	add(validation.InRange("locomotion.highSpeedControlFloor", l.HighSpeedControlFloor, 0, 1))
	add(validation.NonNegative("locomotion.groundStickSpeed", l.GroundStickSpeed))
	add(validation.NonNegative("locomotion.uphillMomentumRetention", l.UphillMomentumRetention))
	add(validation.NonNegative("locomotion.downhillSpeedGain", l.DownhillSpeedGain))
	add(validation.InRange("locomotion.slopeThreshold", l.SlopeThreshold, 0, 90))
	add(validation.InRange("locomotion.minSlopeAngleForBoost", l.MinSlopeAngleForBoost, 0, 90))
	add(validation.NonNegative("locomotion.slopeRange", l.SlopeRange))
	add(validation.NonNegative("locomotion.turningFriction", l.TurningFriction))
	add(validation.NonNegative("locomotion.turnRange", l.TurnRange))
	add(validation.NonNegative("locomotion.turnBlendRate", l.TurnBlendRate))
	add(validation.InRange("locomotion.brakeThreshold", l.BrakeThreshold, 0, 1))
	add(validation.InRange("locomotion.inputDeadzone", l.InputDeadzone, 0, 1))
	add(validation.NonNegative("locomotion.walkSpeedCapScale", l.WalkSpeedCapScale))

	s := c.Simulation
	add(validation.Positive("simulation.tickRate", s.TickRate))
	add(validation.Positive("simulation.maxFrameTime", s.MaxFrameTime))
	add(validation.NonNegative("simulation.baseSpeed", s.BaseSpeed))

	add(validation.NonNegative("character.jumpSpeed", c.Character.JumpSpeed))
	add(validation.NonNegative("character.gravityMultiplier", c.Character.GravityMultiplier))

	if c.Trace.Enabled {
		add(validation.OneOf("trace.driver", c.Trace.Driver, DriverSQLite, DriverPostgres))
		add(validation.NotEmpty("trace.dsn", c.Trace.DSN))
	}

	return errors.Join(errs...)
}
