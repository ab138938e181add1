// Package config is the file-based configuration surface (spec §6
// "Configuration surface consumed by the core"): a plain struct with a
// DefaultConfig constructor, the way teacher's utils.Config/DefaultConfig
// works, with optional YAML overrides for values an operator wants to
// change without a rebuild.
//
// Grounded on teacher's utils/config.go (struct + DefaultConfig()
// function, not a flag/env parser) for the struct shape, and on
// gazed-vu's direct gopkg.in/yaml.v3 dependency (the pack's only repo that
// reaches for a YAML library) for how to load overrides from a file.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lguibr/voxelrealm/physics"
	"github.com/lguibr/voxelrealm/script"
)

// Config holds every tunable the core consumes (spec §6): tick rate, AFK
// handling, default capacity, error mode, and the physics defaults.
type Config struct {
	TickRateHz          int           `yaml:"tick_rate_hz"`
	AFKTimeoutSeconds    int           `yaml:"afk_timeout_seconds"`
	AFKCheckIntervalTick int           `yaml:"afk_check_interval_ticks"`
	EmptyInstanceTimeout time.Duration `yaml:"empty_instance_timeout"`
	DefaultMaxPlayers    int           `yaml:"default_max_players"`
	ErrorMode            string        `yaml:"error_mode"` // "continue" | "halt"

	Gravity           float64 `yaml:"gravity"`
	WalkSpeed         float64 `yaml:"walk_speed"`
	JumpHeight        float64 `yaml:"jump_height"`
	CharacterRadius   float64 `yaml:"character_radius"`
	CharacterHeight   float64 `yaml:"character_height"`
	PlatformStickDist float64 `yaml:"platform_stick_distance"`

	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig matches the defaults spec §6 names verbatim.
func DefaultConfig() Config {
	return Config{
		TickRateHz:           60,
		AFKTimeoutSeconds:    300,
		AFKCheckIntervalTick: 60,
		EmptyInstanceTimeout: 5 * time.Minute,
		DefaultMaxPlayers:    8,
		ErrorMode:            "continue",

		Gravity:           30,
		WalkSpeed:         16,
		JumpHeight:        7.2,
		CharacterRadius:   0.5,
		CharacterHeight:   2.0,
		PlatformStickDist: 0.2,

		ListenAddr: ":8080",
	}
}

// Load reads path as YAML over DefaultConfig, returning the defaults
// unchanged if path is empty or does not exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TickPeriod is the Δt duration TickRateHz implies.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(float64(time.Second) / float64(c.TickRateHz))
}

// ScriptErrorMode maps the string field to script.ErrorMode (spec §7's
// Continue/Halt policy).
func (c Config) ScriptErrorMode() script.ErrorMode {
	if c.ErrorMode == "halt" {
		return script.ErrorModeHalt
	}
	return script.ErrorModeContinue
}

// PhysicsConfig maps the flattened YAML fields to physics.Config.
func (c Config) PhysicsConfig() physics.Config {
	return physics.Config{
		Gravity:           c.Gravity,
		JumpBufferWindow:  physics.DefaultConfig().JumpBufferWindow,
		MoveReachEpsilon:  physics.DefaultConfig().MoveReachEpsilon,
		MoveToTimeout:     physics.DefaultConfig().MoveToTimeout,
		PlatformStickDist: c.PlatformStickDist,
	}
}

// AFKTimeout is AFKTimeoutSeconds as a time.Duration.
func (c Config) AFKTimeout() time.Duration {
	return time.Duration(c.AFKTimeoutSeconds) * time.Second
}
