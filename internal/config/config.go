// Package config binds the demo runner's CLI flags, environment variables
// and scene YAML file into one Config, using spf13/viper the way the
// teacher's cmd/recast CLI binds its own build settings through cobra
// flags and a YAML file — except here viper also owns the strict-decode
// gate on localPathReplanningInterval, rejecting anything but a numeric
// scalar before the value ever reaches the simulation.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the demo runner's resolved configuration: where a CLI flag,
// environment variable and scene file all name the same setting, the flag
// wins, then the environment variable, then the file — viper's own
// precedence order.
type Config struct {
	ScenePath      string  `mapstructure:"scene"`
	Ticks          int     `mapstructure:"ticks"`
	DT             float32 `mapstructure:"dt"`
	DebugAvoidance bool    `mapstructure:"debugAvoidance"`
}

// Load builds a Config from flags (already parsed by cobra), environment
// variables prefixed CROWDSTEER_, and, if present, the scene file's own
// top-level "ticks"/"dt"/"debugAvoidance" keys.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CROWDSTEER")
	v.AutomaticEnv()

	v.SetDefault("ticks", 600)
	v.SetDefault("dt", float32(1.0/30.0))
	v.SetDefault("debugAvoidance", false)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: binding flags: %w", err)
		}
	}

	scenePath := v.GetString("scene")
	if scenePath == "" {
		return nil, fmt.Errorf("config: no scene file given (--scene or CROWDSTEER_SCENE)")
	}

	v.SetConfigFile(scenePath)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading scene file %q: %w", scenePath, err)
	}

	if err := validateReplanningIntervals(v); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.ScenePath = scenePath
	return &cfg, nil
}

// validateReplanningIntervals resolves Open Question 1: a scene's
// localPathReplanningInterval must decode as a number (int or float), any
// other YAML type (string, bool, mapping, sequence) is a configuration
// error caught here rather than silently coerced or ignored downstream.
func validateReplanningIntervals(v *viper.Viper) error {
	agents, ok := v.Get("agents").([]interface{})
	if !ok {
		return nil
	}
	for i, raw := range agents {
		agent, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		params, ok := agent["parameters"].(map[string]interface{})
		if !ok {
			continue
		}
		val, present := params["localpathreplanninginterval"]
		if !present {
			continue
		}
		switch val.(type) {
		case int, int32, int64, float32, float64:
		default:
			return fmt.Errorf("agents[%d].parameters.localPathReplanningInterval must be numeric, got %T", i, val)
		}
	}
	return nil
}
