package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. RTA_SERVER_PORT.
const envPrefix = "RTA"

// SetDefaults registers all defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("sandbox.root", "sandbox")

	v.SetDefault("worker.kind", "http")
	v.SetDefault("worker.endpoint", "http://localhost:8089/invoke")
	v.SetDefault("worker.command", "")
	v.SetDefault("worker.timeout", "120s")
}

// Load resolves the configuration.
//
// Precedence, lowest to highest: defaults, config file (configPath, or a
// discovered rta.yaml when empty), environment, overrides.
func Load(ctx context.Context, configPath string, overrides ...map[string]any) (*Config, error) {
	_ = ctx

	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("rta")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/rta")
		if err := v.ReadInConfig(); err != nil {
			// A missing discovered config is fine; defaults apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set has the highest precedence in viper, which is exactly what
	// flag-derived overrides need.
	for _, o := range overrides {
		for key, value := range o {
			v.Set(key, value)
		}
	}

	var cfg Config
	decode := func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
	if err := v.Unmarshal(&cfg, viper.DecoderConfigOption(decode)); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
