// Package config loads client configuration from file, environment, and
// defaults via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/progalaxyelabs/stonescript-auth-go/domain"
)

// AppName is the configuration namespace: config file name, env prefix,
// and the dot-directory under $HOME.
const AppName = "authctl"

// Config is the full client configuration.
type Config struct {
	// Servers are the declared backends, in declaration order.
	Servers []domain.AuthServerDescriptor `mapstructure:"servers"`
	// LegacyServerURL is the single-server fallback when no descriptor is
	// declared.
	LegacyServerURL string `mapstructure:"legacy_server_url"`

	Mode domain.AuthModeConfig `mapstructure:"auth_mode"`

	// Platform tags login and register calls so the backend can tell
	// client families apart.
	Platform string `mapstructure:"platform"`
	// PlatformAPIURL is the absolute base for tenant registration.
	PlatformAPIURL string `mapstructure:"platform_api_url"`

	// StatePath is where session state persists across restarts.
	StatePath string `mapstructure:"state_path"`

	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`
}

// Load reads configuration from the first authctl.yaml found in
// /etc/authctl, $HOME/.authctl, or the working directory, then applies
// AUTHCTL_* environment overrides and defaults. A missing file is fine;
// a malformed one is not.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/" + AppName + "/")
		v.AddConfigPath("$HOME/." + AppName)
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("platform", "cli")
	v.SetDefault("auth_mode.mode", string(domain.AuthModeCookie))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)
	v.SetDefault("state_path", defaultStatePath())

	if err := v.ReadInConfig(); err != nil {
		// a missing config file just means defaults and env vars apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Mode = cfg.Mode.WithDefaults()
	return &cfg, nil
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName + "-state.json"
	}
	return filepath.Join(home, "."+AppName, "state.json")
}
