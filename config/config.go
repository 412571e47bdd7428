package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/audiolibrelab/tapedeck/tape"
)

// Settings is the configuration object consumed by the recorder.
type Settings struct {
	Library     LibrarySettings `mapstructure:"library" yaml:"library"`
	Proxy       ProxySettings   `mapstructure:"proxy" yaml:"proxy"`
	DefaultMode string          `mapstructure:"default_mode" yaml:"default_mode"`
	Match       MatchSettings   `mapstructure:"match" yaml:"match"`
}

// LibrarySettings locates the tape library on disk.
type LibrarySettings struct {
	Root string `mapstructure:"root" yaml:"root"`
}

// ProxySettings describe where the intercepting proxy binds when the library
// is fronted by one.
type ProxySettings struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// MatchSettings select which parts of a request join the match key beyond
// method and URL.
type MatchSettings struct {
	Headers []string `mapstructure:"headers" yaml:"headers"`
}

var defaultSettings = Settings{
	Library:     LibrarySettings{Root: "tapes"},
	Proxy:       ProxySettings{Host: "localhost", Port: 5555},
	DefaultMode: string(tape.ModeReadWrite),
}

// Default returns the built-in settings, for embedding the library without a
// config file.
func Default() *Settings {
	s := defaultSettings
	return &s
}

// Load reads settings from a YAML file, applying defaults and TAPEDECK_*
// environment overrides.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	v.SetDefault("library.root", defaultSettings.Library.Root)
	v.SetDefault("proxy.host", defaultSettings.Proxy.Host)
	v.SetDefault("proxy.port", defaultSettings.Proxy.Port)
	v.SetDefault("default_mode", defaultSettings.DefaultMode)

	v.SetEnvPrefix("TAPEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	settings.Library.Root = expandPath(settings.Library.Root)
	return &settings, nil
}

// Validate checks that the settings describe a runnable configuration.
func (s *Settings) Validate() error {
	if s.Library.Root == "" {
		return fmt.Errorf("library.root is required")
	}
	if _, err := tape.ParseMode(s.DefaultMode); err != nil {
		return fmt.Errorf("default_mode: %w", err)
	}
	if s.Proxy.Port < 0 || s.Proxy.Port > 65535 {
		return fmt.Errorf("proxy.port must be between 0 and 65535, got: %d", s.Proxy.Port)
	}
	for i, name := range s.Match.Headers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("match.headers[%d] cannot be empty", i)
		}
	}
	return nil
}

// Mode returns the parsed default tape mode.
func (s *Settings) Mode() tape.Mode {
	m, _ := tape.ParseMode(s.DefaultMode)
	return m
}

// MatchRule builds the match rule the settings declare.
func (s *Settings) MatchRule() tape.MatchRule {
	return tape.MatchRule{Headers: append([]string(nil), s.Match.Headers...)}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
