package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/s0up4200/daemonctl/internal/daemon"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DAEMONCTL"

// Config is the daemonctl config file: the configured daemons by name.
type Config struct {
	// Default is the daemon used when a command is not given one
	Default string              `yaml:"default,omitempty" mapstructure:"default"`
	Daemons map[string]Settings `yaml:"daemons" mapstructure:"daemons"`
	// Timeout in seconds for connecting to a daemon
	Timeout int `yaml:"timeout" mapstructure:"timeout"`
}

// Settings are the connection details of one configured daemon.
type Settings struct {
	Name string `yaml:"-" mapstructure:"-"`
	// Type is the persisted daemon identifier, e.g. daemon_deluge
	Type        string `yaml:"type" mapstructure:"type"`
	Host        string `yaml:"host,omitempty" mapstructure:"host"`
	Port        int    `yaml:"port,omitempty" mapstructure:"port"` // 0 uses the daemon's default port
	SSL         bool   `yaml:"ssl,omitempty" mapstructure:"ssl"`
	SSLTrustAll bool   `yaml:"sslTrustAll,omitempty" mapstructure:"ssltrustall"`
	// Folder is the RPC or WebUI path, or the target directory for watch dirs
	Folder        string `yaml:"folder,omitempty" mapstructure:"folder"`
	Username      string `yaml:"username,omitempty" mapstructure:"username"`
	Password      string `yaml:"password,omitempty" mapstructure:"password"`
	ExtraPassword string `yaml:"extraPassword,omitempty" mapstructure:"extrapassword"`
	Timeout       int    `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// MaxStalled sets the maximum number of unfinished downloads with the
	// same label before new torrents are refused
	// Default is 0 (unlimited)
	MaxStalled int `yaml:"maxStalled,omitempty" mapstructure:"maxstalled"`
}

// Kind resolves the configured type. An unknown type yields daemon.None and
// false; it is not a load error.
func (s Settings) Kind() (daemon.Kind, bool) {
	return daemon.ParseKind(s.Type)
}

// EffectivePort prefers the configured port and falls back to the default
// for the daemon type.
func (s Settings) EffectivePort() int {
	if s.Port > 0 {
		return s.Port
	}
	k, _ := s.Kind()
	return daemon.DefaultPort(k)
}

// Load reads the config at path. Top level keys can be overridden from the
// environment, e.g. DAEMONCTL_DEFAULT.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("timeout", 10)
	_ = v.BindEnv("default")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for name, s := range cfg.Daemons {
		s.Name = name
		cfg.Daemons[name] = s
	}

	return &cfg, nil
}

// Save writes cfg to path as YAML, prefixed with header.
func Save(path string, cfg *Config, header string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(header), data...), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Daemon looks up a configured daemon by name, falling back to Default when
// name is empty.
func (c *Config) Daemon(name string) (Settings, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" {
		return Settings{}, fmt.Errorf("no daemon given and no default configured")
	}

	s, ok := c.Daemons[strings.ToLower(name)]
	if !ok {
		return Settings{}, fmt.Errorf("daemon %s not found", name)
	}
	return s, nil
}

// Names returns the configured daemon names, sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Daemons))
	for name := range c.Daemons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
