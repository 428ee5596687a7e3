package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/pcmogg/pkg/storage"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".pcmogg"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// ErrNoProfile is returned by ResolveProfile when no name is given and no
// current profile is set.
var ErrNoProfile = errors.New("no current profile set")

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name
	AppName string `yaml:"-"`

	// CurrentProfile is the name of the currently active profile
	CurrentProfile string `yaml:"current_profile,omitempty"`

	// Profiles is a map of profile name to profile settings
	Profiles map[string]*Profile `yaml:"profiles,omitempty"`

	configPath string
}

// Profile is a named set of encoding defaults. Zero fields are unset and
// leave the command-line defaults in place.
type Profile struct {
	Name string `yaml:"name" json:"name"`

	// Channels, SampleRate and Quality describe the encoded stream.
	Channels   int      `yaml:"channels,omitempty" json:"channels,omitempty"`
	SampleRate int      `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
	Quality    *float32 `yaml:"quality,omitempty" json:"quality,omitempty"`

	// Encoding is the raw input sample encoding (f32le or s16le).
	Encoding string `yaml:"encoding,omitempty" json:"encoding,omitempty"`

	// ChunkMS is the streaming read size in milliseconds.
	ChunkMS int `yaml:"chunk_ms,omitempty" json:"chunk_ms,omitempty"`

	// FragmentLimit caps a single encoded fragment in bytes.
	FragmentLimit int `yaml:"fragment_limit,omitempty" json:"fragment_limit,omitempty"`

	// Tags are written as Vorbis comments.
	Tags map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Server is the WebSocket URL used by the stream command.
	Server string `yaml:"server,omitempty" json:"server,omitempty"`

	// Archive is the root where serve stores session streams, a directory
	// or s3://bucket/prefix.
	Archive string `yaml:"archive,omitempty" json:"archive,omitempty"`

	// S3 holds connection settings for s3:// locations.
	S3 *storage.S3Config `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Profiles:   make(map[string]*Profile),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}
	cfg.AppName = appName
	cfg.configPath = configPath

	return cfg, nil
}

// Save saves the configuration to disk. The file may hold S3 secrets and
// is written owner-only.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddProfile adds or replaces a profile
func (c *Config) AddProfile(name string, p *Profile) error {
	if name == "" {
		return errors.New("profile name is required")
	}
	p.Name = name
	c.Profiles[name] = p
	return c.Save()
}

// DeleteProfile removes a profile
func (c *Config) DeleteProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return c.Save()
}

// UseProfile sets the current profile
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile returns a specific profile
func (c *Config) GetProfile(name string) (*Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// ResolveProfile returns the profile by name, or the current profile if
// name is empty. Without either it returns ErrNoProfile.
func (c *Config) ResolveProfile(name string) (*Profile, error) {
	if name != "" {
		return c.GetProfile(name)
	}
	if c.CurrentProfile == "" {
		return nil, ErrNoProfile
	}
	return c.GetProfile(c.CurrentProfile)
}

// ListProfiles returns all profile names in sorted order
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SetTag sets a Vorbis comment on the profile
func (p *Profile) SetTag(key, value string) {
	if p.Tags == nil {
		p.Tags = make(map[string]string)
	}
	p.Tags[key] = value
}

// Masked returns a copy of p that is safe to print.
func (p *Profile) Masked() *Profile {
	cp := *p
	if p.S3 != nil {
		s3 := *p.S3
		s3.SecretAccessKey = MaskSecret(s3.SecretAccessKey)
		cp.S3 = &s3
	}
	return &cp
}

// MaskSecret masks a credential for display
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
