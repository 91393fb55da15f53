package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"chunkstream/internal/config"
)

// configDirEnv relocates the profile file, mostly for CI and tests.
const configDirEnv = "CHUNKSTREAM_CONFIG_DIR"

// UserConfig is the profile file, config.yaml under ConfigDir.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile holds saved defaults for a stream run. Empty fields are unset.
type Profile struct {
	Destination string `yaml:"destination,omitempty"`
	Source      string `yaml:"source,omitempty"`
	Region      string `yaml:"region,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	ChunkSize   int    `yaml:"chunk-size,omitempty"`
	Delay       string `yaml:"delay,omitempty"`
	KeyPrefix   string `yaml:"key-prefix,omitempty"`
	ObjectDir   string `yaml:"object-dir,omitempty"`
}

// ActiveProfile picks the override, falling back to current-profile.
// An explicit override that does not exist is an error; a missing current profile is not.
func (c *UserConfig) ActiveProfile(override string) (Profile, error) {
	if override != "" {
		p, ok := c.Profiles[override]
		if !ok {
			return Profile{}, fmt.Errorf("profile %q not found", override)
		}
		return p, nil
	}
	return c.Profiles[c.CurrentProfile], nil
}

// Validate rejects values no run could accept.
func (p Profile) Validate() error {
	if p.ChunkSize < 0 {
		return fmt.Errorf("chunk-size must be positive, got %d", p.ChunkSize)
	}
	if p.Delay != "" {
		d, err := time.ParseDuration(p.Delay)
		if err != nil {
			return fmt.Errorf("delay %q: %w", p.Delay, err)
		}
		if d < 0 {
			return fmt.Errorf("delay must not be negative, got %s", p.Delay)
		}
	}
	if strings.Contains(p.KeyPrefix, "/") {
		return fmt.Errorf("key-prefix %q must not contain '/'", p.KeyPrefix)
	}
	return nil
}

// Apply copies set profile fields onto cfg, skipping any field whose
// environment variable is set.
func (p Profile) Apply(cfg *config.Config) error {
	if err := p.Validate(); err != nil {
		return err
	}
	set := func(v string, dst *string, env ...string) {
		if v != "" && envUnset(env...) {
			*dst = v
		}
	}
	set(p.Destination, &cfg.Destination, "CHUNKSTREAM_DESTINATION", "BUCKET")
	set(p.Source, &cfg.SourcePath, "CHUNKSTREAM_SOURCE")
	set(p.Region, &cfg.Region, "REGION", "AWS_REGION")
	set(p.KeyPrefix, &cfg.KeyPrefix, "CHUNKSTREAM_KEY_PREFIX")
	set(p.ObjectDir, &cfg.ObjectDir, "CHUNKSTREAM_OBJECT_DIR")
	if p.Endpoint != "" && envUnset("ENDPOINT") {
		cfg.S3.Endpoint = p.Endpoint
		if envUnset("S3_PATH_STYLE") {
			cfg.S3.UsePathStyle = true
		}
	}
	if p.ChunkSize != 0 && envUnset("CHUNKSTREAM_CHUNK_SIZE") {
		cfg.ChunkSize = p.ChunkSize
	}
	if p.Delay != "" && envUnset("CHUNKSTREAM_DELAY") {
		cfg.Delay, _ = time.ParseDuration(p.Delay) // checked by Validate
	}
	return nil
}

func envUnset(keys ...string) bool {
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return false
		}
	}
	return true
}

// ConfigDir returns $CHUNKSTREAM_CONFIG_DIR, or ~/.chunkstream.
func ConfigDir() string {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chunkstream")
}

// ConfigPath returns the path of the profile file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadUserConfig reads the profile file. A missing file is reported as fs.ErrNotExist.
func LoadUserConfig() (*UserConfig, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", ConfigPath(), err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return &cfg, nil
}

// loadOrEmptyUserConfig is LoadUserConfig with a missing file read as an empty
// config. A malformed file is still an error.
func loadOrEmptyUserConfig() (*UserConfig, error) {
	cfg, err := LoadUserConfig()
	if errors.Is(err, fs.ErrNotExist) {
		return emptyUserConfig(), nil
	}
	return cfg, err
}

// SaveUserConfig validates every profile and replaces the profile file
// atomically with mode 0600.
func SaveUserConfig(cfg *UserConfig) error {
	for name, p := range cfg.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), ConfigPath()); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func emptyUserConfig() *UserConfig {
	return &UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{},
	}
}
