package proxyserver

import (
	"time"

	"github.com/BurntSushi/toml"

	"github.com/xandr001/josh/internal/fetch"
)

// Duration wraps time.Duration with a TOML-friendly text form,
// mirroring the teacher's own serve.Duration exactly (UnmarshalText
// delegating to time.ParseDuration).
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler so diagnostics can
// render a Config back out as TOML.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

const (
	defaultReadTimeout  = 2 * time.Hour
	defaultWriteTimeout = 2 * time.Hour
	defaultIdleTimeout  = 5 * time.Minute
)

// Config is the proxy's top-level TOML configuration, the §6 CLI flags'
// file-backed equivalent (--local maps to GitDir, --remote to
// RemoteBase, --port to Listen).
type Config struct {
	Listen       string            `toml:"listen"`
	GitDir       string            `toml:"git_dir"`
	RemoteBase   string            `toml:"remote_base"`
	ReadTimeout  Duration          `toml:"read_timeout,omitempty"`
	WriteTimeout Duration          `toml:"write_timeout,omitempty"`
	IdleTimeout  Duration          `toml:"idle_timeout,omitempty"`
	FetchPermits int64             `toml:"fetch_permits,omitempty"`
	FilterPermits int64            `toml:"filter_permits,omitempty"`
	Cache        fetch.CacheConfig `toml:"cache,omitempty"`
}

// DefaultConfig mirrors the teacher's NewServerConfig defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8000",
		ReadTimeout:   Duration{defaultReadTimeout},
		WriteTimeout:  Duration{defaultWriteTimeout},
		IdleTimeout:   Duration{defaultIdleTimeout},
		FetchPermits:  1,
		FilterPermits: 10,
		Cache:         fetch.DefaultCacheConfig,
	}
}

// LoadConfig decodes a TOML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
