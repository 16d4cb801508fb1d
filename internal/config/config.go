// Package config loads the search server's TOML configuration file.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/pelletier/go-toml/v2"
)

// Backends the server can search.
const (
	BackendMemory  = "memory"
	BackendAlgolia = "algolia"
)

const (
	defaultListen        = ":8080"
	defaultNonceLifetime = 24 * time.Hour
	defaultDateFormat    = "January 2, 2006"
	defaultMaxPerPage    = 100
)

type Config struct {
	Listen string `toml:"listen"`
	// Endpoint is the public URL of the search action handed to widgets.
	// Derived from each request when empty.
	Endpoint        string   `toml:"endpoint,omitempty"`
	NonceSecret     string   `toml:"nonce_secret"`
	NonceLifetime   Duration `toml:"nonce_lifetime"`
	Backend         string   `toml:"backend"`
	DataFile        string   `toml:"data_file,omitempty"`
	DateFormat      string   `toml:"date_format"`
	MaxPostsPerPage int      `toml:"max_posts_per_page"`

	Algolia AlgoliaConfig `toml:"algolia"`
	Widget  WidgetConfig  `toml:"widget"`
}

type AlgoliaConfig struct {
	Index string `toml:"index"`
	// SecretARN locates the credentials in AWS Secrets Manager. Credentials
	// are read from the environment when empty.
	SecretARN string `toml:"secret_arn,omitempty"`
}

type WidgetConfig struct {
	PostsPerPage int    `toml:"posts_per_page"`
	PostType     string `toml:"post_type"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:          defaultListen,
		NonceLifetime:   Duration{defaultNonceLifetime},
		Backend:         BackendMemory,
		DateFormat:      defaultDateFormat,
		MaxPostsPerPage: defaultMaxPerPage,
		Widget: WidgetConfig{
			PostsPerPage: postsearch.DefaultPostsPerPage,
			PostType:     postsearch.DefaultPostType,
		},
	}
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.NonceSecret == "" {
		return errors.New("nonce_secret is required")
	}
	if c.NonceLifetime.Duration < 2*time.Second {
		return errors.Newf("nonce_lifetime must be at least 2s, got %s", c.NonceLifetime)
	}
	switch c.Backend {
	case BackendMemory:
	case BackendAlgolia:
		if c.Algolia.Index == "" {
			return errors.New("algolia.index is required for the algolia backend")
		}
	default:
		return errors.Newf("unknown backend %q", c.Backend)
	}
	if c.MaxPostsPerPage <= 0 {
		return errors.Newf("max_posts_per_page must be positive, got %d", c.MaxPostsPerPage)
	}
	if c.Widget.PostsPerPage <= 0 {
		return errors.Newf("widget.posts_per_page must be positive, got %d", c.Widget.PostsPerPage)
	}
	return nil
}

// Save writes c to path as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	return os.WriteFile(path, data, 0600)
}
