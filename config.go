package mcscrape

import (
	"net/url"
	"time"
)

// Default configuration values.
const (
	DefaultConcurrency = 10
	DefaultPageTimeout = 60 * time.Second
	DefaultIdleWindow  = 500 * time.Millisecond
	DefaultMaxWait     = 10 * time.Second
)

// Config is the configuration surface consumed by the extraction core.
// It is built by the caller; the core never reads files or the environment.
type Config struct {
	Model       ModelConfig
	Proxy       *ProxyConfig
	Concurrency int
	PageTimeout time.Duration
	Quiescence  Quiescence

	// ExcludeSelectors are CSS selectors removed during normalization,
	// in addition to the non-content elements always removed.
	ExcludeSelectors []string
}

// ModelConfig holds the options recognized by the language model endpoint.
type ModelConfig struct {
	Model string `json:"model" yaml:"model"`

	// Temperature in [0,1] controls output determinism.
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// ProxyConfig holds optional proxy settings for page fetches.
type ProxyConfig struct {
	Host     string
	Username string
	Password string
}

// HasCredentials reports whether proxy authentication is configured.
func (p *ProxyConfig) HasCredentials() bool {
	return p != nil && p.Username != "" && p.Password != ""
}

// Quiescence configures how long a fetcher waits for client-side rendering.
// The page is considered settled after IdleWindow without network activity;
// MaxWait bounds the wait regardless.
type Quiescence struct {
	IdleWindow time.Duration
	MaxWait    time.Duration
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = DefaultPageTimeout
	}
	if c.Quiescence.IdleWindow <= 0 {
		c.Quiescence.IdleWindow = DefaultIdleWindow
	}
	if c.Quiescence.MaxWait <= 0 {
		c.Quiescence.MaxWait = DefaultMaxWait
	}
	return c
}

// Validate returns an error if the configuration contains invalid fields.
func (c *Config) Validate() error {
	if c.Model.Model == "" {
		return Errorf(EINVALID, "model identifier required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return Errorf(EINVALID, "temperature must be within [0,1], got %v", c.Model.Temperature)
	}
	if c.Concurrency < 0 {
		return Errorf(EINVALID, "concurrency must not be negative")
	}
	if c.Quiescence.MaxWait > 0 && c.Quiescence.IdleWindow > c.Quiescence.MaxWait {
		return Errorf(EINVALID, "idle window %s exceeds max wait %s", c.Quiescence.IdleWindow, c.Quiescence.MaxWait)
	}
	if c.Proxy != nil {
		if c.Proxy.Host == "" {
			return Errorf(EINVALID, "proxy host required")
		}
		if (c.Proxy.Username == "") != (c.Proxy.Password == "") {
			return Errorf(EINVALID, "proxy username and password must be set together")
		}
	}
	return nil
}

// ValidatePageURL checks that rawURL is an absolute http(s) URL with a host.
func ValidatePageURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, WrapError(EINVALIDURL, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, Errorf(EINVALIDURL, "URL %q must use http or https", rawURL)
	}
	if u.Host == "" {
		return nil, Errorf(EINVALIDURL, "URL %q has no host", rawURL)
	}
	return u, nil
}
