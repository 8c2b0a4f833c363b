package main

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/fwojciec/mcscrape"
	"gopkg.in/yaml.v3"
)

// CLI defines the command-line interface structure for Kong.
// Zero-valued flags fall back to the config file, then to defaults.
type CLI struct {
	URLs     []string `arg:"" optional:"" name:"url" help:"Page URLs to scrape"`
	URLsFile string   `name:"urls-file" help:"File with one URL per line ('#' starts a comment)"`
	Config   string   `short:"C" help:"YAML config file; flags take precedence"`

	Concurrency int           `short:"c" help:"Pages processed in parallel (default 10)"`
	Timeout     time.Duration `short:"t" help:"Timeout per page (default 60s)"`

	Provider    string   `help:"Model provider: gemini or openai (default gemini)"`
	Model       string   `short:"m" help:"Model identifier (default depends on provider)"`
	Temperature *float64 `help:"Sampling temperature in [0,1] (default 0)"`
	MaxTokens   int      `name:"max-tokens" help:"Token budget per classification prompt"`
	Fallback    string   `help:"Heuristic used when the model output is unusable: largest-block, readability or trafilatura (default largest-block)"`
	Exclude     []string `sep:"none" help:"CSS selector removed before classification (repeatable)"`

	NoJS       bool          `name:"no-js" help:"Fetch raw HTML over HTTP without a browser"`
	IdleWindow time.Duration `name:"idle-window" help:"Network idle time that ends rendering (default 500ms)"`
	MaxWait    time.Duration `name:"max-wait" help:"Upper bound on waiting for rendering (default 10s)"`
	RPS        float64       `name:"rps" help:"Requests per second per host (0 disables)"`

	ProxyHost string `name:"proxy-host" env:"PROXY_HOST" help:"Proxy host:port"`
	ProxyUser string `name:"proxy-user" env:"PROXY_USERNAME" help:"Proxy username"`
	ProxyPass string `name:"proxy-pass" env:"PROXY_PASSWORD" help:"Proxy password"`

	Out         string `short:"o" help:"Directory for per-URL files"`
	DB          string `name:"db" help:"SQLite database to record results in"`
	S3Bucket    string `name:"s3-bucket" help:"S3 bucket to upload per-URL files to"`
	S3Prefix    string `name:"s3-prefix" help:"Key prefix inside the S3 bucket"`
	S3Region    string `name:"s3-region" help:"S3 region"`
	S3Endpoint  string `name:"s3-endpoint" help:"S3-compatible endpoint URL"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file after the run"`

	Verbose bool `short:"v" help:"Log every fetch, model call and stage change"`
}

// FileConfig is the YAML config file layout.
type FileConfig struct {
	URLs        []string      `yaml:"urls"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature *float64      `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Fallback    string        `yaml:"fallback"`
	Exclude     []string      `yaml:"exclude"`
	NoJS        bool          `yaml:"no_js"`
	IdleWindow  time.Duration `yaml:"idle_window"`
	MaxWait     time.Duration `yaml:"max_wait"`
	RPS         float64       `yaml:"rps"`
	Proxy       struct {
		Host     string `yaml:"host"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"proxy"`
	Out string `yaml:"out"`
	DB  string `yaml:"db"`
	S3  struct {
		Bucket   string `yaml:"bucket"`
		Prefix   string `yaml:"prefix"`
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"s3"`
	MetricsFile string `yaml:"metrics_file"`
}

// LoadFileConfig reads a YAML config file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINVALID, err, "reading config %s: %v", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINVALID, err, "parsing config %s: %v", path, err)
	}
	return &fc, nil
}

// merge fills unset CLI fields from the config file.
func (c *CLI) merge(fc *FileConfig) {
	c.URLs = append(c.URLs, fc.URLs...)
	setString(&c.Provider, fc.Provider)
	setString(&c.Model, fc.Model)
	setString(&c.Fallback, fc.Fallback)
	setString(&c.ProxyHost, fc.Proxy.Host)
	setString(&c.ProxyUser, fc.Proxy.Username)
	setString(&c.ProxyPass, fc.Proxy.Password)
	setString(&c.Out, fc.Out)
	setString(&c.DB, fc.DB)
	setString(&c.S3Bucket, fc.S3.Bucket)
	setString(&c.S3Prefix, fc.S3.Prefix)
	setString(&c.S3Region, fc.S3.Region)
	setString(&c.S3Endpoint, fc.S3.Endpoint)
	setString(&c.MetricsFile, fc.MetricsFile)
	if c.Concurrency == 0 {
		c.Concurrency = fc.Concurrency
	}
	if c.Timeout == 0 {
		c.Timeout = fc.Timeout
	}
	if c.Temperature == nil {
		c.Temperature = fc.Temperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = fc.MaxTokens
	}
	if len(c.Exclude) == 0 {
		c.Exclude = fc.Exclude
	}
	if c.IdleWindow == 0 {
		c.IdleWindow = fc.IdleWindow
	}
	if c.MaxWait == 0 {
		c.MaxWait = fc.MaxWait
	}
	if c.RPS == 0 {
		c.RPS = fc.RPS
	}
	c.NoJS = c.NoJS || fc.NoJS
}

func setString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// config builds the core configuration from the merged flags.
func (c *CLI) config() (mcscrape.Config, error) {
	if c.Provider == "" {
		c.Provider = providerGemini
	}
	if c.Model == "" {
		model, err := defaultModel(c.Provider)
		if err != nil {
			return mcscrape.Config{}, err
		}
		c.Model = model
	}

	cfg := mcscrape.Config{
		Model:            mcscrape.ModelConfig{Model: c.Model},
		Concurrency:      c.Concurrency,
		PageTimeout:      c.Timeout,
		Quiescence:       mcscrape.Quiescence{IdleWindow: c.IdleWindow, MaxWait: c.MaxWait},
		ExcludeSelectors: c.Exclude,
	}
	if c.Temperature != nil {
		cfg.Model.Temperature = *c.Temperature
	}
	if c.ProxyHost != "" || c.ProxyUser != "" || c.ProxyPass != "" {
		cfg.Proxy = &mcscrape.ProxyConfig{Host: c.ProxyHost, Username: c.ProxyUser, Password: c.ProxyPass}
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return mcscrape.Config{}, err
	}
	return cfg, nil
}

// urls returns the positional, config file and URL file URLs in order.
func (c *CLI) urls() ([]string, error) {
	urls := append([]string(nil), c.URLs...)
	if c.URLsFile != "" {
		fromFile, err := readURLs(c.URLsFile)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return nil, mcscrape.Errorf(mcscrape.EINVALID, "no URLs given")
	}
	return urls, nil
}

func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINVALID, err, "opening URL file: %v", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINVALID, err, "reading URL file: %v", err)
	}
	return urls, nil
}
