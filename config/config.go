// Package config holds the inputs of a database context: the driver and
// main store, the attached databases, and the logging knobs.
//
// A Config comes from a YAML file:
//
//	driver: sqlite
//	dsn: file:main.db
//	attach:
//	  - name: TestDb
//	    path: /var/lib/app/test.db
//	slow_threshold: 200ms
//
// or from an attachment list held in an environment variable (optionally
// loaded from .env files):
//
//	TESTDBS="TestDb@/var/lib/app/test.db, Other@/tmp/other.db"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDriver        = "sqlite"
	DefaultDSN           = ":memory:"
	DefaultSlowThreshold = 100 * time.Millisecond
)

// Attachment maps a logical database name to the physical path of its store.
type Attachment struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// String returns the attachment in name@path form.
func (a Attachment) String() string {
	return a.Name + "@" + a.Path
}

// Config configures a database context.
type Config struct {
	Driver        string        `yaml:"driver"`
	DSN           string        `yaml:"dsn"`
	Attach        []Attachment  `yaml:"attach"`
	Debug         bool          `yaml:"debug"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

// Default returns a config for a private in-memory SQLite store.
func Default() *Config {
	return &Config{
		Driver:        DefaultDriver,
		DSN:           DefaultDSN,
		SlowThreshold: DefaultSlowThreshold,
	}
}

// Load reads a YAML config file. Unset keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML config. Unset keys keep their defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: decoding yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the config for missing values and duplicate attachments.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return errors.New("config: driver is required")
	}
	if c.SlowThreshold < 0 {
		return fmt.Errorf("config: negative slow_threshold %s", c.SlowThreshold)
	}
	seen := make(map[string]struct{}, len(c.Attach))
	for _, a := range c.Attach {
		if a.Name == "" || a.Path == "" {
			return fmt.Errorf("config: incomplete attachment %q", a.String())
		}
		if _, ok := seen[a.Name]; ok {
			return fmt.Errorf("config: database %q attached twice", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// ParseAttachments parses a comma-separated list of name@path pairs.
// Surrounding whitespace is trimmed from every pair and from both sides of
// the @; empty entries are skipped.
func ParseAttachments(s string) ([]Attachment, error) {
	var as []Attachment
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, path, ok := strings.Cut(pair, "@")
		if !ok {
			return nil, fmt.Errorf("config: attachment %q is not of the form name@path", pair)
		}
		a := Attachment{Name: strings.TrimSpace(name), Path: strings.TrimSpace(path)}
		if a.Name == "" || a.Path == "" {
			return nil, fmt.Errorf("config: attachment %q is not of the form name@path", pair)
		}
		as = append(as, a)
	}
	return as, nil
}

// FromEnv reads the attachment list from the environment variable name.
// The given .env files (".env" when none are given) are loaded first;
// missing files are ignored and variables already set in the process
// environment win.
func FromEnv(name string, files ...string) ([]Attachment, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil, fmt.Errorf("config: environment variable %s is not set", name)
	}
	return ParseAttachments(v)
}
