package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wippyai/stl/errors"
	"github.com/wippyai/stl/registry"
)

// Config is the fully resolved configuration.
type Config struct {
	Web      *Web
	Registry Registry
	Log      Log
}

// Registry holds slot capacities and the main thread name.
type Registry struct {
	MainThread string
	Threads    int
	Mutexes    int
	Semaphores int
	Timers     int
}

// Log controls diagnostic output.
type Log struct {
	Debug bool
}

// Web configures the HTTP façade. A nil *Web means the façade is off.
type Web struct {
	Callback string
	Port     int
}

// Default returns eight slots per kind, a main thread named "user" and
// debug output on.
func Default() *Config {
	d := registry.DefaultConfig()
	return &Config{
		Registry: Registry{
			MainThread: d.MainThread,
			Threads:    d.Threads,
			Mutexes:    d.Mutexes,
			Semaphores: d.Semaphores,
			Timers:     d.Timers,
		},
		Log: Log{Debug: d.Debug},
	}
}

// Load reads the file at path, choosing the format by extension, and
// validates the result. HCL files see the process environment as env.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(errors.PhaseConfig, "read "+path, err)
	}

	var cfg *Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		cfg, err = ParseHCL(src, path, Environ())
	case ".yaml", ".yml":
		cfg, err = ParseYAML(src)
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, "unsupported config extension "+ext)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Validate checks capacities and the web port.
func (c *Config) Validate() error {
	caps := []struct {
		name string
		n    int
	}{
		{"threads", c.Registry.Threads},
		{"mutexes", c.Registry.Mutexes},
		{"semaphores", c.Registry.Semaphores},
		{"timers", c.Registry.Timers},
	}
	for _, cp := range caps {
		if cp.n < 1 {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Name(cp.name).
				Detail("capacity must be at least 1, got %d", cp.n).
				Build()
		}
	}

	if c.Web != nil {
		if c.Web.Port < 0 || c.Web.Port > 65535 {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Name("web.port").
				Detail("port %d out of range", c.Web.Port).
				Build()
		}
		if c.Web.Callback == "" {
			return errors.InvalidInput(errors.PhaseConfig, "web block needs a callback")
		}
	}
	return nil
}

// RegistryConfig converts the configuration into registry settings.
func (c *Config) RegistryConfig() registry.Config {
	return registry.Config{
		MainThread: c.Registry.MainThread,
		Threads:    c.Registry.Threads,
		Mutexes:    c.Registry.Mutexes,
		Semaphores: c.Registry.Semaphores,
		Timers:     c.Registry.Timers,
		Debug:      c.Log.Debug,
	}
}
