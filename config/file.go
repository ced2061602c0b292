package config

// file mirrors the on-disk schema. Pointers distinguish "absent" from zero
// so that a file only overrides what it sets.
type file struct {
	Registry *fileRegistry `hcl:"registry,block" yaml:"registry"`
	Log      *fileLog      `hcl:"log,block" yaml:"log"`
	Web      *fileWeb      `hcl:"web,block" yaml:"web"`
}

type fileRegistry struct {
	MainThread *string `hcl:"main_thread,optional" yaml:"main_thread"`
	Threads    *int    `hcl:"threads,optional" yaml:"threads"`
	Mutexes    *int    `hcl:"mutexes,optional" yaml:"mutexes"`
	Semaphores *int    `hcl:"semaphores,optional" yaml:"semaphores"`
	Timers     *int    `hcl:"timers,optional" yaml:"timers"`
}

type fileLog struct {
	Debug *bool `hcl:"debug,optional" yaml:"debug"`
}

type fileWeb struct {
	Port     *int   `hcl:"port,optional" yaml:"port"`
	Callback string `hcl:"callback" yaml:"callback"`
}

// apply overlays f onto the defaults.
func (f *file) apply() *Config {
	cfg := Default()

	if r := f.Registry; r != nil {
		setString(&cfg.Registry.MainThread, r.MainThread)
		setInt(&cfg.Registry.Threads, r.Threads)
		setInt(&cfg.Registry.Mutexes, r.Mutexes)
		setInt(&cfg.Registry.Semaphores, r.Semaphores)
		setInt(&cfg.Registry.Timers, r.Timers)
	}
	if f.Log != nil && f.Log.Debug != nil {
		cfg.Log.Debug = *f.Log.Debug
	}
	if w := f.Web; w != nil {
		cfg.Web = &Web{Callback: w.Callback}
		setInt(&cfg.Web.Port, w.Port)
	}
	return cfg
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
