package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/SmitUplenchwar2687/ps2emu/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g.
// PS2EMU_REPLAY_MAX_WAIT=500ms.
const EnvPrefix = "PS2EMU"

// Config is the top-level configuration for ps2emu.
type Config struct {
	Capture CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Replay  ReplayConfig   `mapstructure:"replay" yaml:"replay"`
	Store   storage.Config `mapstructure:"store" yaml:"store"`
	Monitor MonitorConfig  `mapstructure:"monitor" yaml:"monitor"`
	Logging LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// CaptureConfig holds recording settings.
type CaptureConfig struct {
	RecordKeyboard bool          `mapstructure:"record_keyboard" yaml:"record_keyboard"`
	RecordAux      bool          `mapstructure:"record_aux" yaml:"record_aux"`
	CheckInterval  time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
	KmsgPath       string        `mapstructure:"kmsg_path" yaml:"kmsg_path"`
	SysfsRoot      string        `mapstructure:"sysfs_root" yaml:"sysfs_root"`
	// Rebind re-probes the i8042 ports so the Init section is captured.
	Rebind bool `mapstructure:"rebind" yaml:"rebind"`
}

// ReplayConfig holds replay pacing and output settings.
type ReplayConfig struct {
	MaxWait     time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
	EventDelay  time.Duration `mapstructure:"event_delay" yaml:"event_delay"`
	NoteDelay   time.Duration `mapstructure:"note_delay" yaml:"note_delay"`
	Device      string        `mapstructure:"device" yaml:"device"`
	Verbose     bool          `mapstructure:"verbose" yaml:"verbose"`
	NoEvents    bool          `mapstructure:"no_events" yaml:"no_events"`
	KeepRunning bool          `mapstructure:"keep_running" yaml:"keep_running"`
}

// MonitorConfig holds the live capture monitor settings. Empty addresses
// disable the listeners.
type MonitorConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return cfg
}

// Load reads configuration from the yaml file at path (optional when
// empty) and PS2EMU_* environment variables. Fields not set anywhere keep
// their default values.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Default(), fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	// Capture defaults
	v.SetDefault("capture.record_keyboard", false)
	v.SetDefault("capture.record_aux", true)
	v.SetDefault("capture.check_interval", "5s")
	v.SetDefault("capture.kmsg_path", "/dev/kmsg")
	v.SetDefault("capture.sysfs_root", "/sys")
	v.SetDefault("capture.rebind", true)

	// Replay defaults
	v.SetDefault("replay.max_wait", "0s")
	v.SetDefault("replay.event_delay", "0s")
	v.SetDefault("replay.note_delay", "2s")
	v.SetDefault("replay.device", "/dev/userio")
	v.SetDefault("replay.verbose", false)
	v.SetDefault("replay.no_events", false)
	v.SetDefault("replay.keep_running", false)

	// Log store defaults
	v.SetDefault("store.backend", storage.BackendFile)
	v.SetDefault("store.dir", storage.DefaultDir())
	v.SetDefault("store.redis.host", "localhost")
	v.SetDefault("store.redis.port", 6379)
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.pool_size", 20)
	v.SetDefault("store.redis.max_retries", 3)
	v.SetDefault("store.redis.dial_timeout", "5s")
	v.SetDefault("store.redis.cluster", false)
	v.SetDefault("store.redis.cluster_nodes", []string{})
	v.SetDefault("store.redis.ttl", "0s")

	// Monitor defaults
	v.SetDefault("monitor.addr", "")
	v.SetDefault("monitor.metrics_addr", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that the config is valid.
func (c Config) Validate() error {
	var errs []error

	if err := c.Capture.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Replay.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Store.Backend) {
	case "", storage.BackendMemory, storage.BackendRedis:
	case storage.BackendFile:
		if c.Store.Dir == "" {
			errs = append(errs, fmt.Errorf("store.dir is required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q, must be one of: memory, file, redis", c.Store.Backend))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q, must be text or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Validate checks the capture settings.
func (c CaptureConfig) Validate() error {
	if !c.RecordKeyboard && !c.RecordAux {
		return fmt.Errorf("at least one of record_keyboard and record_aux must be enabled")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive, got %s", c.CheckInterval)
	}
	return nil
}

// Validate checks the replay settings.
func (c ReplayConfig) Validate() error {
	for name, d := range map[string]time.Duration{
		"max_wait":    c.MaxWait,
		"event_delay": c.EventDelay,
		"note_delay":  c.NoteDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}
	return nil
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	data, err := yaml.Marshal(exampleDoc(Default()))
	if err != nil {
		return fmt.Errorf("encoding example config: %w", err)
	}
	header := "# ps2emu configuration. Every key can be overridden with\n" +
		"# PS2EMU_<SECTION>_<KEY>, e.g. PS2EMU_REPLAY_MAX_WAIT=500ms.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

// exampleDoc renders durations as strings so the file stays editable.
func exampleDoc(c Config) map[string]any {
	return map[string]any{
		"capture": map[string]any{
			"record_keyboard": c.Capture.RecordKeyboard,
			"record_aux":      c.Capture.RecordAux,
			"check_interval":  c.Capture.CheckInterval.String(),
			"kmsg_path":       c.Capture.KmsgPath,
			"sysfs_root":      c.Capture.SysfsRoot,
			"rebind":          c.Capture.Rebind,
		},
		"replay": map[string]any{
			"max_wait":     c.Replay.MaxWait.String(),
			"event_delay":  c.Replay.EventDelay.String(),
			"note_delay":   c.Replay.NoteDelay.String(),
			"device":       c.Replay.Device,
			"verbose":      c.Replay.Verbose,
			"no_events":    c.Replay.NoEvents,
			"keep_running": c.Replay.KeepRunning,
		},
		"store": map[string]any{
			"backend": c.Store.Backend,
			"dir":     c.Store.Dir,
			"redis": map[string]any{
				"host":         c.Store.Redis.Host,
				"port":         c.Store.Redis.Port,
				"db":           c.Store.Redis.DB,
				"pool_size":    c.Store.Redis.PoolSize,
				"max_retries":  c.Store.Redis.MaxRetries,
				"dial_timeout": c.Store.Redis.DialTimeout.String(),
				"ttl":          c.Store.Redis.TTL.String(),
			},
		},
		"monitor": map[string]any{
			"addr":         c.Monitor.Addr,
			"metrics_addr": c.Monitor.MetricsAddr,
		},
		"logging": map[string]any{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
		},
	}
}
