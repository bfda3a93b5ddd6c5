package config

import internalconfig "github.com/SmitUplenchwar2687/ps2emu/internal/config"

// Config is the top-level ps2emu configuration.
type Config = internalconfig.Config

// CaptureConfig holds record settings.
type CaptureConfig = internalconfig.CaptureConfig

// ReplayConfig holds replay pacing settings.
type ReplayConfig = internalconfig.ReplayConfig

// MonitorConfig holds the live monitor and metrics listener settings.
type MonitorConfig = internalconfig.MonitorConfig

// LoggingConfig holds log level and format.
type LoggingConfig = internalconfig.LoggingConfig

// Default returns a Config with sensible defaults.
func Default() Config {
	return internalconfig.Default()
}

// Load reads the yaml file at path and PS2EMU_* environment variables on
// top of the defaults. An empty path reads only the environment.
func Load(path string) (Config, error) {
	return internalconfig.Load(path)
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	return internalconfig.WriteExample(path)
}
