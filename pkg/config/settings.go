package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings are the tool-level knobs that apply to every workflow, as opposed
// to the per-target catalog. They come from an optional settings file and
// KILN_* environment variables; every field has a working default so a bare
// host needs no file at all.
type Settings struct {
	// RuntimeBinary is the container runtime CLI to invoke.
	RuntimeBinary string

	// Bridge is the host bridge targets attach to.
	Bridge string

	// HealthMaxAttempts and HealthInterval bound the post-install probe.
	// The defaults give a two-minute budget.
	HealthMaxAttempts int
	HealthInterval    time.Duration

	// ShutdownWaitAttempts/Interval bound the wait for "stopped" during
	// snapshot finalization; StartWait* bound the wait for "running".
	ShutdownWaitAttempts int
	ShutdownWaitInterval time.Duration
	StartWaitAttempts    int
	StartWaitInterval    time.Duration

	// MetricsAddr, when non-empty, serves Prometheus metrics for the
	// duration of the run.
	MetricsAddr string
}

// LoadSettings reads settings from path (optional; "" means defaults plus
// environment only).
func LoadSettings(path string) (Settings, error) {
	v := viper.New()

	v.SetDefault("runtime.binary", "pct")
	v.SetDefault("network.bridge", "vmbr0")
	v.SetDefault("health.max_attempts", 12)
	v.SetDefault("health.interval", "10s")
	v.SetDefault("wait.shutdown_attempts", 30)
	v.SetDefault("wait.shutdown_interval", "2s")
	v.SetDefault("wait.start_attempts", 30)
	v.SetDefault("wait.start_interval", "2s")
	v.SetDefault("metrics.addr", "")

	v.SetEnvPrefix("KILN")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	return Settings{
		RuntimeBinary:        v.GetString("runtime.binary"),
		Bridge:               v.GetString("network.bridge"),
		HealthMaxAttempts:    v.GetInt("health.max_attempts"),
		HealthInterval:       v.GetDuration("health.interval"),
		ShutdownWaitAttempts: v.GetInt("wait.shutdown_attempts"),
		ShutdownWaitInterval: v.GetDuration("wait.shutdown_interval"),
		StartWaitAttempts:    v.GetInt("wait.start_attempts"),
		StartWaitInterval:    v.GetDuration("wait.start_interval"),
		MetricsAddr:          v.GetString("metrics.addr"),
	}, nil
}
