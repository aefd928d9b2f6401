package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnhq/kiln/pkg/config"
	"github.com/kilnhq/kiln/pkg/exitcode"
	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// settings are loaded once in the root pre-run and shared by all workflows.
var settings config.Settings

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitcode.BadArgs)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kiln",
	Short: "Kiln provisions LXC containers from template snapshots",
	Long: `Kiln drives LXC containers on a hypervisor host through a declarative
lifecycle: clone from a template snapshot, apply target settings, install a
workload, verify it answers, and optionally freeze the result as a new
reusable snapshot.

Every step checks whether its effect already holds before acting, so any
workflow can be re-run safely after a crash or partial failure.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		logLevel, _ := cmd.Flags().GetString("log-level")
		log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: jsonLog})

		settingsPath, _ := cmd.Flags().GetString("settings")
		var err error
		settings, err = config.LoadSettings(settingsPath)
		if err != nil {
			return err
		}

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			settings.MetricsAddr = addr
		}
		if settings.MetricsAddr != "" {
			go func() {
				if err := metrics.Serve(settings.MetricsAddr); err != nil {
					log.Errorf("metrics endpoint failed", err)
				}
			}()
		}

		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"kiln version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Emit JSON log records")
	rootCmd.PersistentFlags().String("settings", "", "Path to an optional kiln settings file")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address for the run")

	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(verifyCmd)
}
