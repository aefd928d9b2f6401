package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"github.com/kilnhq/kiln/pkg/config"
	"github.com/kilnhq/kiln/pkg/health"
	"github.com/kilnhq/kiln/pkg/installer"
	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/retry"
	"github.com/kilnhq/kiln/pkg/runtime"
	"github.com/kilnhq/kiln/pkg/types"
)

// parseCTID parses a positional container id argument.
func parseCTID(arg string) (int, error) {
	ctid, err := strconv.Atoi(arg)
	if err != nil || ctid <= 0 {
		return 0, types.NewStageError(types.KindConfigInvalid, "resolve",
			fmt.Errorf("ctid must be a positive integer, got %q", arg))
	}
	return ctid, nil
}

// runContext is cancelled on SIGINT/SIGTERM. Interruption is safe by
// construction: the next invocation re-derives state and resumes.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// beginRun attaches a fresh run id to the global logger so every record of
// one invocation can be correlated.
func beginRun(workflow string) {
	runID := uuid.New().String()
	log.Logger = log.WithRunID(runID)
	wl := log.WithWorkflow(workflow)
	wl.Info().Msg("starting run")
}

// runtimeClient builds the pct-backed client from the loaded settings.
func runtimeClient() runtime.Client {
	return runtime.NewPCTClient(settings.RuntimeBinary)
}

// healthProber builds the prober from the loaded settings.
func healthProber() *health.Prober {
	return health.NewProber(retry.Policy{
		MaxAttempts: settings.HealthMaxAttempts,
		Interval:    settings.HealthInterval,
	})
}

func shutdownWait() retry.Policy {
	return retry.Policy{MaxAttempts: settings.ShutdownWaitAttempts, Interval: settings.ShutdownWaitInterval}
}

func startWait() retry.Policy {
	return retry.Policy{MaxAttempts: settings.StartWaitAttempts, Interval: settings.StartWaitInterval}
}

// resolveTarget loads a target's configuration from the catalog file.
func resolveTarget(catalogPath string, ctid int) (types.TargetConfig, error) {
	catalog, err := config.LoadCatalog(catalogPath)
	if err != nil {
		return types.TargetConfig{}, types.NewStageError(types.KindConfigInvalid, "resolve", err)
	}
	return config.NewResolver().Resolve(catalog, ctid)
}

// workloadInstaller builds the installer selected by the workload flags.
func workloadInstaller(workload, backendIP string, backendPort int, rt runtime.Client) (installer.Installer, error) {
	inst, err := installer.ForWorkload(workload, rt, installer.Backend{IP: backendIP, Port: backendPort})
	if err != nil {
		return nil, types.NewStageError(types.KindConfigInvalid, "resolve", err)
	}
	return inst, nil
}
