package installer

import (
	"context"
	"fmt"

	"github.com/kilnhq/kiln/pkg/runtime"
	"github.com/kilnhq/kiln/pkg/types"
)

// Installer is the pluggable per-workload step the orchestrator delegates
// to. New workloads plug in as variants of this contract without touching
// the state machine.
type Installer interface {
	// Name identifies the workload in logs and CLI flags.
	Name() string

	// IsInstalled checks a durable, workload-specific signal (installed
	// package plus expected path, never a bare directory probe) so a
	// re-run can skip the install stage without false positives.
	IsInstalled(ctx context.Context, ctid int) (bool, error)

	// Install puts the workload's packages and files in place.
	Install(ctx context.Context, ctid int, cfg types.TargetConfig) error

	// Configure writes the workload's runtime configuration, replacing any
	// conflicting distribution default.
	Configure(ctx context.Context, ctid int, cfg types.TargetConfig) error

	// ManageService enables and restarts the workload's managed service,
	// capturing recent service logs on failure.
	ManageService(ctx context.Context, ctid int) error

	// HealthEndpoint returns the workload's HTTP health URL, or ok=false
	// when the workload exposes no network-reachable health signal and the
	// verify stage must be skipped.
	HealthEndpoint(cfg types.TargetConfig) (url string, ok bool)

	// ServiceUnit names the systemd unit whose journal is pulled for
	// diagnostics.
	ServiceUnit() string
}

// Backend is the upstream a proxy-style workload forwards to.
type Backend struct {
	IP   string
	Port int
}

// execChecked runs a command inside the container and converts a non-zero
// exit into an error carrying the exit code and output.
func execChecked(ctx context.Context, rt runtime.Client, ctid int, command string) error {
	res, err := rt.Exec(ctx, ctid, command)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("command exited %d: %s", res.ExitCode, res.Stdout)
	}
	return nil
}

// execOK runs a probing command and reports whether it exited zero.
func execOK(ctx context.Context, rt runtime.Client, ctid int, command string) (bool, error) {
	res, err := rt.Exec(ctx, ctid, command)
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

// serviceLogs pulls the recent journal of a unit for failure diagnostics.
// Best effort: an empty string means the journal itself was unreachable.
func serviceLogs(ctx context.Context, rt runtime.Client, ctid int, unit string) string {
	res, err := rt.Exec(ctx, ctid, fmt.Sprintf("journalctl -u %s -n 50 --no-pager", unit))
	if err != nil {
		return ""
	}
	return res.Stdout
}

// JournalDiagnostics returns a hook that pulls a unit's recent journal from
// inside the container. The health prober calls it after exhausting its
// attempt budget.
func JournalDiagnostics(rt runtime.Client, ctid int, unit string) func(ctx context.Context) string {
	return func(ctx context.Context) string {
		return serviceLogs(ctx, rt, ctid, unit)
	}
}

// installErr tags an installer failure with the taxonomy kind the
// orchestrator surfaces as-is.
func installErr(stage string, err error) error {
	return types.NewStageError(types.KindInstallFailed, stage, err)
}
