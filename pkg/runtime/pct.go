package runtime

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/types"
)

const (
	// DefaultBinary is the Proxmox container toolkit CLI.
	DefaultBinary = "pct"
)

// PCTClient implements Client by shelling out to the pct CLI on the
// hypervisor host.
type PCTClient struct {
	binary string
}

// NewPCTClient creates a pct-backed runtime client. An empty binary path
// selects the default.
func NewPCTClient(binary string) *PCTClient {
	if binary == "" {
		binary = DefaultBinary
	}
	return &PCTClient{binary: binary}
}

// run invokes pct with the given arguments and returns combined output. The
// returned exit code is -1 when the process could not be started at all.
func (c *PCTClient) run(ctx context.Context, args ...string) (string, int, error) {
	logger := log.WithComponent("runtime")
	logger.Debug().Strs("args", args).Msg("invoking pct")

	cmd := exec.CommandContext(ctx, c.binary, args...)
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output, exitErr.ExitCode(), fmt.Errorf("pct %s exited %d: %s", args[0], exitErr.ExitCode(), output)
		}
		return output, -1, fmt.Errorf("failed to run pct %s: %w", args[0], err)
	}

	return output, 0, nil
}

// Status reports container existence and running state via `pct status`.
func (c *PCTClient) Status(ctx context.Context, ctid int) (Status, error) {
	out, code, err := c.run(ctx, "status", strconv.Itoa(ctid))
	if err != nil {
		// pct reports a missing container with a non-zero exit and a
		// "does not exist" diagnostic; that is a valid answer, not an error.
		if code > 0 && strings.Contains(out, "does not exist") {
			return Status{Exists: false}, nil
		}
		return Status{}, err
	}

	return Status{Exists: true, Running: parseRunning(out)}, nil
}

// parseRunning extracts the running flag from `pct status` output, which has
// the form "status: running".
func parseRunning(out string) bool {
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if found && strings.TrimSpace(key) == "status" {
			return strings.TrimSpace(value) == "running"
		}
	}
	return false
}

// Clone creates the target from the template snapshot, then applies the
// spec's compute settings with a follow-up `pct set`. The two invocations
// are one logical operation from the orchestrator's point of view.
func (c *PCTClient) Clone(ctx context.Context, spec types.CloneSpec) error {
	if _, _, err := c.run(ctx, cloneArgs(spec)...); err != nil {
		return err
	}
	if args := setArgs(spec); len(args) > 2 {
		if _, _, err := c.run(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// cloneArgs builds the `pct clone` argument list for a spec.
func cloneArgs(spec types.CloneSpec) []string {
	args := []string{
		"clone", strconv.Itoa(spec.SourceCTID), strconv.Itoa(spec.TargetCTID),
		"--snapname", spec.SnapshotName,
		"--hostname", spec.Hostname,
		"--storage", spec.Storage,
		"--full",
	}
	return args
}

// setArgs builds the follow-up `pct set` argument list for a spec.
func setArgs(spec types.CloneSpec) []string {
	args := []string{"set", strconv.Itoa(spec.TargetCTID)}
	if spec.MemoryMB > 0 {
		args = append(args, "--memory", strconv.Itoa(spec.MemoryMB))
	}
	if spec.Cores > 0 {
		args = append(args, "--cores", strconv.Itoa(spec.Cores))
	}
	if len(spec.Features) > 0 {
		args = append(args, "--features", strings.Join(spec.Features, ","))
	}
	if spec.Unprivileged != "" {
		args = append(args, "--unprivileged", spec.Unprivileged)
	}
	return args
}

// SetProperty sets a single configuration property via `pct set`.
func (c *PCTClient) SetProperty(ctx context.Context, ctid int, key, value string) error {
	_, _, err := c.run(ctx, "set", strconv.Itoa(ctid), "--"+key, value)
	return err
}

// SnapshotList returns the snapshot names reported by `pct listsnapshot`.
func (c *PCTClient) SnapshotList(ctx context.Context, ctid int) (map[string]struct{}, error) {
	out, _, err := c.run(ctx, "listsnapshot", strconv.Itoa(ctid))
	if err != nil {
		return nil, err
	}
	return parseSnapshotList(out), nil
}

// parseSnapshotList extracts snapshot names from `pct listsnapshot` output.
// Each line looks like "`-> name 2024-01-01 12:00:00 description"; the
// synthetic "current" entry marks the live state, not a snapshot.
func parseSnapshotList(out string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimLeft(line, "`->= \t")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "current" {
			continue
		}
		names[fields[0]] = struct{}{}
	}
	return names
}

// SnapshotCreate creates a named snapshot via `pct snapshot`.
func (c *PCTClient) SnapshotCreate(ctx context.Context, ctid int, name string) error {
	_, _, err := c.run(ctx, "snapshot", strconv.Itoa(ctid), name)
	return err
}

// Shutdown requests a clean shutdown via `pct shutdown`.
func (c *PCTClient) Shutdown(ctx context.Context, ctid int) error {
	_, _, err := c.run(ctx, "shutdown", strconv.Itoa(ctid))
	return err
}

// Start starts the container via `pct start`.
func (c *PCTClient) Start(ctx context.Context, ctid int) error {
	_, _, err := c.run(ctx, "start", strconv.Itoa(ctid))
	return err
}

// Exec runs a shell command inside the container via `pct exec`. A non-zero
// exit of the inner command is reported through ExecResult, not as an error:
// installers routinely probe with commands that are expected to fail.
func (c *PCTClient) Exec(ctx context.Context, ctid int, command string) (ExecResult, error) {
	out, code, err := c.run(ctx, "exec", strconv.Itoa(ctid), "--", "bash", "-c", command)
	if err != nil {
		if code > 0 {
			return ExecResult{Stdout: out, ExitCode: code}, nil
		}
		return ExecResult{}, err
	}
	return ExecResult{Stdout: out, ExitCode: 0}, nil
}
