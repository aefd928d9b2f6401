package runtime

import (
	"context"

	"github.com/kilnhq/kiln/pkg/types"
)

// Status reports what the runtime knows about a container id.
type Status struct {
	Exists  bool
	Running bool
}

// ExecResult carries the output of a command executed inside a container.
type ExecResult struct {
	Stdout   string
	ExitCode int
}

// Client is the capability surface kiln consumes from the container
// runtime. Everything the orchestrator does goes through this interface, so
// tests can substitute a fake and the provisioning logic never shells out
// directly.
type Client interface {
	// Status reports whether a container exists and whether it is running.
	Status(ctx context.Context, ctid int) (Status, error)

	// Clone creates a new container from a template snapshot and applies
	// the spec's compute settings.
	Clone(ctx context.Context, spec types.CloneSpec) error

	// SetProperty sets a single configuration property on a container.
	SetProperty(ctx context.Context, ctid int, key, value string) error

	// SnapshotList returns the names of a container's snapshots.
	SnapshotList(ctx context.Context, ctid int) (map[string]struct{}, error)

	// SnapshotCreate creates a named snapshot of a container.
	SnapshotCreate(ctx context.Context, ctid int, name string) error

	// Shutdown requests a clean shutdown of a running container.
	Shutdown(ctx context.Context, ctid int) error

	// Start starts a stopped container.
	Start(ctx context.Context, ctid int) error

	// Exec runs a shell command inside a running container.
	Exec(ctx context.Context, ctid int, command string) (ExecResult, error)
}
