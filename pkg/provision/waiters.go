package provision

import (
	"context"
	"fmt"

	"github.com/kilnhq/kiln/pkg/retry"
	"github.com/kilnhq/kiln/pkg/runtime"
	"github.com/kilnhq/kiln/pkg/types"
)

// waitForStopped polls the runtime until the container reports stopped,
// failing with ShutdownTimeout when the policy is exhausted.
func waitForStopped(ctx context.Context, rt runtime.Client, ctid int, stage string, policy retry.Policy) error {
	err := policy.Do(ctx, func(attempt int) (retry.Outcome, error) {
		status, err := rt.Status(ctx, ctid)
		if err != nil {
			return retry.Abort, err
		}
		if status.Exists && !status.Running {
			return retry.Done, nil
		}
		return retry.Again, fmt.Errorf("container %d still running after %d polls", ctid, attempt)
	})
	if err != nil {
		return types.NewStageError(types.KindShutdownTimeout, stage, err)
	}
	return nil
}

// waitForRunning polls the runtime until the container reports running,
// failing with StartTimeout when the policy is exhausted.
func waitForRunning(ctx context.Context, rt runtime.Client, ctid int, stage string, policy retry.Policy) error {
	err := policy.Do(ctx, func(attempt int) (retry.Outcome, error) {
		status, err := rt.Status(ctx, ctid)
		if err != nil {
			return retry.Abort, err
		}
		if status.Running {
			return retry.Done, nil
		}
		return retry.Again, fmt.Errorf("container %d not running after %d polls", ctid, attempt)
	})
	if err != nil {
		return types.NewStageError(types.KindStartTimeout, stage, err)
	}
	return nil
}
