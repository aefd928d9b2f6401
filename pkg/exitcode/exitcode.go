package exitcode

import (
	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/metrics"
	"github.com/kilnhq/kiln/pkg/types"
)

// Exit codes, uniform across all workflows. This package is the only place
// an error kind becomes a process exit code.
const (
	OK                     = 0 // success or idempotent no-op
	Unclassified           = 1
	BadArgs                = 2 // invalid or missing arguments/config
	SourceNotFound         = 3 // source container or snapshot not found
	ActionFailed           = 4 // primary action (clone / install / snapshot) failed
	PostActionConfigFailed = 5
	WaitTimeout            = 6 // shutdown/start polling budget exceeded
)

// ForError maps an error's taxonomy kind to its exit code.
func ForError(err error) int {
	if err == nil {
		return OK
	}

	switch types.KindOf(err) {
	case types.KindConfigInvalid:
		return BadArgs
	case types.KindSourceNotFound:
		return SourceNotFound
	case types.KindCloneFailed, types.KindInstallFailed, types.KindSnapshotFailed, types.KindHealthCheckFailed:
		return ActionFailed
	case types.KindPostCloneConfigFailed:
		return PostActionConfigFailed
	case types.KindShutdownTimeout, types.KindStartTimeout:
		return WaitTimeout
	default:
		return Unclassified
	}
}

// Finish emits the single terminal log record for a run and returns the
// process exit code. Callers pass the result straight to os.Exit.
func Finish(workflow string, state types.ProvisionState, err error) int {
	code := ForError(err)
	logger := log.WithWorkflow(workflow)

	if err == nil {
		metrics.RunsTotal.WithLabelValues(workflow, "success").Inc()
		logger.Info().Str("state", string(state)).Int("exit_code", code).Msg("run complete")
		return code
	}

	metrics.RunsTotal.WithLabelValues(workflow, "failure").Inc()
	logger.Error().
		Err(err).
		Str("stage", types.StageOf(err)).
		Str("kind", string(types.KindOf(err))).
		Str("state", string(state)).
		Int("exit_code", code).
		Msg("run failed")
	return code
}
