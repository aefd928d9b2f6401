package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a terminal provisioning failure. Each kind maps to a
// stable process exit code in pkg/exitcode; nothing else in the codebase
// calls os.Exit.
type ErrorKind string

const (
	KindConfigInvalid         ErrorKind = "config_invalid"
	KindSourceNotFound        ErrorKind = "source_not_found"
	KindCloneFailed           ErrorKind = "clone_failed"
	KindPostCloneConfigFailed ErrorKind = "post_clone_config_failed"
	KindInstallFailed         ErrorKind = "install_failed"
	KindHealthCheckFailed     ErrorKind = "health_check_failed"
	KindShutdownTimeout       ErrorKind = "shutdown_timeout"
	KindStartTimeout          ErrorKind = "start_timeout"
	KindSnapshotFailed        ErrorKind = "snapshot_failed"
	KindUnclassified          ErrorKind = "unclassified"
)

// StageError is a provisioning failure tagged with its taxonomy kind and the
// stage that produced it. Stage failures are fatal to the run; there is no
// rollback, because the next invocation re-derives state and resumes at the
// first unmet postcondition.
type StageError struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

// NewStageError wraps err with a taxonomy kind and the failing stage name.
func NewStageError(kind ErrorKind, stage string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("stage %s failed (%s)", e.Stage, e.Kind)
	}
	return fmt.Sprintf("stage %s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf extracts the taxonomy kind from an error chain. Errors that carry
// no StageError are unclassified.
func KindOf(err error) ErrorKind {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind
	}
	return KindUnclassified
}

// StageOf extracts the failing stage name from an error chain, or "" when
// the error carries none.
func StageOf(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
