package exitcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/types"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

func TestForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil is success", err: nil, want: OK},
		{name: "plain error is unclassified", err: errors.New("boom"), want: Unclassified},
		{name: "config invalid", err: types.NewStageError(types.KindConfigInvalid, "resolve", nil), want: BadArgs},
		{name: "source not found", err: types.NewStageError(types.KindSourceNotFound, "clone", nil), want: SourceNotFound},
		{name: "clone failed", err: types.NewStageError(types.KindCloneFailed, "clone", nil), want: ActionFailed},
		{name: "install failed", err: types.NewStageError(types.KindInstallFailed, "install", nil), want: ActionFailed},
		{name: "snapshot failed", err: types.NewStageError(types.KindSnapshotFailed, "finalize", nil), want: ActionFailed},
		{name: "health check failed", err: types.NewStageError(types.KindHealthCheckFailed, "verify", nil), want: ActionFailed},
		{name: "post clone config failed", err: types.NewStageError(types.KindPostCloneConfigFailed, "network", nil), want: PostActionConfigFailed},
		{name: "shutdown timeout", err: types.NewStageError(types.KindShutdownTimeout, "finalize", nil), want: WaitTimeout},
		{name: "start timeout", err: types.NewStageError(types.KindStartTimeout, "start", nil), want: WaitTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForError(tt.err))
		})
	}
}

func TestForError_WrappedStageError(t *testing.T) {
	inner := types.NewStageError(types.KindSourceNotFound, "clone", errors.New("missing"))
	wrapped := errors.Join(errors.New("context"), inner)

	assert.Equal(t, SourceNotFound, ForError(wrapped))
}

func TestFinish(t *testing.T) {
	assert.Equal(t, OK, Finish("clone", types.StateVerified, nil))

	err := types.NewStageError(types.KindCloneFailed, "clone", errors.New("pct exited 255"))
	assert.Equal(t, ActionFailed, Finish("clone", types.StateAbsent, err))
}
