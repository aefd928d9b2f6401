package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := NewStageError(KindCloneFailed, "clone", errors.New("pct exited 255"))

	assert.Equal(t, KindCloneFailed, KindOf(err))
	assert.Equal(t, "clone", StageOf(err))
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := NewStageError(KindSourceNotFound, "clone", errors.New("missing"))
	wrapped := fmt.Errorf("while provisioning: %w", inner)

	assert.Equal(t, KindSourceNotFound, KindOf(wrapped))
	assert.Equal(t, "clone", StageOf(wrapped))
}

func TestKindOf_Plain(t *testing.T) {
	assert.Equal(t, KindUnclassified, KindOf(errors.New("boom")))
	assert.Equal(t, "", StageOf(errors.New("boom")))
}

func TestSourceRefValidate(t *testing.T) {
	assert.NoError(t, SourceRef{SourceCTID: 902, SnapshotName: "s"}.Validate())
	assert.Error(t, SourceRef{SourceCTID: 0, SnapshotName: "s"}.Validate())
	assert.Error(t, SourceRef{SourceCTID: 902}.Validate())
}
