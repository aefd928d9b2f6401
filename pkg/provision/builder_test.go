package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnhq/kiln/pkg/types"
)

func exampleTarget() types.TargetConfig {
	return types.TargetConfig{
		CTID:         910,
		Name:         "app1",
		MemoryMB:     4096,
		Cores:        2,
		StoragePool:  "local-zfs",
		Unprivileged: true,
		Features:     []string{},
		Network: &types.NetworkConfig{
			IP:      "10.0.0.110/24",
			Gateway: "10.0.0.1",
			IfName:  "eth0",
		},
	}
}

func exampleSource() types.SourceRef {
	return types.SourceRef{SourceCTID: 902, SnapshotName: "docker-snapshot"}
}

func TestBuildCloneSpec_Example(t *testing.T) {
	spec, err := BuildCloneSpec(exampleTarget(), exampleSource())
	require.NoError(t, err)

	assert.Equal(t, 902, spec.SourceCTID)
	assert.Equal(t, 910, spec.TargetCTID)
	assert.Equal(t, "docker-snapshot", spec.SnapshotName)
	assert.Equal(t, "app1", spec.Hostname)
	assert.Equal(t, 4096, spec.MemoryMB)
	assert.Equal(t, 2, spec.Cores)
	assert.Equal(t, "local-zfs", spec.Storage)
	assert.Equal(t, "1", spec.Unprivileged)
}

func TestBuildCloneSpec_Deterministic(t *testing.T) {
	cfg, src := exampleTarget(), exampleSource()

	first, err := BuildCloneSpec(cfg, src)
	require.NoError(t, err)
	second, err := BuildCloneSpec(cfg, src)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildCloneSpec_PrivilegedMapsToZero(t *testing.T) {
	cfg := exampleTarget()
	cfg.Unprivileged = false

	spec, err := BuildCloneSpec(cfg, exampleSource())
	require.NoError(t, err)
	assert.Equal(t, "0", spec.Unprivileged)
}

func TestBuildCloneSpec_StorageWithSize(t *testing.T) {
	cfg := exampleTarget()
	cfg.StorageSizeGB = 32

	spec, err := BuildCloneSpec(cfg, exampleSource())
	require.NoError(t, err)
	assert.Equal(t, "local-zfs:32", spec.Storage)
}

func TestBuildCloneSpec_ExcludesNetwork(t *testing.T) {
	// CloneSpec carries no network fields at all; the interface is applied
	// by a dedicated post-clone step.
	spec, err := BuildCloneSpec(exampleTarget(), exampleSource())
	require.NoError(t, err)

	assert.NotContains(t, spec.Storage, "10.0.0.110")
	assert.NotContains(t, spec.Hostname, "eth0")
}

func TestBuildCloneSpec_SameCTIDRejected(t *testing.T) {
	cfg := exampleTarget()
	cfg.CTID = 902

	_, err := BuildCloneSpec(cfg, exampleSource())
	assert.Error(t, err)
}

func TestBuildCloneSpec_InvalidSourceRejected(t *testing.T) {
	_, err := BuildCloneSpec(exampleTarget(), types.SourceRef{SourceCTID: 902})
	assert.Error(t, err, "empty snapshot name must be rejected")

	_, err = BuildCloneSpec(exampleTarget(), types.SourceRef{SnapshotName: "s"})
	assert.Error(t, err, "non-positive source ctid must be rejected")
}

func TestBuildInterfaceProperty(t *testing.T) {
	net := types.NetworkConfig{IP: "10.0.0.110/24", Gateway: "10.0.0.1", IfName: "eth0"}

	assert.Equal(t,
		"name=eth0,bridge=vmbr0,ip=10.0.0.110/24,gw=10.0.0.1",
		BuildInterfaceProperty(net, "vmbr0", ""))

	assert.Equal(t,
		"name=eth0,bridge=vmbr0,ip=10.0.0.110/24,gw=10.0.0.1,hwaddr=BC:24:11:2A:61:0F",
		BuildInterfaceProperty(net, "vmbr0", "BC:24:11:2A:61:0F"))
}
