package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnhq/kiln/pkg/types"
)

const catalogJSON = `{
  "targets": {
    "902": {
      "ctid": 902,
      "name": "docker-base",
      "memory_mb": 2048,
      "cores": 2,
      "storage_pool": "local-zfs",
      "features": ["nesting=1"]
    },
    "910": {
      "ctid": 910,
      "name": "app1",
      "memory_mb": 4096,
      "cores": 2,
      "storage_pool": "local-zfs",
      "unprivileged": true,
      "clone_from_ctid": 902,
      "features": ["keyctl=1"],
      "network": {
        "ip": "10.0.0.110/24",
        "gateway": "10.0.0.1",
        "if_name": "eth0"
      }
    }
  }
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog_JSON(t *testing.T) {
	catalog, err := LoadCatalog(writeTemp(t, "catalog.json", catalogJSON))
	require.NoError(t, err)
	assert.Len(t, catalog.Targets, 2)
}

func TestLoadCatalog_YAML(t *testing.T) {
	yamlCatalog := `targets:
  "910":
    ctid: 910
    name: app1
    memory_mb: 4096
    cores: 2
    storage_pool: local-zfs
`
	catalog, err := LoadCatalog(writeTemp(t, "catalog.yaml", yamlCatalog))
	require.NoError(t, err)

	cfg, err := NewResolver().Resolve(catalog, 910)
	require.NoError(t, err)
	assert.Equal(t, "app1", cfg.Name)
	assert.Equal(t, 4096, cfg.MemoryMB)
}

func TestLoadCatalog_MissingTargetsSection(t *testing.T) {
	_, err := LoadCatalog(writeTemp(t, "catalog.json", `{}`))
	assert.Error(t, err)
}

func TestResolve_Valid(t *testing.T) {
	catalog, err := LoadCatalog(writeTemp(t, "catalog.json", catalogJSON))
	require.NoError(t, err)

	cfg, err := NewResolver().Resolve(catalog, 910)
	require.NoError(t, err)

	assert.Equal(t, 910, cfg.CTID)
	assert.Equal(t, "app1", cfg.Name)
	assert.True(t, cfg.Unprivileged)
	require.NotNil(t, cfg.Network)
	assert.Equal(t, "10.0.0.110/24", cfg.Network.IP)

	// Features are the sorted union of the clone-parent chain.
	assert.Equal(t, []string{"keyctl=1", "nesting=1"}, cfg.Features)
}

func TestResolve_UnknownCTID(t *testing.T) {
	catalog, err := LoadCatalog(writeTemp(t, "catalog.json", catalogJSON))
	require.NoError(t, err)

	_, err = NewResolver().Resolve(catalog, 999)
	require.Error(t, err)
	assert.Equal(t, types.KindConfigInvalid, types.KindOf(err))
}

func TestResolveBlock_Valid(t *testing.T) {
	block := `{"ctid": 910, "name": "app1", "memory_mb": 4096, "cores": 2,
		"storage_pool": "local-zfs", "unprivileged": true}`

	cfg, err := NewResolver().ResolveBlock(block, 910)
	require.NoError(t, err)
	assert.Equal(t, "app1", cfg.Name)
	assert.Empty(t, cfg.Features, "features default to empty")
	assert.NotNil(t, cfg.Features)
}

func TestResolveBlock_ZeroMemoryRejected(t *testing.T) {
	block := `{"ctid": 910, "name": "app1", "memory_mb": 0, "cores": 2,
		"storage_pool": "local-zfs"}`

	_, err := NewResolver().ResolveBlock(block, 910)
	require.Error(t, err)
	assert.Equal(t, types.KindConfigInvalid, types.KindOf(err))
	assert.Contains(t, err.Error(), "memory_mb")
}

func TestResolveBlock_MalformedCIDRRejected(t *testing.T) {
	block := `{"ctid": 910, "name": "app1", "memory_mb": 4096, "cores": 2,
		"storage_pool": "local-zfs",
		"network": {"ip": "10.0.0.110", "gateway": "10.0.0.1", "if_name": "eth0"}}`

	_, err := NewResolver().ResolveBlock(block, 910)
	require.Error(t, err)
	assert.Equal(t, types.KindConfigInvalid, types.KindOf(err))
	assert.Contains(t, err.Error(), "ip")
}

func TestResolveBlock_MalformedGatewayRejected(t *testing.T) {
	block := `{"ctid": 910, "name": "app1", "memory_mb": 4096, "cores": 2,
		"storage_pool": "local-zfs",
		"network": {"ip": "10.0.0.110/24", "gateway": "not-an-ip", "if_name": "eth0"}}`

	_, err := NewResolver().ResolveBlock(block, 910)
	require.Error(t, err)
	assert.Equal(t, types.KindConfigInvalid, types.KindOf(err))
}

func TestResolveBlock_CTIDMismatch(t *testing.T) {
	block := `{"ctid": 911, "name": "app1", "memory_mb": 4096, "cores": 2,
		"storage_pool": "local-zfs"}`

	_, err := NewResolver().ResolveBlock(block, 910)
	require.Error(t, err)
	assert.Equal(t, types.KindConfigInvalid, types.KindOf(err))
}

func TestResolveBlock_BadJSON(t *testing.T) {
	_, err := NewResolver().ResolveBlock(`{not json`, 910)
	require.Error(t, err)
	assert.Equal(t, types.KindConfigInvalid, types.KindOf(err))
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, "pct", s.RuntimeBinary)
	assert.Equal(t, "vmbr0", s.Bridge)
	assert.Equal(t, 12, s.HealthMaxAttempts)
	assert.Equal(t, "10s", s.HealthInterval.String())
}

func TestLoadSettings_FileOverrides(t *testing.T) {
	path := writeTemp(t, "kiln.yaml", "health:\n  max_attempts: 3\n  interval: 1s\n")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, 3, s.HealthMaxAttempts)
	assert.Equal(t, "1s", s.HealthInterval.String())
	assert.Equal(t, "vmbr0", s.Bridge, "untouched keys keep defaults")
}
