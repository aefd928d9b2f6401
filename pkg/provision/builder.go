package provision

import (
	"fmt"

	"github.com/kilnhq/kiln/pkg/types"
)

// BuildCloneSpec translates a resolved target configuration and a source
// reference into the exact clone operation parameters. Pure: no side
// effects, and the result is deterministic for a given input.
//
// Network fields are deliberately excluded. The clone copies the template's
// config verbatim and yields unreliable adapter results, so the interface
// is applied by a dedicated set-property step after the clone succeeds.
func BuildCloneSpec(cfg types.TargetConfig, src types.SourceRef) (types.CloneSpec, error) {
	if err := src.Validate(); err != nil {
		return types.CloneSpec{}, err
	}
	if cfg.CTID == src.SourceCTID {
		return types.CloneSpec{}, fmt.Errorf("target ctid %d must differ from source ctid", cfg.CTID)
	}

	storage := cfg.StoragePool
	if cfg.StorageSizeGB > 0 {
		storage = fmt.Sprintf("%s:%d", cfg.StoragePool, cfg.StorageSizeGB)
	}

	unprivileged := "0"
	if cfg.Unprivileged {
		unprivileged = "1"
	}

	return types.CloneSpec{
		SourceCTID:   src.SourceCTID,
		TargetCTID:   cfg.CTID,
		SnapshotName: src.SnapshotName,
		Hostname:     cfg.Name,
		MemoryMB:     cfg.MemoryMB,
		Cores:        cfg.Cores,
		Storage:      storage,
		Features:     cfg.Features,
		Unprivileged: unprivileged,
	}, nil
}

// BuildInterfaceProperty renders the runtime's interface string for the
// post-clone network step: "name=<if>,bridge=<bridge>,ip=<cidr>,gw=<gw>"
// plus ",hwaddr=<mac>" when a MAC is pinned.
func BuildInterfaceProperty(net types.NetworkConfig, bridge, mac string) string {
	prop := fmt.Sprintf("name=%s,bridge=%s,ip=%s,gw=%s", net.IfName, bridge, net.IP, net.Gateway)
	if mac != "" {
		prop += ",hwaddr=" + mac
	}
	return prop
}
