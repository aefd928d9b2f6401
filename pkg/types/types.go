package types

import "fmt"

// TargetConfig is the resolved, validated configuration for one target
// container. It is immutable once produced by the config resolver and is
// passed by value through the provisioning run.
type TargetConfig struct {
	CTID          int            `json:"ctid" yaml:"ctid" validate:"required,gt=0"`
	Name          string         `json:"name" yaml:"name" validate:"required,hostname_rfc1123"`
	MemoryMB      int            `json:"memory_mb" yaml:"memory_mb" validate:"required,gt=0"`
	Cores         int            `json:"cores" yaml:"cores" validate:"required,gt=0"`
	StoragePool   string         `json:"storage_pool" yaml:"storage_pool" validate:"required"`
	StorageSizeGB int            `json:"storage_size_gb,omitempty" yaml:"storage_size_gb,omitempty" validate:"omitempty,gt=0"`
	Features      []string       `json:"features,omitempty" yaml:"features,omitempty"`
	Unprivileged  bool           `json:"unprivileged,omitempty" yaml:"unprivileged,omitempty"`
	Network       *NetworkConfig `json:"network,omitempty" yaml:"network,omitempty"`
	MACAddress    string         `json:"mac_address,omitempty" yaml:"mac_address,omitempty" validate:"omitempty,mac"`

	// CloneFromCTID names the catalog entry this target inherits features
	// from. Zero means no parent.
	CloneFromCTID int `json:"clone_from_ctid,omitempty" yaml:"clone_from_ctid,omitempty" validate:"omitempty,gt=0"`
}

// NetworkConfig describes the target's network interface. It is applied as a
// separate post-clone step, never as part of the clone itself.
type NetworkConfig struct {
	IP      string `json:"ip" yaml:"ip" validate:"required,cidr"`
	Gateway string `json:"gateway" yaml:"gateway" validate:"required,ipv4"`
	IfName  string `json:"if_name" yaml:"if_name" validate:"required"`
}

// SourceRef identifies the template container and snapshot a clone is
// created from.
type SourceRef struct {
	SourceCTID   int
	SnapshotName string
}

// Validate checks the structural invariants a SourceRef must satisfy before
// it can be handed to the command builder.
func (s SourceRef) Validate() error {
	if s.SourceCTID <= 0 {
		return fmt.Errorf("source ctid must be positive, got %d", s.SourceCTID)
	}
	if s.SnapshotName == "" {
		return fmt.Errorf("snapshot name must not be empty")
	}
	return nil
}

// CloneSpec enumerates everything the runtime needs to clone a template
// snapshot into a new target and apply its compute settings. Network fields
// are deliberately absent: the clone copies the template's config verbatim
// and produces unreliable adapter results, so the interface is applied as a
// dedicated set-property step after the clone succeeds.
type CloneSpec struct {
	SourceCTID   int
	TargetCTID   int
	SnapshotName string
	Hostname     string
	MemoryMB     int
	Cores        int
	// Storage is "pool" or "pool:sizeGB".
	Storage  string
	Features []string
	// Unprivileged is the runtime's boolean representation: "1" or "0".
	Unprivileged string
}

// ProvisionState is the derived lifecycle position of a target. It is never
// persisted: every run recomputes it from runtime-observable facts, which is
// what makes the pipeline safe to re-run after a crash or manual abort.
type ProvisionState string

const (
	StateAbsent            ProvisionState = "absent"
	StateCloned            ProvisionState = "cloned"
	StateNetworkConfigured ProvisionState = "network_configured"
	StateWorkloadInstalled ProvisionState = "workload_installed"
	StateVerified          ProvisionState = "verified"
	StateSnapshotted       ProvisionState = "snapshotted"
)

// HealthCheckOutcome records a single probe attempt. It lives only for the
// duration of one prober invocation.
type HealthCheckOutcome struct {
	Attempt          int
	HTTPStatus       int // zero when the connection itself failed
	ConnectionFailed bool
}
