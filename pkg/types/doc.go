/*
Package types defines the core data structures used throughout kiln.

It contains the domain model shared by every other package: the resolved
target configuration, the clone source reference, the derived provisioning
state, and the transient health-check outcome.

All types are designed to be:
  - Serializable (JSON and YAML, matching the catalog schema)
  - Immutable after resolution (TargetConfig is passed by value)
  - Validated at the boundary (struct tags consumed by the config resolver)

ProvisionState deserves a note: it is recomputed from runtime-observable
facts on every run rather than stored anywhere. Container existence, the
interface property, the installed workload, and the snapshot list are the
only sources of truth, so an interrupted run can always be resumed by
invoking the same workflow again.
*/
package types
