/*
Package provision implements kiln's idempotent provisioning state machine.

The orchestrator drives one target through clone, network configuration,
workload install, health verification, and optional template finalization.
Its idempotency policy applies at the start of every stage: before a stage's
side effect runs, the orchestrator queries the runtime for evidence the
stage's postcondition already holds and skips the stage if so. Stages
therefore commute with repeated invocation, and re-running the pipeline
after any partial failure resumes at the first unmet postcondition.

The command builders are pure functions from a resolved configuration to
structured operation parameters. Network fields never appear in the clone
spec: applying the interface is a deliberate second phase because the clone
copies the template's configuration verbatim.

All failures are fatal to the run and carry a taxonomy kind; pkg/exitcode
owns the mapping to process exit codes.
*/
package provision
