/*
Package runtime provides the container runtime client used by kiln.

The Client interface is the full capability surface the orchestrator needs:
status, clone, set-property, snapshot list/create, shutdown, start, and
exec-in-container. The production implementation shells out to the Proxmox
`pct` CLI; the runtime's own mechanics (how it creates, snapshots, or starts
containers) are outside kiln's scope.

Exec reports the inner command's exit code through ExecResult rather than as
an error, because installers use probing commands whose non-zero exit is an
answer, not a failure.
*/
package runtime
