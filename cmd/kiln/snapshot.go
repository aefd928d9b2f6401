package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnhq/kiln/pkg/exitcode"
	"github.com/kilnhq/kiln/pkg/provision"
	"github.com/kilnhq/kiln/pkg/types"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot CTID SNAPSHOT_NAME",
	Short: "Freeze a provisioned container as a reusable template snapshot",
	Long: `Snapshot shuts the target down cleanly, creates the named snapshot, and
starts the target again. If the snapshot already exists the workflow is a
no-op and exits 0 without touching the container.

Example:
  kiln snapshot 910 app1-v1`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runSnapshot(cmd, args))
	},
}

func runSnapshot(cmd *cobra.Command, args []string) int {
	beginRun("snapshot")

	ctid, err := parseCTID(args[0])
	if err != nil {
		return exitcode.Finish("snapshot", types.StateAbsent, err)
	}

	ctx, cancel := runContext()
	defer cancel()

	// The snapshot workflow needs only the target id; no catalog lookup.
	cfg := types.TargetConfig{CTID: ctid}

	state, err := provision.New(runtimeClient(), cfg, types.SourceRef{}, provision.Options{
		FinalSnapshot: args[1],
		ShutdownWait:  shutdownWait(),
		StartWait:     startWait(),
	}).Run(ctx)
	return exitcode.Finish("snapshot", state, err)
}
