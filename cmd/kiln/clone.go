package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnhq/kiln/pkg/config"
	"github.com/kilnhq/kiln/pkg/exitcode"
	"github.com/kilnhq/kiln/pkg/provision"
	"github.com/kilnhq/kiln/pkg/types"
)

var cloneCmd = &cobra.Command{
	Use:   "clone CTID SOURCE_CTID SNAPSHOT_NAME CONFIG_FILE [TARGET_JSON]",
	Short: "Clone a target container from a template snapshot and provision it",
	Long: `Clone creates a target container from a template snapshot, applies its
compute and network settings, optionally installs and verifies a workload,
and optionally freezes the result as a new snapshot.

The target's configuration comes from the catalog file, or from TARGET_JSON
when the caller has already extracted the target's block.

Examples:
  # Clone 910 from 902's docker-snapshot using the catalog
  kiln clone 910 902 docker-snapshot /etc/kiln/catalog.json

  # Same, but with the target block inlined and an nginx proxy workload
  kiln clone 910 902 docker-snapshot /etc/kiln/catalog.json '{...}' \
    --workload nginx --backend-ip 10.0.0.120 --backend-port 8000

  # Finalize as a reusable template afterwards
  kiln clone 910 902 docker-snapshot /etc/kiln/catalog.json --final-snapshot app1-v1`,
	Args: cobra.RangeArgs(4, 5),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runClone(cmd, args))
	},
}

func init() {
	cloneCmd.Flags().String("workload", "", "Workload to install (nginx, vllm-source, vllm-package)")
	cloneCmd.Flags().String("backend-ip", "", "Backend IP for proxy workloads")
	cloneCmd.Flags().Int("backend-port", 0, "Backend port for proxy workloads")
	cloneCmd.Flags().String("final-snapshot", "", "Freeze the provisioned target as this snapshot")
}

func runClone(cmd *cobra.Command, args []string) int {
	beginRun("clone")

	ctid, err := parseCTID(args[0])
	if err != nil {
		return exitcode.Finish("clone", types.StateAbsent, err)
	}
	sourceCTID, err := parseCTID(args[1])
	if err != nil {
		return exitcode.Finish("clone", types.StateAbsent, err)
	}
	src := types.SourceRef{SourceCTID: sourceCTID, SnapshotName: args[2]}

	var cfg types.TargetConfig
	if len(args) == 5 {
		cfg, err = config.NewResolver().ResolveBlock(args[4], ctid)
	} else {
		cfg, err = resolveTarget(args[3], ctid)
	}
	if err != nil {
		return exitcode.Finish("clone", types.StateAbsent, err)
	}

	rt := runtimeClient()

	workload, _ := cmd.Flags().GetString("workload")
	backendIP, _ := cmd.Flags().GetString("backend-ip")
	backendPort, _ := cmd.Flags().GetInt("backend-port")
	inst, err := workloadInstaller(workload, backendIP, backendPort, rt)
	if err != nil {
		return exitcode.Finish("clone", types.StateAbsent, err)
	}

	finalSnapshot, _ := cmd.Flags().GetString("final-snapshot")

	opts := provision.Options{
		Installer:     inst,
		Bridge:        settings.Bridge,
		FinalSnapshot: finalSnapshot,
		ShutdownWait:  shutdownWait(),
		StartWait:     startWait(),
	}
	if inst != nil {
		opts.Prober = healthProber()
	}

	ctx, cancel := runContext()
	defer cancel()

	state, err := provision.New(rt, cfg, src, opts).Run(ctx)
	return exitcode.Finish("clone", state, err)
}
