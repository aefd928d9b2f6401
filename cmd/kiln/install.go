package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnhq/kiln/pkg/exitcode"
	"github.com/kilnhq/kiln/pkg/provision"
	"github.com/kilnhq/kiln/pkg/types"
)

var installCmd = &cobra.Command{
	Use:   "install CTID",
	Short: "Install and verify a workload on an existing target container",
	Long: `Install puts a workload on an already-cloned target: install packages,
write configuration, enable and restart the managed service, then probe its
health endpoint until it answers HTTP 200.

Re-running is safe: an already-installed workload is detected by its durable
marker and skipped.

Examples:
  kiln install 910 --config /etc/kiln/catalog.json --workload vllm-package
  kiln install 911 --config /etc/kiln/catalog.json --workload nginx \
    --backend-ip 10.0.0.110 --backend-port 8000`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runInstall(cmd, args))
	},
}

func init() {
	installCmd.Flags().String("config", "/etc/kiln/catalog.json", "Path to the target catalog")
	installCmd.Flags().String("workload", "", "Workload to install (nginx, vllm-source, vllm-package)")
	installCmd.Flags().String("backend-ip", "", "Backend IP for proxy workloads")
	installCmd.Flags().Int("backend-port", 0, "Backend port for proxy workloads")
	_ = installCmd.MarkFlagRequired("workload")
}

func runInstall(cmd *cobra.Command, args []string) int {
	beginRun("install")

	ctid, err := parseCTID(args[0])
	if err != nil {
		return exitcode.Finish("install", types.StateAbsent, err)
	}

	catalogPath, _ := cmd.Flags().GetString("config")
	cfg, err := resolveTarget(catalogPath, ctid)
	if err != nil {
		return exitcode.Finish("install", types.StateAbsent, err)
	}

	rt := runtimeClient()

	workload, _ := cmd.Flags().GetString("workload")
	backendIP, _ := cmd.Flags().GetString("backend-ip")
	backendPort, _ := cmd.Flags().GetInt("backend-port")
	inst, err := workloadInstaller(workload, backendIP, backendPort, rt)
	if err != nil {
		return exitcode.Finish("install", types.StateAbsent, err)
	}

	ctx, cancel := runContext()
	defer cancel()

	// No SourceRef: the install workflow operates on an existing container.
	state, err := provision.New(rt, cfg, types.SourceRef{}, provision.Options{
		Installer: inst,
		Prober:    healthProber(),
		Bridge:    settings.Bridge,
		StartWait: startWait(),
	}).Run(ctx)
	return exitcode.Finish("install", state, err)
}
