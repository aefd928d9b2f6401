package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnhq/kiln/pkg/exitcode"
	"github.com/kilnhq/kiln/pkg/installer"
	"github.com/kilnhq/kiln/pkg/types"
)

var verifyCmd = &cobra.Command{
	Use:   "verify CTID",
	Short: "Probe a target's workload health endpoint",
	Long: `Verify probes the workload's health endpoint with the standard bounded
retry policy and exits 0 on the first HTTP 200. Useful as a standalone
responsiveness check after manual changes.

Examples:
  kiln verify 910 --config /etc/kiln/catalog.json --workload vllm-package
  kiln verify 910 --url http://10.0.0.110:8000/health`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runVerify(cmd, args))
	},
}

func init() {
	verifyCmd.Flags().String("config", "/etc/kiln/catalog.json", "Path to the target catalog")
	verifyCmd.Flags().String("workload", "", "Workload whose endpoint to probe")
	verifyCmd.Flags().String("url", "", "Probe this URL directly, bypassing the catalog")
	verifyCmd.Flags().String("backend-ip", "", "Backend IP for proxy workloads")
	verifyCmd.Flags().Int("backend-port", 0, "Backend port for proxy workloads")
}

func runVerify(cmd *cobra.Command, args []string) int {
	beginRun("verify")

	ctid, err := parseCTID(args[0])
	if err != nil {
		return exitcode.Finish("verify", types.StateAbsent, err)
	}

	url, _ := cmd.Flags().GetString("url")
	rt := runtimeClient()

	var unit string
	if url == "" {
		catalogPath, _ := cmd.Flags().GetString("config")
		cfg, err := resolveTarget(catalogPath, ctid)
		if err != nil {
			return exitcode.Finish("verify", types.StateAbsent, err)
		}

		workload, _ := cmd.Flags().GetString("workload")
		backendIP, _ := cmd.Flags().GetString("backend-ip")
		backendPort, _ := cmd.Flags().GetInt("backend-port")
		inst, err := workloadInstaller(workload, backendIP, backendPort, rt)
		if err != nil {
			return exitcode.Finish("verify", types.StateAbsent, err)
		}
		if inst == nil {
			err = types.NewStageError(types.KindConfigInvalid, "resolve",
				fmt.Errorf("verify needs either --url or --workload"))
			return exitcode.Finish("verify", types.StateAbsent, err)
		}

		endpoint, ok := inst.HealthEndpoint(cfg)
		if !ok {
			err = types.NewStageError(types.KindConfigInvalid, "resolve",
				fmt.Errorf("target %d has no network config, so no reachable endpoint", ctid))
			return exitcode.Finish("verify", types.StateAbsent, err)
		}
		url = endpoint
		unit = inst.ServiceUnit()
	}

	ctx, cancel := runContext()
	defer cancel()

	prober := healthProber()
	if unit != "" {
		prober.Diagnostics = installer.JournalDiagnostics(rt, ctid, unit)
	}

	err = prober.Probe(ctx, url)
	state := types.StateWorkloadInstalled
	if err == nil {
		state = types.StateVerified
	}
	return exitcode.Finish("verify", state, err)
}
