package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kilnhq/kiln/pkg/health"
	"github.com/kilnhq/kiln/pkg/installer"
	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/metrics"
	"github.com/kilnhq/kiln/pkg/retry"
	"github.com/kilnhq/kiln/pkg/runtime"
	"github.com/kilnhq/kiln/pkg/types"
)

// Options selects which stages a run performs and how its waits are
// bounded. Workflows differ only in their options: the clone workflow sets
// a source and usually an installer, the install workflow sets only an
// installer, the snapshot workflow sets only a final snapshot name.
type Options struct {
	// Installer is the workload step; nil skips install and verify.
	Installer installer.Installer

	// Prober gates success on the workload's health endpoint; nil skips
	// verification.
	Prober *health.Prober

	// Bridge is the host bridge used when applying the network config.
	Bridge string

	// FinalSnapshot, when non-empty, enables template finalization:
	// shutdown, snapshot, restart.
	FinalSnapshot string

	// ShutdownWait and StartWait bound the status polling loops.
	ShutdownWait retry.Policy
	StartWait    retry.Policy
}

// Orchestrator drives one target through the provisioning lifecycle. It
// holds no state beyond the run's inputs: the lifecycle position is derived
// from the runtime before every stage, which makes a run safely re-entrant
// after a crash or manual rerun.
type Orchestrator struct {
	rt     runtime.Client
	cfg    types.TargetConfig
	src    types.SourceRef
	opts   Options
	logger zerolog.Logger
}

// New creates an orchestrator for one target.
func New(rt runtime.Client, cfg types.TargetConfig, src types.SourceRef, opts Options) *Orchestrator {
	return &Orchestrator{
		rt:     rt,
		cfg:    cfg,
		src:    src,
		opts:   opts,
		logger: log.WithCTID(cfg.CTID),
	}
}

// stage is one step of the lifecycle. done probes whether the stage's
// postcondition already holds; a nil done means the postcondition is not
// observable through the runtime surface and run must itself be idempotent.
type stage struct {
	name    string
	reaches types.ProvisionState
	enabled bool
	done    func(ctx context.Context) (bool, error)
	run     func(ctx context.Context) error
}

// Run executes the lifecycle and returns the terminal state. Every stage
// failure is fatal: there is no rollback, because the next invocation
// resumes at the first unmet postcondition.
func (o *Orchestrator) Run(ctx context.Context) (types.ProvisionState, error) {
	state, err := o.DeriveState(ctx)
	if err != nil {
		return types.StateAbsent, classify(err, "derive")
	}
	o.logger.Info().Str("state", string(state)).Msg("derived current provisioning state")

	complete, err := o.completionMarker(ctx)
	if err != nil {
		return state, classify(err, "derive")
	}
	if complete {
		o.logger.Info().Msg("completion marker present, nothing to do")
		return state, nil
	}

	// Workflows without a clone source operate on an existing container.
	if o.src.SourceCTID == 0 && state == types.StateAbsent {
		return state, classify(fmt.Errorf("target container %d does not exist", o.cfg.CTID), "derive")
	}

	for _, st := range o.stages() {
		if !st.enabled {
			continue
		}

		if st.done != nil {
			ok, err := st.done(ctx)
			if err != nil {
				return state, classify(err, st.name)
			}
			if ok {
				metrics.StageSkipsTotal.WithLabelValues(st.name).Inc()
				o.logger.Info().Str("stage", st.name).Msg("postcondition already holds, skipping")
				state = advance(state, st.reaches)
				continue
			}
		}

		o.logger.Info().Str("stage", st.name).Msg("running stage")
		timer := metrics.NewTimer()
		err := st.run(ctx)
		timer.ObserveDuration(metrics.StageDuration.WithLabelValues(st.name))
		if err != nil {
			err = classify(err, st.name)
			metrics.StageFailuresTotal.WithLabelValues(st.name, string(types.KindOf(err))).Inc()
			return state, err
		}

		// Re-validate before advancing.
		if st.done != nil {
			ok, err := st.done(ctx)
			if err != nil {
				return state, classify(err, st.name)
			}
			if !ok {
				return state, classify(fmt.Errorf("postcondition still unmet after stage ran"), st.name)
			}
		}

		state = advance(state, st.reaches)
		o.logger.Info().Str("stage", st.name).Str("state", string(state)).Msg("stage complete")
	}

	return state, nil
}

// advance enforces the forward-only invariant: within one run the derived
// state never regresses.
func advance(current, next types.ProvisionState) types.ProvisionState {
	if stateRank(next) > stateRank(current) {
		return next
	}
	return current
}

func stateRank(s types.ProvisionState) int {
	switch s {
	case types.StateAbsent:
		return 0
	case types.StateCloned:
		return 1
	case types.StateNetworkConfigured:
		return 2
	case types.StateWorkloadInstalled:
		return 3
	case types.StateVerified:
		return 4
	case types.StateSnapshotted:
		return 5
	}
	return -1
}

// stages builds the run's stage table from the options.
func (o *Orchestrator) stages() []stage {
	needsRunning := o.opts.Installer != nil || o.opts.Prober != nil

	return []stage{
		{
			name:    "clone",
			reaches: types.StateCloned,
			enabled: o.src.SourceCTID > 0,
			done:    o.targetExists,
			run:     o.runClone,
		},
		{
			name:    "network",
			reaches: types.StateNetworkConfigured,
			enabled: o.cfg.Network != nil,
			// The applied interface string is not observable through the
			// runtime surface; re-applying the identical value is a no-op.
			done: nil,
			run:  o.runNetwork,
		},
		{
			name:    "start",
			reaches: types.StateCloned,
			enabled: needsRunning,
			done:    o.targetRunning,
			run:     o.runStart,
		},
		{
			name:    "install",
			reaches: types.StateWorkloadInstalled,
			enabled: o.opts.Installer != nil,
			done:    o.workloadInstalled,
			run:     o.runInstall,
		},
		{
			name:    "verify",
			reaches: types.StateVerified,
			enabled: o.opts.Installer != nil && o.opts.Prober != nil,
			done:    nil,
			run:     o.runVerify,
		},
		{
			name:    "finalize",
			reaches: types.StateSnapshotted,
			enabled: o.opts.FinalSnapshot != "",
			done:    o.finalSnapshotExists,
			run:     o.runFinalize,
		},
	}
}

// DeriveState recomputes the target's lifecycle position from
// runtime-observable facts. Network configuration and verification leave no
// durable marker, so they never appear in the derived state.
func (o *Orchestrator) DeriveState(ctx context.Context) (types.ProvisionState, error) {
	status, err := o.rt.Status(ctx, o.cfg.CTID)
	if err != nil {
		return types.StateAbsent, err
	}
	if !status.Exists {
		return types.StateAbsent, nil
	}

	if o.opts.FinalSnapshot != "" {
		if ok, err := o.finalSnapshotExists(ctx); err != nil {
			return types.StateCloned, err
		} else if ok {
			return types.StateSnapshotted, nil
		}
	}

	if o.opts.Installer != nil {
		if ok, err := o.workloadInstalled(ctx); err != nil {
			return types.StateCloned, err
		} else if ok {
			return types.StateWorkloadInstalled, nil
		}
	}

	return types.StateCloned, nil
}

// completionMarker reports whether the run's expected end state already
// holds, allowing the whole run to short-circuit without side effects. A
// run with neither a final snapshot nor a workload has no durable marker
// and relies on per-stage skipping instead.
func (o *Orchestrator) completionMarker(ctx context.Context) (bool, error) {
	status, err := o.rt.Status(ctx, o.cfg.CTID)
	if err != nil || !status.Exists {
		return false, err
	}

	switch {
	case o.opts.FinalSnapshot != "":
		return o.finalSnapshotExists(ctx)
	case o.opts.Installer != nil:
		return o.workloadInstalled(ctx)
	default:
		return false, nil
	}
}

func (o *Orchestrator) targetExists(ctx context.Context) (bool, error) {
	status, err := o.rt.Status(ctx, o.cfg.CTID)
	return status.Exists, err
}

func (o *Orchestrator) targetRunning(ctx context.Context) (bool, error) {
	status, err := o.rt.Status(ctx, o.cfg.CTID)
	return status.Exists && status.Running, err
}

func (o *Orchestrator) workloadInstalled(ctx context.Context) (bool, error) {
	return o.opts.Installer.IsInstalled(ctx, o.cfg.CTID)
}

func (o *Orchestrator) finalSnapshotExists(ctx context.Context) (bool, error) {
	snapshots, err := o.rt.SnapshotList(ctx, o.cfg.CTID)
	if err != nil {
		return false, err
	}
	_, ok := snapshots[o.opts.FinalSnapshot]
	return ok, nil
}

// runClone verifies the source template and its snapshot exist, then clones.
func (o *Orchestrator) runClone(ctx context.Context) error {
	srcStatus, err := o.rt.Status(ctx, o.src.SourceCTID)
	if err != nil {
		return err
	}
	if !srcStatus.Exists {
		return types.NewStageError(types.KindSourceNotFound, "clone",
			fmt.Errorf("source container %d does not exist", o.src.SourceCTID))
	}

	snapshots, err := o.rt.SnapshotList(ctx, o.src.SourceCTID)
	if err != nil {
		return err
	}
	if _, ok := snapshots[o.src.SnapshotName]; !ok {
		return types.NewStageError(types.KindSourceNotFound, "clone",
			fmt.Errorf("source %d has no snapshot %q", o.src.SourceCTID, o.src.SnapshotName))
	}

	spec, err := BuildCloneSpec(o.cfg, o.src)
	if err != nil {
		return types.NewStageError(types.KindConfigInvalid, "clone", err)
	}

	if err := o.rt.Clone(ctx, spec); err != nil {
		return types.NewStageError(types.KindCloneFailed, "clone", err)
	}
	return nil
}

// runNetwork applies the interface string as the dedicated post-clone step.
func (o *Orchestrator) runNetwork(ctx context.Context) error {
	prop := BuildInterfaceProperty(*o.cfg.Network, o.opts.Bridge, o.cfg.MACAddress)
	if err := o.rt.SetProperty(ctx, o.cfg.CTID, "net0", prop); err != nil {
		return types.NewStageError(types.KindPostCloneConfigFailed, "network", err)
	}
	return nil
}

// runStart brings the target up so later stages can exec and probe it.
func (o *Orchestrator) runStart(ctx context.Context) error {
	if err := o.rt.Start(ctx, o.cfg.CTID); err != nil {
		return err
	}
	return waitForRunning(ctx, o.rt, o.cfg.CTID, "start", o.opts.StartWait)
}

// runInstall delegates to the workload installer. Installer failures carry
// their own classification and are surfaced as-is.
func (o *Orchestrator) runInstall(ctx context.Context) error {
	inst := o.opts.Installer

	if err := inst.Install(ctx, o.cfg.CTID, o.cfg); err != nil {
		return err
	}
	if err := inst.Configure(ctx, o.cfg.CTID, o.cfg); err != nil {
		return err
	}
	return inst.ManageService(ctx, o.cfg.CTID)
}

// runVerify probes the workload's health endpoint. Workloads without a
// network-reachable signal skip verification.
func (o *Orchestrator) runVerify(ctx context.Context) error {
	url, ok := o.opts.Installer.HealthEndpoint(o.cfg)
	if !ok {
		o.logger.Info().Msg("workload exposes no health endpoint, skipping verification")
		return nil
	}

	prober := o.opts.Prober
	if prober.Diagnostics == nil {
		prober.Diagnostics = installer.JournalDiagnostics(o.rt, o.cfg.CTID, o.opts.Installer.ServiceUnit())
	}
	return prober.Probe(ctx, url)
}

// runFinalize freezes the target as a reusable template snapshot: clean
// shutdown, snapshot, restart.
func (o *Orchestrator) runFinalize(ctx context.Context) error {
	status, err := o.rt.Status(ctx, o.cfg.CTID)
	if err != nil {
		return err
	}

	if status.Running {
		if err := o.rt.Shutdown(ctx, o.cfg.CTID); err != nil {
			return err
		}
		if err := waitForStopped(ctx, o.rt, o.cfg.CTID, "finalize", o.opts.ShutdownWait); err != nil {
			return err
		}
	}

	if err := o.rt.SnapshotCreate(ctx, o.cfg.CTID, o.opts.FinalSnapshot); err != nil {
		return types.NewStageError(types.KindSnapshotFailed, "finalize", err)
	}

	if err := o.rt.Start(ctx, o.cfg.CTID); err != nil {
		return err
	}
	return waitForRunning(ctx, o.rt, o.cfg.CTID, "finalize", o.opts.StartWait)
}

// classify ensures every error leaving the orchestrator carries a taxonomy
// kind and the failing stage.
func classify(err error, stage string) error {
	var stageErr *types.StageError
	if errors.As(err, &stageErr) {
		return err
	}
	return types.NewStageError(types.KindUnclassified, stage, err)
}
