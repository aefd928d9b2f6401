package installer

import (
	"context"
	"fmt"

	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/runtime"
	"github.com/kilnhq/kiln/pkg/types"
)

const (
	vllmVenvPath  = "/opt/vllm-venv"
	vllmRepoPath  = "/opt/vllm"
	vllmRepoURL   = "https://github.com/vllm-project/vllm.git"
	vllmUnitPath  = "/etc/systemd/system/vllm.service"
	vllmPort      = 8000
	vllmAptDeps   = "git python3 python3-venv python3-pip"
	vllmPinnedSet = "vllm==0.5.4 torch==2.4.0 transformers==4.44.0"
)

// vllmBase carries what both vLLM variants share: the venv layout, the
// systemd unit, the service management, and the health endpoint. Only the
// way the vllm package lands in the venv differs.
type vllmBase struct {
	rt runtime.Client
}

func (v *vllmBase) ServiceUnit() string { return "vllm" }

// IsInstalled requires the venv's pip to report the vllm package. The venv
// directory existing is not enough: a half-finished install leaves the
// directory behind without the package.
func (v *vllmBase) IsInstalled(ctx context.Context, ctid int) (bool, error) {
	cmd := fmt.Sprintf("test -x %s/bin/pip && %s/bin/pip show vllm >/dev/null 2>&1", vllmVenvPath, vllmVenvPath)
	return execOK(ctx, v.rt, ctid, cmd)
}

// Configure writes the systemd unit that serves the model through the
// OpenAI-compatible API server.
func (v *vllmBase) Configure(ctx context.Context, ctid int, cfg types.TargetConfig) error {
	unit := fmt.Sprintf(`[Unit]
Description=vLLM inference server
After=network-online.target

[Service]
ExecStart=%s/bin/python -m vllm.entrypoints.openai.api_server --host 0.0.0.0 --port %d
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target`, vllmVenvPath, vllmPort)

	writeCmd := fmt.Sprintf("cat > %s <<'EOF'\n%s\nEOF", vllmUnitPath, unit)
	if err := execChecked(ctx, v.rt, ctid, writeCmd); err != nil {
		return installErr("configure", fmt.Errorf("writing vllm unit: %w", err))
	}
	return nil
}

// ManageService reloads systemd, enables and restarts the server, pulling
// the journal tail into the error on failure.
func (v *vllmBase) ManageService(ctx context.Context, ctid int) error {
	cmd := "systemctl daemon-reload && systemctl enable vllm && systemctl restart vllm"
	if err := execChecked(ctx, v.rt, ctid, cmd); err != nil {
		tail := serviceLogs(ctx, v.rt, ctid, v.ServiceUnit())
		return installErr("manage_service", fmt.Errorf("vllm restart: %w; recent logs:\n%s", err, tail))
	}
	return nil
}

// HealthEndpoint is the server's /health route on the inference port.
func (v *vllmBase) HealthEndpoint(cfg types.TargetConfig) (string, bool) {
	ip := targetIP(cfg)
	if ip == "" {
		return "", false
	}
	return fmt.Sprintf("http://%s:%d/health", ip, vllmPort), true
}

// VLLMSourceInstaller builds vLLM from its git checkout. Used for
// deployment targets that track unreleased fixes.
type VLLMSourceInstaller struct {
	vllmBase
}

// NewVLLMSourceInstaller creates the source-build variant.
func NewVLLMSourceInstaller(rt runtime.Client) *VLLMSourceInstaller {
	return &VLLMSourceInstaller{vllmBase{rt: rt}}
}

func (v *VLLMSourceInstaller) Name() string { return "vllm-source" }

// Install clones the repository and installs it editable into the venv.
func (v *VLLMSourceInstaller) Install(ctx context.Context, ctid int, cfg types.TargetConfig) error {
	logger := log.WithComponent("installer")
	logger.Info().Int("ctid", ctid).Msg("installing vllm from source")

	steps := []string{
		fmt.Sprintf("DEBIAN_FRONTEND=noninteractive apt-get update -qq && DEBIAN_FRONTEND=noninteractive apt-get install -y -qq %s", vllmAptDeps),
		fmt.Sprintf("test -d %s/.git || git clone %s %s", vllmRepoPath, vllmRepoURL, vllmRepoPath),
		fmt.Sprintf("python3 -m venv %s", vllmVenvPath),
		fmt.Sprintf("%s/bin/pip install --upgrade pip", vllmVenvPath),
		fmt.Sprintf("%s/bin/pip install -e %s", vllmVenvPath, vllmRepoPath),
	}
	for _, step := range steps {
		if err := execChecked(ctx, v.rt, ctid, step); err != nil {
			return installErr("install", fmt.Errorf("vllm source build: %w", err))
		}
	}
	return nil
}

// VLLMPackageInstaller installs vLLM from a pinned package manifest. Used
// for deployment targets that want reproducible, pre-built wheels.
type VLLMPackageInstaller struct {
	vllmBase
}

// NewVLLMPackageInstaller creates the pinned-manifest variant.
func NewVLLMPackageInstaller(rt runtime.Client) *VLLMPackageInstaller {
	return &VLLMPackageInstaller{vllmBase{rt: rt}}
}

func (v *VLLMPackageInstaller) Name() string { return "vllm-package" }

// Install creates the venv and installs the pinned wheel set.
func (v *VLLMPackageInstaller) Install(ctx context.Context, ctid int, cfg types.TargetConfig) error {
	logger := log.WithComponent("installer")
	logger.Info().Int("ctid", ctid).Msg("installing vllm from pinned packages")

	steps := []string{
		fmt.Sprintf("DEBIAN_FRONTEND=noninteractive apt-get update -qq && DEBIAN_FRONTEND=noninteractive apt-get install -y -qq %s", vllmAptDeps),
		fmt.Sprintf("python3 -m venv %s", vllmVenvPath),
		fmt.Sprintf("%s/bin/pip install --upgrade pip", vllmVenvPath),
		fmt.Sprintf("%s/bin/pip install %s", vllmVenvPath, vllmPinnedSet),
	}
	for _, step := range steps {
		if err := execChecked(ctx, v.rt, ctid, step); err != nil {
			return installErr("install", fmt.Errorf("vllm package install: %w", err))
		}
	}
	return nil
}
