package installer

import (
	"fmt"

	"github.com/kilnhq/kiln/pkg/runtime"
)

// ForWorkload returns the installer variant for a workload name as given on
// the command line.
func ForWorkload(name string, rt runtime.Client, backend Backend) (Installer, error) {
	switch name {
	case "nginx":
		if backend.IP == "" || backend.Port == 0 {
			return nil, fmt.Errorf("workload nginx requires a backend ip and port")
		}
		return NewNginxInstaller(rt, backend), nil
	case "vllm-source":
		return NewVLLMSourceInstaller(rt), nil
	case "vllm-package":
		return NewVLLMPackageInstaller(rt), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown workload %q (want nginx, vllm-source, or vllm-package)", name)
	}
}
