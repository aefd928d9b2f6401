package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/runtime"
	"github.com/kilnhq/kiln/pkg/types"
)

const (
	nginxSiteName    = "kiln-proxy"
	nginxSitePath    = "/etc/nginx/sites-available/" + nginxSiteName
	nginxEnabledPath = "/etc/nginx/sites-enabled/" + nginxSiteName
	nginxDefaultLink = "/etc/nginx/sites-enabled/default"
)

// NginxInstaller provisions an nginx reverse proxy in front of a backend
// service.
type NginxInstaller struct {
	rt      runtime.Client
	backend Backend
}

// NewNginxInstaller creates the reverse-proxy installer.
func NewNginxInstaller(rt runtime.Client, backend Backend) *NginxInstaller {
	return &NginxInstaller{rt: rt, backend: backend}
}

func (n *NginxInstaller) Name() string        { return "nginx" }
func (n *NginxInstaller) ServiceUnit() string { return "nginx" }

// IsInstalled requires both the installed package and the binary path. A
// leftover config directory alone must not skip the install stage.
func (n *NginxInstaller) IsInstalled(ctx context.Context, ctid int) (bool, error) {
	return execOK(ctx, n.rt, ctid, "dpkg -s nginx >/dev/null 2>&1 && test -x /usr/sbin/nginx")
}

// Install puts nginx in place via the distribution package manager.
func (n *NginxInstaller) Install(ctx context.Context, ctid int, cfg types.TargetConfig) error {
	logger := log.WithComponent("installer")
	logger.Info().Int("ctid", ctid).Msg("installing nginx")

	cmd := "DEBIAN_FRONTEND=noninteractive apt-get update -qq && " +
		"DEBIAN_FRONTEND=noninteractive apt-get install -y -qq nginx"
	if err := execChecked(ctx, n.rt, ctid, cmd); err != nil {
		return installErr("install", fmt.Errorf("nginx install: %w", err))
	}
	return nil
}

// Configure writes the reverse-proxy server block and removes the
// distribution default site that would otherwise shadow it.
func (n *NginxInstaller) Configure(ctx context.Context, ctid int, cfg types.TargetConfig) error {
	block := n.serverBlock()

	writeCmd := fmt.Sprintf("cat > %s <<'EOF'\n%s\nEOF", nginxSitePath, block)
	if err := execChecked(ctx, n.rt, ctid, writeCmd); err != nil {
		return installErr("configure", fmt.Errorf("writing server block: %w", err))
	}

	enableCmd := fmt.Sprintf("ln -sf %s %s && rm -f %s", nginxSitePath, nginxEnabledPath, nginxDefaultLink)
	if err := execChecked(ctx, n.rt, ctid, enableCmd); err != nil {
		return installErr("configure", fmt.Errorf("enabling server block: %w", err))
	}

	return nil
}

// serverBlock renders the declarative proxy configuration for the backend.
func (n *NginxInstaller) serverBlock() string {
	var b strings.Builder
	b.WriteString("server {\n")
	b.WriteString("    listen 80 default_server;\n")
	b.WriteString("    listen [::]:80 default_server;\n\n")
	b.WriteString("    location / {\n")
	fmt.Fprintf(&b, "        proxy_pass http://%s:%d;\n", n.backend.IP, n.backend.Port)
	b.WriteString("        proxy_set_header Host $host;\n")
	b.WriteString("        proxy_set_header X-Real-IP $remote_addr;\n")
	b.WriteString("        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;\n")
	b.WriteString("    }\n")
	b.WriteString("}")
	return b.String()
}

// ManageService enables and restarts nginx, pulling the journal tail into
// the error on failure.
func (n *NginxInstaller) ManageService(ctx context.Context, ctid int) error {
	if err := execChecked(ctx, n.rt, ctid, "systemctl enable nginx && systemctl restart nginx"); err != nil {
		tail := serviceLogs(ctx, n.rt, ctid, n.ServiceUnit())
		return installErr("manage_service", fmt.Errorf("nginx restart: %w; recent logs:\n%s", err, tail))
	}
	return nil
}

// HealthEndpoint probes the proxy's listening port on the target address.
func (n *NginxInstaller) HealthEndpoint(cfg types.TargetConfig) (string, bool) {
	ip := targetIP(cfg)
	if ip == "" {
		return "", false
	}
	return fmt.Sprintf("http://%s:80/", ip), true
}

// targetIP strips the prefix length off the target's CIDR address.
func targetIP(cfg types.TargetConfig) string {
	if cfg.Network == nil {
		return ""
	}
	ip, _, _ := strings.Cut(cfg.Network.IP, "/")
	return ip
}
