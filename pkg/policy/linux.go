package policy

import (
	"os"
	"path/filepath"

	"github.com/diskwatch/agent/internal/config"
	"github.com/diskwatch/agent/pkg/logger"
	"github.com/diskwatch/agent/pkg/utils"
)

type LinuxPolicy struct {
	serviceName string
	binaryPath  string
	envFilePath string
}

func NewLinuxPolicy(cfg *config.Config) *LinuxPolicy {
	return &LinuxPolicy{
		serviceName: cfg.ServiceName(),
		binaryPath:  cfg.BinaryPath(),
		envFilePath: cfg.EnvFilePath(),
	}
}

func (p *LinuxPolicy) ConfigureAutoStart() error {
	unitPath := filepath.Join(
		"/etc/systemd/system",
		p.serviceName+".service",
	)

	unit := `[Unit]
Description=Diskwatch Agent
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
EnvironmentFile=-` + p.envFilePath + `
ExecStart=` + p.binaryPath + ` run
Restart=always
RestartSec=5
KillSignal=SIGTERM
TimeoutStopSec=30
NoNewPrivileges=true
ProtectSystem=full
ProtectHome=true

[Install]
WantedBy=multi-user.target
`
	if err := os.WriteFile(unitPath, []byte(unit), 0644); err != nil {
		return err
	}
	_, _ = utils.RunCommand("systemctl", "daemon-reload")
	_, _ = utils.RunCommand("systemctl", "enable", p.serviceName)
	logger.Log.Info("systemd unit installed")
	return nil
}

func (p *LinuxPolicy) ConfigureRestartPolicy() error {
	logger.Log.Info("systemd restart policy enforced via unit")
	return nil
}
