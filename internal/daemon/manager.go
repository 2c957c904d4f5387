package daemon

import (
	"context"
	"fmt"
	"runtime"

	"github.com/diskwatch/agent/internal/config"
	"github.com/diskwatch/agent/pkg/logger"
	"github.com/diskwatch/agent/pkg/policy"
	kardianos "github.com/kardianos/service"
)

type DaemonManager struct {
	cfg       *config.Config
	app       *Application
	appCtx    context.Context
	appCancel context.CancelFunc
}

func NewDaemonManager(cfg *config.Config, app *Application) *DaemonManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &DaemonManager{
		cfg:       cfg,
		app:       app,
		appCtx:    ctx,
		appCancel: cancel,
	}
}

func (m *DaemonManager) newService() (kardianos.Service, error) {
	if m.app == nil {
		return nil, fmt.Errorf("application cannot be nil")
	}
	return kardianos.New(m, &kardianos.Config{
		Name:        m.cfg.ServiceName(),
		DisplayName: m.cfg.ServiceDisplayName(),
		Description: m.cfg.ServiceDescription(),
		Arguments:   []string{"run"},
	})
}

func (m *DaemonManager) Start(s kardianos.Service) error {
	logger.Log.Info("Kardianos starting service", "service", s.String(), "platform", s.Platform())
	go func() {
		if err := m.app.Run(m.appCtx); err != nil {
			logger.Log.Error("Application failed to start", "err", err)
		}
	}()
	return nil
}

func (m *DaemonManager) Stop(s kardianos.Service) error {
	logger.Log.Info("Kardianos stopping service", "service", s.String())
	m.appCancel()
	return nil
}

func (m *DaemonManager) InstallDaemon() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	if err := s.Install(); err != nil {
		if runtime.GOOS == "windows" {
			return fmt.Errorf("failed to install Windows service (requires administrator privileges): %w\nPlease run PowerShell or Command Prompt as Administrator", err)
		}
		return fmt.Errorf("failed to install service: %w", err)
	}
	p, err := policy.NewServicePolicy(m.cfg)
	if err != nil {
		return err
	}
	if err := p.ConfigureAutoStart(); err != nil {
		return fmt.Errorf("failed to configure auto-start: %w", err)
	}
	if err := p.ConfigureRestartPolicy(); err != nil {
		return fmt.Errorf("failed to configure restart policy: %w", err)
	}
	return nil
}

func (m *DaemonManager) UninstallDaemon() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	_ = s.Stop()
	return s.Uninstall()
}

func (m *DaemonManager) RestartDaemon() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Restart()
}

// RunDaemon runs the service loop, in the foreground when launched from a
// terminal and under the platform service manager otherwise.
func (m *DaemonManager) RunDaemon() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Run()
}

func (m *DaemonManager) StartDaemon() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Start()
}

func (m *DaemonManager) StopDaemon() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Stop()
}
