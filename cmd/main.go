package main

import (
	"context"
	"fmt"
	"os"

	"github.com/diskwatch/agent/internal/checker"
	"github.com/diskwatch/agent/internal/config"
	"github.com/diskwatch/agent/internal/daemon"
	"github.com/diskwatch/agent/internal/identity"
	"github.com/diskwatch/agent/internal/notify"
	"github.com/diskwatch/agent/internal/probe"
	"github.com/diskwatch/agent/pkg/logger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// buildChecker assembles the production checker: gopsutil prober, IMDS
// identity resolver and SNS notifier with ambient role credentials.
func buildChecker(ctx context.Context, cfg *config.Config) (*checker.Checker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	notifier, err := notify.NewSNS(ctx, cfg.Region(), cfg.TopicARN())
	if err != nil {
		return nil, err
	}
	return checker.New(cfg, probe.New(), identity.New(cfg.MetadataEndpoint()), notifier), nil
}

// dryRunNotifier prints the alert instead of publishing it.
type dryRunNotifier struct{}

func (dryRunNotifier) Publish(ctx context.Context, subject, body string) error {
	color.Yellow("DRY RUN — would publish:")
	fmt.Printf("Subject: %s\n\n%s", subject, body)
	return nil
}

func newCheckCmd() *cobra.Command {
	var dryRun bool

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run one disk usage check and exit",
		Long:  "Measures the configured mount point once, publishes an alert when usage is at or over threshold, and exits non-zero on measurement or publish failure.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			logger.Init(cfg.LogFilePath())

			var c *checker.Checker
			if dryRun {
				if err := cfg.Validate(); err != nil {
					return err
				}
				c = checker.New(cfg, probe.New(), identity.New(cfg.MetadataEndpoint()), dryRunNotifier{})
			} else {
				var err error
				c, err = buildChecker(cmd.Context(), cfg)
				if err != nil {
					return err
				}
			}

			result, err := c.Run(cmd.Context())
			if err != nil {
				color.Red("Check failed: %v", err)
				return err
			}
			if result.Alerted {
				color.Yellow("ALERT: %d%% used on %s (threshold %d%%), notification sent",
					result.Reading.Percent, result.Reading.MountPath, result.Threshold)
			} else {
				color.Green("OK: %d%% used on %s (threshold %d%%)",
					result.Reading.Percent, result.Reading.MountPath, result.Threshold)
			}
			return nil
		},
	}

	checkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the alert instead of publishing it")
	return checkCmd
}

func newManager() *daemon.DaemonManager {
	cfg := config.New()
	logger.Init(cfg.LogFilePath())
	app := daemon.NewApplication(cfg, buildChecker)
	return daemon.NewDaemonManager(cfg, app)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent with its internal schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newManager().RunDaemon()
		},
	}
}

func newServiceCmds() []*cobra.Command {
	install := &cobra.Command{
		Use:   "install",
		Short: "Install the agent as a system service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newManager().InstallDaemon(); err != nil {
				return err
			}
			color.Green("Service installed")
			return nil
		},
	}
	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the system service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newManager().UninstallDaemon(); err != nil {
				return err
			}
			color.Green("Service uninstalled")
			return nil
		},
	}
	start := &cobra.Command{
		Use:   "start",
		Short: "Start the installed service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newManager().StartDaemon()
		},
	}
	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the installed service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newManager().StopDaemon()
		},
	}
	restart := &cobra.Command{
		Use:   "restart",
		Short: "Restart the installed service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newManager().RestartDaemon()
		},
	}
	return []*cobra.Command{install, uninstall, start, stop, restart}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "diskwatch",
		Short:         "Disk usage alerting agent",
		Long:          "diskwatch checks disk utilization of one mount point and publishes an SNS alert when a static threshold is exceeded.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newCheckCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newServiceCmds()...)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
