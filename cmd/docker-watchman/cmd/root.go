package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/docker-watchman/internal/config"
	"github.com/oshokin/docker-watchman/internal/service/monitor"
	"github.com/oshokin/docker-watchman/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// logLevel overrides the configured logging level.
	logLevel string

	// rootCmd represents the base command for running the watcher daemon.
	rootCmd = &cobra.Command{
		Use:   "docker-watchman",
		Short: "Watch Docker containers and alert on outages and restart loops.",
		Long: `Starts the container watcher daemon.

The watcher subscribes to Docker lifecycle events, keeps a state machine per
container and sends email or webhook notifications when a container stays
down past the grace period, enters a restart loop, or comes back up. It also
probes the Docker daemon itself and alerts when it becomes unreachable.

Settings come from the YAML file, with environment variables taking
precedence. A missing settings file is fine: defaults plus environment
variables are enough to run.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &monitor.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
			}

			return monitor.Run(ctx, options)
		},
	}
)

// Execute runs the docker-watchman CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "override the configured log level")
}
