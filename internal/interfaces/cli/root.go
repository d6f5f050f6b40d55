// Package cli implements the appraisalctl command tree: operational tooling
// for migrations, reconciliation, and index rebuilds.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harkencre/appraisal-platform/internal/config"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds the appraisalctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "appraisalctl",
		Short:   "Operational tooling for the appraisal platform",
		Long:    "appraisalctl manages the appraisal platform from the command line:\nschema migrations, evaluation reconciliation, and search index rebuilds.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: "+defaultConfigPath+", falls back to HARKEN_* env)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newReconcileCmd(opts),
		newReindexCmd(opts),
	)

	return cmd
}

// loadConfig resolves configuration with priority: --config flag, the
// default file path, then environment variables alone.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.LoadFromEnv()
}

// newLogger builds a console logger on stderr so command output on stdout
// stays machine-readable.
func (o *rootOptions) newLogger() (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:            o.logLevel,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// Execute runs the command tree and reports errors on stderr.
func Execute() error {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return err
	}
	return nil
}
