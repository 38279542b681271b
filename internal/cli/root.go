package cli

import (
	"fmt"
	"os"

	"github.com/rustyeddy/forexai/config"
	"github.com/rustyeddy/forexai/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

func NewRootCmd() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "forexai",
		Short:         "ForexAI Pro dashboard service and tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&ro.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&ro.LogLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	cmd.PersistentFlags().StringVar(&ro.LogFormat, "log-format", "", "Log format: text|json (overrides config)")

	cmd.AddCommand(
		newServeCmd(ro),
		newConfigCmd(),
		newHistoryCmd(ro),
		newCandlesCmd(),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "forexai version %s\n", version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// load reads the configuration and applies the log flag overrides.
func (ro *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(ro.ConfigPath)
	if err != nil {
		return nil, err
	}
	if ro.LogLevel != "" {
		cfg.Log.Level = ro.LogLevel
	}
	if ro.LogFormat != "" {
		cfg.Log.Format = ro.LogFormat
	}
	return cfg, nil
}

func (ro *rootOptions) logger(cmd *cobra.Command, cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
}
