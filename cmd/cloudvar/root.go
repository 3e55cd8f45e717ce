package main

import (
	"time"

	"github.com/cenkalti/backoff"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cloudvar "github.com/cloudvarx/cloudvar-client-go"
)

var (
	cfgFile      string
	flagUsername string
	flagProject  string
	flagTurbo    bool
	flagVerbose  bool
	flagTimeout  time.Duration
	flagRetries  uint64
)

var rootCmd = &cobra.Command{
	Use:   "cloudvar",
	Short: "Cloud variable client",
	Long: `cloudvar works with the cloud variables of a project: set a value,
read one, or stream every change as JSON lines.

Credentials come from flags, CLOUDVAR_* environment variables, or a
YAML config file. The session token itself is produced by whatever
login flow you already use.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/cloudvar/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagUsername, "username", "u", "", "account username")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "project id")
	rootCmd.PersistentFlags().BoolVar(&flagTurbo, "turbowarp", false, "use the TurboWarp cloud host")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "how long to wait for the host")
	rootCmd.PersistentFlags().Uint64Var(&flagRetries, "retries", 4, "connection attempts before giving up (0 means forever)")
	rootCmd.AddCommand(setCmd, getCmd, watchCmd)
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// reconnectPolicy honors --retries: a bounded budget for one-shot
// commands, unbounded for watch when set to zero.
func reconnectPolicy() backoff.BackOff {
	policy := cloudvar.NewReconnectBackoff(nil)
	if flagRetries == 0 {
		return policy
	}
	return backoff.WithMaxRetries(policy, flagRetries)
}

func newSession(cfg Config, logger *zap.Logger, metrics *cloudvar.Metrics) (*cloudvar.Session, error) {
	return cloudvar.New(
		cloudvar.Credential{Username: cfg.Username, SessionID: cfg.SessionID},
		cfg.Project,
		cloudvar.Options{
			TurboWarp: cfg.Turbowarp,
			Backoff:   reconnectPolicy(),
			Logger:    logger,
			Metrics:   metrics,
		},
	)
}
