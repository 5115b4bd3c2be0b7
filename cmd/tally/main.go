// Command tally builds leaderboards from list documents on disk or over
// HTTP, and checks a running tally server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	app "github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/config"
	"github.com/okian/tally/pkg/logger"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	dataDir string
	url     string
	list    string
	json    bool
	verbose bool
	timeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tally",
		Short: "Level list leaderboard tool",
		Long: `tally aggregates a level list into a ranked contributor leaderboard.

Documents are read from a data directory (--data) or an HTTP document root
(--url). The check command instead probes a running tally server at --url.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env is fine; flags and the environment still apply.
			_ = godotenv.Load()

			if err := logger.InitWithOptions(logger.Options{Writer: cmd.ErrOrStderr()}); err != nil {
				return err
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.dataDir, "data", "", "data directory holding one directory per list")
	f.StringVar(&opts.url, "url", "", "HTTP document root, or the server URL for check")
	f.StringVarP(&opts.list, "list", "l", "", "list identifier (default: configured default list)")
	f.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall operation timeout")

	root.AddCommand(
		newLeaderboardCmd(opts),
		newLevelsCmd(opts),
		newPacksCmd(opts),
		newCheckCmd(opts),
	)
	return root
}

// service builds a Service from config, with --data and --url taking
// precedence over the configured data source.
func (o *options) service(ctx context.Context) (*app.Service, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case o.url != "":
		cfg.DataURL = o.url
	case o.dataDir != "":
		cfg.DataDir = o.dataDir
		cfg.DataURL = ""
	}
	return app.FromConfig(cfg, app.WithLogger(logger.Get().Named("service")))
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), o.timeout)
}
