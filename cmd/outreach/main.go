package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"outreach/internal/activity"
	"outreach/internal/campaign"
	"outreach/internal/config"
	"outreach/internal/control"
	"outreach/internal/core"
	"outreach/internal/fixtures"
	"outreach/internal/launch"
	"outreach/internal/logging"
)

const (
	ExitSuccess      = 0
	ExitLaunchFailed = 1
	ExitError        = 2
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	quiet      bool
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "outreach",
		Short: "Campaign sequencing and launch engine",
		Long: `outreach manages outreach campaigns: ordered multichannel touch-points,
lifecycle status and a throttled, progressive launch.

State lives in memory for the lifetime of the process. Each invocation starts
from the fixture set (built-in, or --config fixtures path).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "text" && opts.output != "json" {
				return fmt.Errorf("--output must be 'text' or 'json', got %q", opts.output)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "suppress progress output")
	root.PersistentFlags().StringVar(&opts.output, "output", "text", "output format: text, json")

	root.AddCommand(newListCmd(opts), newLaunchCmd(opts), newServeCmd(opts))
	return root
}

// app is the wired engine shared by the subcommands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *campaign.Store
	sim     *launch.Simulator
	feed    *activity.Feed
	surface *control.Surface
}

func newApp(opts *options, extra ...core.Notifier) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	campaigns, err := fixtures.Load(cfg.Fixtures)
	if err != nil {
		return nil, err
	}
	store := campaign.NewStore(campaign.WithDefaultDelivery(cfg.Delivery.Defaults()))
	if err := fixtures.Seed(store, campaigns); err != nil {
		return nil, err
	}

	feed := activity.NewFeed()
	notifier := append(core.MultiNotifier{feed}, extra...)
	sim := launch.NewSimulator(store, cfg.Launch.Simulator(),
		launch.WithNotifier(notifier),
		launch.WithLogger(logger.Named("launch")))
	surface := control.NewSurface(store, sim,
		control.WithNotifier(notifier),
		control.WithLogger(logger.Named("control")))

	logger.Debug("Engine ready",
		zap.Int("campaigns", store.Len()),
		zap.Duration("tick_interval", cfg.Launch.TickInterval),
		zap.Duration("max_duration", cfg.Launch.MaxDuration))

	return &app{cfg: cfg, logger: logger, store: store, sim: sim, feed: feed, surface: surface}, nil
}

// Close stops in-flight launches and flushes the feed and logger.
func (a *app) Close() {
	a.sim.Close()
	a.feed.Close()
	_ = a.logger.Sync()
}
