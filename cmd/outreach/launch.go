package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"outreach/internal/activity"
	"outreach/internal/campaign"
	"outreach/internal/launch"
	"outreach/internal/progress"
)

func newLaunchCmd(opts *options) *cobra.Command {
	var (
		throttle int
		steps    []string
	)
	cmd := &cobra.Command{
		Use:   "launch ID [ID...]",
		Short: "Launch one or more campaigns and report the outcome",
		Long: `Launches the given campaigns concurrently. Each launch ticks progress from
0 to 100 and then marks the campaign Active. Ctrl-C cancels every launch still
running; cancelled campaigns keep their previous status.

Steps can be appended before launching with --step type:subject:delay.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}

			prog := progress.NewProgress(opts.quiet)
			prog.SetOutput(cmd.ErrOrStderr())

			a, err := newApp(opts, prog)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			defer a.Close()

			for _, raw := range steps {
				step, err := parseStep(raw)
				if err != nil {
					return &exitError{code: ExitError, err: err}
				}
				for _, id := range ids {
					if err := a.surface.AddStep(id, step); err != nil {
						return &exitError{code: ExitError, err: err}
					}
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			failed, firstErr := runLaunches(ctx, a, prog, ids, throttle)
			prog.Stop()
			a.feed.Close()

			if err := writeActivity(cmd, opts, a.feed); err != nil {
				return &exitError{code: ExitError, err: err}
			}
			if failed > 0 {
				return &exitError{code: ExitLaunchFailed, err: fmt.Errorf("%d of %d launches failed: %w", failed, len(ids), firstErr)}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&throttle, "throttle", campaign.DefaultThrottle, "sends per day recorded on the campaign (10-500)")
	cmd.Flags().StringArrayVar(&steps, "step", nil, "append a step before launching: type:subject:delay")
	return cmd
}

// runLaunches launches every id concurrently and returns how many failed
// along with the first failure. Cancellation by signal is not a failure.
func runLaunches(ctx context.Context, a *app, prog *progress.Progress, ids []int, throttle int) (int, error) {
	for _, id := range ids {
		if c, err := a.surface.Get(id); err == nil {
			prog.Printf("Launching %q (%d steps, throttle %d/day)", c.Name, len(c.Steps), throttle)
		}
	}
	prog.Start()

	// A plain Group: one failed launch must not cancel the others.
	var g errgroup.Group
	failures := make([]bool, len(ids))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			err := a.surface.Launch(ctx, id, throttle, prog.Observe(strconv.Itoa(id)))
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			failures[i] = true
			a.logger.Warn("Launch did not complete", zap.Int("campaign_id", id), zap.Error(err))
			if isRejection(err) {
				// Rejected before starting, so the notifier never saw it.
				prog.Printf("Campaign %d: %v", id, err)
			}
			return fmt.Errorf("campaign %d: %w", id, err)
		})
	}
	firstErr := g.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return failed, firstErr
}

func isRejection(err error) bool {
	return errors.Is(err, campaign.ErrNotFound) ||
		errors.Is(err, campaign.ErrAlreadyLaunching) ||
		errors.Is(err, campaign.ErrInvalidThrottle) ||
		errors.Is(err, campaign.ErrInvalidTransition) ||
		errors.Is(err, launch.ErrClosed)
}

func writeActivity(cmd *cobra.Command, opts *options, feed *activity.Feed) error {
	notices := feed.Notices()
	summary := feed.Summarize()
	if opts.output == "json" {
		return activity.FormatJSON(cmd.OutOrStdout(), notices, summary)
	}
	activity.FormatText(cmd.OutOrStdout(), notices, summary)
	return nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	seen := make(map[int]bool, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid campaign id %q", arg)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// parseStep reads "type:subject:delay". The subject may itself contain colons.
func parseStep(raw string) (campaign.Step, error) {
	first := strings.Index(raw, ":")
	last := strings.LastIndex(raw, ":")
	if first < 0 || first == last {
		return campaign.Step{}, fmt.Errorf("invalid step %q: want type:subject:delay", raw)
	}
	delay, err := strconv.Atoi(raw[last+1:])
	if err != nil {
		return campaign.Step{}, fmt.Errorf("invalid step %q: delay must be an integer", raw)
	}
	step := campaign.Step{
		Type:    campaign.StepType(raw[:first]),
		Subject: raw[first+1 : last],
		Delay:   delay,
	}
	if err := step.Validate(); err != nil {
		return campaign.Step{}, fmt.Errorf("invalid step %q: %w", raw, err)
	}
	return step, nil
}
