// File: cmd/replay.go
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/webloop/webloop/api/schemas"
	"github.com/webloop/webloop/internal/browser"
	"github.com/webloop/webloop/internal/events"
	"github.com/webloop/webloop/internal/observability"
	"github.com/webloop/webloop/internal/replay"
	"github.com/webloop/webloop/internal/resolver"
	"github.com/webloop/webloop/internal/store"
)

// newReplayCmd creates the `replay` command.
func newReplayCmd() *cobra.Command {
	var (
		targetURL   string
		speed       float64
		stopOnError bool
	)

	replayCmd := &cobra.Command{
		Use:   "replay <name>",
		Short: "Replays a recorded sequence against a live page",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			logger := observability.GetLogger()

			seqStore, err := store.New(appCfg.Store.Dir, logger)
			if err != nil {
				return err
			}
			seq, err := seqStore.Load(name)
			if err != nil {
				return err
			}

			url := targetURL
			if url == "" {
				url = seq.URL
			}
			if url == "" {
				return fmt.Errorf("sequence %q has no recorded URL; pass --url", name)
			}

			b, err := browser.Launch(ctx, appCfg.Browser, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			page := b.Page()
			if err := page.Navigate(ctx, url); err != nil {
				return err
			}

			res := resolver.New(page, appCfg.Resolver.CacheSize, logger)
			bus := events.NewBus(logger)
			defer bus.Close()
			engine := replay.New(page, res, appCfg.Replay, bus, logger)

			unsubProgress := bus.Subscribe(schemas.EventProgress, func(ev events.Event) {
				if p, ok := ev.Payload.(schemas.Progress); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %.0f%% (%d ok, %d failed)\n",
						p.Current, p.Total, p.Percentage, p.Completed, p.Failed)
				}
			})
			defer unsubProgress()
			unsubFailed := bus.Subscribe(schemas.EventActionFailed, func(ev events.Event) {
				if p, ok := ev.Payload.(schemas.ActionFailedPayload); ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "action %d (%s %q) failed: %s\n",
						p.Index, p.Action.Type, p.Action.Target, p.Error)
				}
			})
			defer unsubFailed()

			// Ctrl-C cancels ctx; translate that into a cooperative stop so
			// the in-flight action finishes cleanly.
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-ctx.Done():
					engine.Stop()
				case <-done:
				}
			}()

			opts := schemas.DefaultReplayOptions()
			opts.Speed = speed
			opts.StopOnError = stopOnError

			logger.Info("Replaying sequence",
				zap.String("name", name),
				zap.String("url", url),
				zap.Int("actions", len(seq.Actions)))

			result, err := engine.Replay(ctx, seq.Actions, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Replay %s: %d completed, %d failed in %s.\n",
				result.Status, result.Completed, result.Failed, result.Elapsed.Round(10*time.Millisecond))
			if result.Status == replay.StatusFailed.String() {
				return fmt.Errorf("replay failed after %d actions", result.Completed)
			}
			return nil
		},
	}

	replayCmd.Flags().StringVarP(&targetURL, "url", "u", "", "override the sequence's recorded URL")
	replayCmd.Flags().Float64VarP(&speed, "speed", "s", 1.0, "playback speed multiplier (0.5, 1, 1.5, 2)")
	replayCmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "abort the sequence on the first failed action")
	return replayCmd
}
