// File: cmd/record.go
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webloop/webloop/api/schemas"
	"github.com/webloop/webloop/internal/browser"
	"github.com/webloop/webloop/internal/events"
	"github.com/webloop/webloop/internal/observability"
	"github.com/webloop/webloop/internal/recorder"
	"github.com/webloop/webloop/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newRecordCmd creates the `record` command. With --url it captures live
// interactions in a browser until interrupted; with --from-events it
// distills a JSONL file of raw events into a sequence offline.
func newRecordCmd() *cobra.Command {
	var (
		targetURL  string
		eventsFile string
	)

	recordCmd := &cobra.Command{
		Use:   "record <name>",
		Short: "Records an interaction sequence under the given name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			logger := observability.GetLogger()

			if (targetURL == "") == (eventsFile == "") {
				return fmt.Errorf("exactly one of --url or --from-events is required")
			}

			seqStore, err := store.New(appCfg.Store.Dir, logger)
			if err != nil {
				return err
			}

			bus := events.NewBus(logger)
			defer bus.Close()
			rec := recorder.New(appCfg.Recorder, bus, logger)

			unsubscribe := bus.Subscribe(schemas.EventActionRecorded, func(ev events.Event) {
				if p, ok := ev.Payload.(schemas.ActionRecordedPayload); ok {
					logger.Info("Action recorded",
						zap.String("type", string(p.Action.Type)),
						zap.String("target", p.Action.Target),
						zap.Int("count", p.Count))
				}
			})
			defer unsubscribe()

			if eventsFile != "" {
				return recordFromFile(cmd, rec, seqStore, name, eventsFile)
			}
			return recordLive(cmd, rec, seqStore, name, targetURL)
		},
	}

	recordCmd.Flags().StringVarP(&targetURL, "url", "u", "", "page to open and record interactions on")
	recordCmd.Flags().StringVar(&eventsFile, "from-events", "", "JSONL file of raw events to distill offline")
	return recordCmd
}

// recordLive drives a browser session and captures interactions until the
// command context is canceled (Ctrl-C).
func recordLive(cmd *cobra.Command, rec *recorder.Recorder, seqStore *store.Store, name, url string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	b, err := browser.Launch(ctx, appCfg.Browser, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	page := b.Page()
	if err := page.Navigate(ctx, url); err != nil {
		return err
	}

	if err := rec.Start(); err != nil {
		return err
	}
	if err := page.StartCapture(ctx, func(raw schemas.RawEvent) {
		rec.Record(raw)
	}); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Recording... interact with the page, press Ctrl-C to finish.")
	<-ctx.Done()

	actions, err := rec.Stop()
	if err != nil {
		return err
	}
	return saveSequence(cmd, seqStore, name, url, actions)
}

// recordFromFile replays a raw event log through the recorder. Throttling
// and dedup use the event timestamps, so historical capture distills the
// same way live capture would have.
func recordFromFile(cmd *cobra.Command, rec *recorder.Recorder, seqStore *store.Store, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()

	if err := rec.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var raw schemas.RawEvent
		if err := json.Unmarshal(text, &raw); err != nil {
			return fmt.Errorf("events file line %d: %w", line, err)
		}
		rec.Record(raw)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read events file: %w", err)
	}

	actions, err := rec.Stop()
	if err != nil {
		return err
	}
	return saveSequence(cmd, seqStore, name, "", actions)
}

func saveSequence(cmd *cobra.Command, seqStore *store.Store, name, url string, actions []schemas.Action) error {
	if len(actions) == 0 {
		return fmt.Errorf("no actions were recorded")
	}
	seq := &store.Sequence{
		Name:       name,
		URL:        url,
		RecordedAt: time.Now().UTC(),
		Actions:    actions,
	}
	if err := seqStore.Save(seq); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved sequence %q with %d actions.\n", name, len(actions))
	return nil
}
