// Package events holds the event stream commands.
package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/felixgeelhaar/taskgraph/adapter/cli"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/eventbus"
	"github.com/spf13/cobra"
)

// ErrWatchUnavailable is returned when the App cannot deliver events.
var ErrWatchUnavailable = errors.New("event watching is not available")

var topics []string

// Cmd is the events command group
var Cmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect graph change events",
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Relay pending events and print them until interrupted",
	Long: `Relay graph change events from the outbox and print each one.

Topics use AMQP syntax: "*" matches one word and "#" matches any number.

Examples:
  taskgraph events watch
  taskgraph events watch --topic graph.dependency.*`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		if app.WatchEvents == nil {
			return ErrWatchUnavailable
		}

		fmt.Fprintln(cmd.ErrOrStderr(), "Watching events. Press Ctrl+C to stop.")
		err = app.WatchEvents(cmd.Context(), Printer(cmd.OutOrStdout(), topics...))
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// Printer returns a consumer writing one line per event to w.
func Printer(w io.Writer, topics ...string) eventbus.EventConsumer {
	if len(topics) == 0 {
		topics = []string{"graph.#"}
	}
	var mu sync.Mutex
	return eventbus.NewConsumerFunc(func(_ context.Context, event *eventbus.Event) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprintf(w, "%s  %-28s  %s  %s\n",
			event.OccurredAt.Format("15:04:05"),
			event.RoutingKey,
			event.AggregateID,
			event.Payload,
		)
		return err
	}, topics...)
}

func init() {
	watchCmd.Flags().StringSliceVar(&topics, "topic", nil, "routing key patterns to print (default graph.#)")
	Cmd.AddCommand(watchCmd)
}
