package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mugaber/challenge-experiment-module/internal/events"
	"github.com/mugaber/challenge-experiment-module/internal/logging"
	"github.com/mugaber/challenge-experiment-module/internal/models"
	"github.com/mugaber/challenge-experiment-module/internal/store"
)

type runResult struct {
	State  store.State   `json:"state" yaml:"state"`
	Events []eventRecord `json:"events" yaml:"events"`
}

func newRunCmd(a *app) *cobra.Command {
	var (
		format     string
		showEvents bool
	)
	cmd := &cobra.Command{
		Use:   "run <command>...",
		Short: "Apply commands to a freshly seeded store",
		Long: "Apply commands in order to a freshly seeded store and print the final state.\n\n" +
			"Commands:\n" +
			"  add:<exp>                 add a pending iteration\n" +
			"  done | cancel             resolve the active iteration\n" +
			"  length:<exp>:<it>:<len>   set length (short, medium, long)\n" +
			"  remove:<exp>:<it>         remove an iteration\n" +
			"  lock:<exp>                toggle the lock\n" +
			"  reset:<exp>               clear an experiment",
		Example: "  experiments run add:1 done length:1:1:long --events",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			commands, err := store.ParseCommands(args)
			if err != nil {
				return err
			}

			rt, err := a.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			var applied []*models.Event
			if err := rt.publisher.Subscribe("run", events.Filter{}, func(event *models.Event) {
				applied = append(applied, event)
			}); err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}

			logger := logging.Component(cmd.Context(), "run")
			var state store.State
			for _, c := range commands {
				state = rt.store.ApplyContext(cmd.Context(), c)
			}
			logger.Debug().Int("commands", len(commands)).Int("events", len(applied)).Msg("applied commands")

			if f != FormatText {
				if !showEvents {
					return writeStructured(a.stdout, f, state)
				}
				return writeStructured(a.stdout, f, runResult{State: state, Events: toRecords(logger, applied)})
			}

			if err := writeState(a.stdout, f, state); err != nil {
				return err
			}
			if !showEvents {
				return nil
			}
			fmt.Fprintln(a.stdout)
			return writeEvents(a.stdout, f, logger, applied)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")
	cmd.Flags().BoolVar(&showEvents, "events", false, "also print the events each command produced")
	return cmd
}
