package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mugaber/challenge-experiment-module/internal/journal"
	"github.com/mugaber/challenge-experiment-module/internal/logging"
)

func newJournalCmd(a *app) *cobra.Command {
	var (
		format       string
		limit        int
		experimentID int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded journal events",
		Long: "List the most recent events recorded in the journal database. Events are\n" +
			"recorded only while journal.enabled is set; they are never replayed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			db, err := a.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			q := journal.EventQuery{Limit: limit}
			if experimentID > 0 {
				q.EntityID = strconv.Itoa(experimentID)
			}
			repo := journal.NewEventRepository(db)
			entries, err := repo.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			logger := logging.Component(cmd.Context(), "journal")
			if f != FormatText {
				return writeEvents(a.stdout, f, logger, entries)
			}

			total, err := repo.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d of %d recorded events\n\n", len(entries), total)
			return writeEvents(a.stdout, f, logger, entries)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of events")
	cmd.Flags().IntVar(&experimentID, "experiment", 0, "only events for this experiment id")
	return cmd
}
