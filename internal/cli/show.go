package cli

import (
	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the seeded experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			rt, err := a.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()
			return writeState(a.stdout, f, rt.store.Snapshot())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format (text, json, yaml)")
	return cmd
}
