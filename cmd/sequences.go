// File: cmd/sequences.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webloop/webloop/internal/observability"
	"github.com/webloop/webloop/internal/store"
)

// newSequencesCmd creates the `sequences` command group for managing stored
// sequences.
func newSequencesCmd() *cobra.Command {
	sequencesCmd := &cobra.Command{
		Use:     "sequences",
		Aliases: []string{"seq"},
		Short:   "Manage stored interaction sequences",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists all stored sequences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seqStore, err := store.New(appCfg.Store.Dir, observability.GetLogger())
			if err != nil {
				return err
			}
			names, err := seqStore.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sequences stored.")
				return nil
			}
			for _, name := range names {
				seq, err := seqStore.Load(name)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (unreadable: %v)\n", name, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d actions\t%s\n",
					name, len(seq.Actions), seq.RecordedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Deletes a stored sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seqStore, err := store.New(appCfg.Store.Dir, observability.GetLogger())
			if err != nil {
				return err
			}
			if err := seqStore.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted sequence %q.\n", args[0])
			return nil
		},
	}

	sequencesCmd.AddCommand(listCmd, deleteCmd)
	return sequencesCmd
}
