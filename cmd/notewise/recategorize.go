package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
)

var recategorizeAll bool

var recategorizeCmd = &cobra.Command{
	Use:   "recategorize [id]",
	Short: "Run categorization again for one note, or queue every note with --all",
	Args: func(cmd *cobra.Command, args []string) error {
		if recategorizeAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		if recategorizeAll {
			if app.Bulk == nil {
				return errors.New("bulk recategorization needs a worker queue; set NATS_URL")
			}
			queued, err := app.Bulk.EnqueueAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %d notes for recategorization\n", queued)
			return nil
		}

		id, err := parseNoteID(args[0])
		if err != nil {
			return err
		}
		note, result, err := app.Notes.Recategorize(cmd.Context(), id)
		if err != nil {
			return err
		}
		renderCategorization(cmd.ErrOrStderr(), result)
		renderNote(cmd.OutOrStdout(), *note)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(recategorizeCmd)
	recategorizeCmd.Flags().BoolVar(&recategorizeAll, "all", false, "Queue every stored note for the worker")
}
