package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note permanently",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		id, err := parseNoteID(args[0])
		if err != nil {
			return err
		}
		if err := app.Notes.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note deleted: #%d\n", id)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
