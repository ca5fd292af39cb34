package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark [id]",
	Short: "Toggle the bookmark on a note",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		id, err := parseNoteID(args[0])
		if err != nil {
			return err
		}
		note, err := app.Notes.ToggleBookmark(cmd.Context(), id)
		if err != nil {
			return err
		}
		state := "removed from"
		if note.Bookmarked {
			state = "added to"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note #%d %s bookmarks\n", note.ID, state)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(bookmarkCmd)
}
