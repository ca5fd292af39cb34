package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
)

var editTitle string

var editCmd = &cobra.Command{
	Use:   "edit [id] [content...]",
	Short: "Replace a note's content and recategorize it",
	Long: `Edit replaces the content of a note, re-runs categorization and refreshes
its timestamp. Without --title the existing title is kept; pass --title ""
to clear it.`,
	Args: cobra.MinimumNArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		id, err := parseNoteID(args[0])
		if err != nil {
			return err
		}

		title := optionalTitle(cmd, editTitle)
		if title == nil {
			current, err := app.Notes.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			title = current.Title
		}

		note, result, err := app.Notes.Update(cmd.Context(), id, title, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		renderCategorization(cmd.ErrOrStderr(), result)
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(fmt.Sprintf("Updated note #%d", note.ID)))
		renderNote(cmd.OutOrStdout(), *note)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
}
