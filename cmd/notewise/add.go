package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
)

var (
	addTitle    string
	addFromFile string
)

var addCmd = &cobra.Command{
	Use:   "add [content...]",
	Short: "Save a new note and categorize it",
	Example: `  notewise add "Book flights to Lisbon" --title Travel
  notewise add --from-file meeting.txt`,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		content := strings.Join(args, " ")
		if addFromFile != "" {
			text, err := readTextFile(cmd, app, addFromFile)
			if err != nil {
				return err
			}
			content = text
		}

		note, result, err := app.Notes.Create(cmd.Context(), optionalTitle(cmd, addTitle), content)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		renderCategorization(cmd.ErrOrStderr(), result)
		fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Saved note #%d", note.ID)))
		renderNote(out, *note)
		return nil
	}),
}

// optionalTitle returns nil when the --title flag was not given so the
// service keeps the note untitled.
func optionalTitle(cmd *cobra.Command, value string) *string {
	if !cmd.Flags().Changed("title") {
		return nil
	}
	return &value
}

func readTextFile(cmd *cobra.Command, app *bootstrap.App, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	return app.TextExtractor.Extract(cmd.Context(), f, info.Size())
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Optional note title (at most 100 characters)")
	addCmd.Flags().StringVarP(&addFromFile, "from-file", "f", "", "Read the note content from a UTF-8 text file")
}
