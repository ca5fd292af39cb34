package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
)

var importTitle string

var importPDFCmd = &cobra.Command{
	Use:   "import-pdf [file]",
	Short: "Create a note from the text of a PDF document",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}
		text, err := app.PDFExtractor.Extract(cmd.Context(), f, info.Size())
		if err != nil {
			return err
		}

		note, result, err := app.Notes.Create(cmd.Context(), optionalTitle(cmd, importTitle), text)
		if err != nil {
			return err
		}
		renderCategorization(cmd.ErrOrStderr(), result)
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(fmt.Sprintf("Imported %s as note #%d", args[0], note.ID)))
		renderNote(cmd.OutOrStdout(), *note)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(importPDFCmd)
	importPDFCmd.Flags().StringVarP(&importTitle, "title", "t", "", "Optional note title")
}
