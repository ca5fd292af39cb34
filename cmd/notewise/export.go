package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered notes to an .xlsx spreadsheet",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		filter, err := listFilter()
		if err != nil {
			return err
		}
		notes, err := app.Notes.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		if err := app.Exporter.Export(cmd.Context(), notes, f); err != nil {
			_ = f.Close()
			_ = os.Remove(exportOutput)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(fmt.Sprintf("Exported %d notes to %s", len(notes), exportOutput)))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "notes.xlsx", "Destination file")
}
