package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the filtered note list again whenever notes change",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *bootstrap.App) error {
		filter, err := listFilter()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		go func() {
			if err := app.RelayRemoteEvents(ctx); err != nil {
				slog.Warn("remote_events_unavailable", "error", err)
			}
		}()

		snapshots, err := app.Notes.Watch(ctx, filter)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for notes := range snapshots {
			fmt.Fprintln(out, styles.Muted.Render("-- "+time.Now().Format("15:04:05")+" --"))
			renderNotes(out, notes)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addFilterFlags(watchCmd)
}
