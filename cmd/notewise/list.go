package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/bootstrap"
	"github.com/kirillkom/notewise/internal/core/domain"
)

var (
	listJSON       bool
	listCategory   string
	listSearch     string
	listBookmarked bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
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

		if listJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(notes)
		}
		renderNotes(cmd.OutOrStdout(), notes)
		return nil
	}),
}

func listFilter() (domain.NoteFilter, error) {
	if listCategory != "" && listCategory != domain.CategoryAll && !domain.IsKnownCategory(listCategory) {
		return domain.NoteFilter{}, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, listCategory)
	}
	return domain.NoteFilter{
		Category:       listCategory,
		Search:         listSearch,
		BookmarkedOnly: listBookmarked,
	}, nil
}

func parseNoteID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: note id must be a positive integer, got %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only notes carrying this category")
	cmd.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive text to look for in title or content")
	cmd.Flags().BoolVarP(&listBookmarked, "bookmarked", "b", false, "Only bookmarked notes")
}

func init() {
	rootCmd.AddCommand(listCmd)
	addFilterFlags(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
