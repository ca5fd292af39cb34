package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kirillkom/notewise/internal/core/domain"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")
)

var styles = struct {
	Title    lipgloss.Style
	Category lipgloss.Style
	Bookmark lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true),
	Category: lipgloss.NewStyle().Foreground(colorAccent),
	Bookmark: lipgloss.NewStyle().Foreground(colorWarning),
	Muted:    lipgloss.NewStyle().Foreground(colorMuted),
	Success:  lipgloss.NewStyle().Foreground(colorAccent),
	Warning:  lipgloss.NewStyle().Foreground(colorWarning),
	Error:    lipgloss.NewStyle().Foreground(colorError),
}

func renderNotes(w io.Writer, notes []domain.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No notes."))
		return
	}
	for i, note := range notes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		renderNote(w, note)
	}
}

func renderNote(w io.Writer, note domain.Note) {
	marker := " "
	if note.Bookmarked {
		marker = styles.Bookmark.Render("*")
	}
	header := fmt.Sprintf("#%d", note.ID)
	if title := note.TitleOrEmpty(); title != "" {
		header += " " + styles.Title.Render(title)
	}
	fmt.Fprintf(w, "%s %s  %s\n", marker, header, styles.Muted.Render(formatTimestamp(note.Timestamp)))
	fmt.Fprintf(w, "  %s\n", note.Content)
	fmt.Fprintf(w, "  %s\n", renderCategories(note.Categories))
}

func renderCategories(categories []string) string {
	tags := make([]string, 0, len(categories))
	for _, category := range categories {
		tags = append(tags, styles.Category.Render("["+category+"]"))
	}
	return strings.Join(tags, " ")
}

func renderCategorization(w io.Writer, result domain.Categorization) {
	if result.Err != nil {
		fmt.Fprintln(w, styles.Warning.Render("Classifier unavailable, filed as "+strings.Join(result.Labels, ", ")+": "+result.ErrorMessage()))
	}
}

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
