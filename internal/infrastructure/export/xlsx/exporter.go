package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/notewise/internal/core/domain"
)

const SheetName = "Notes"

var header = []string{"ID", "Title", "Content", "Categories", "Bookmarked", "Saved at"}

type Exporter struct {
	location *time.Location
}

func NewExporter(location *time.Location) *Exporter {
	if location == nil {
		location = time.UTC
	}
	return &Exporter{location: location}
}

// Export writes one row per note, in the given order, below a bold header.
func (e *Exporter) Export(ctx context.Context, notes []domain.Note, w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, title := range header {
		if err := setCell(f, col+1, 1, title); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "F1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "C", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for i, note := range notes {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := i + 2
		values := []any{
			note.ID,
			note.TitleOrEmpty(),
			note.Content,
			strings.Join(note.Categories, ", "),
			yesNo(note.Bookmarked),
			time.UnixMilli(note.Timestamp).In(e.location).Format(time.RFC3339),
		}
		for col, value := range values {
			if err := setCell(f, col+1, row, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
