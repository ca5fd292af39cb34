// Package sqlite is the single-file note store used by the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kirillkom/notewise/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	title        TEXT,
	content      TEXT NOT NULL,
	categories   TEXT NOT NULL DEFAULT '[]',
	bookmarked   INTEGER NOT NULL DEFAULT 0,
	timestamp_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_timestamp ON notes(timestamp_ms);
`

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// OpenDB opens (creating if needed) the database file at path. SQLite allows a
// single writer, so the pool is capped at one connection.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *NoteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	return nil
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	categoriesJSON, err := marshalCategories(note.Categories)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (title, content, categories, bookmarked, timestamp_ms) VALUES (?, ?, ?, ?, ?)`,
		nullableTitle(note.Title), note.Content, categoriesJSON, note.Bookmarked, note.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert note id: %w", err)
	}
	note.ID = id
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, categories, bookmarked, timestamp_ms FROM notes WHERE id = ?`, id)

	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrNoteNotFound, "get note", fmt.Errorf("id=%d", id))
	}
	return note, err
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	categoriesJSON, err := marshalCategories(note.Categories)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, categories = ?, bookmarked = ?, timestamp_ms = ? WHERE id = ?`,
		nullableTitle(note.Title), note.Content, categoriesJSON, note.Bookmarked, note.Timestamp, note.ID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireAffected(res, "update note", note.ID)
}

func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireAffected(res, "delete note", id)
}

func (r *NoteRepository) ListNewestFirst(ctx context.Context) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, categories, bookmarked, timestamp_ms FROM notes ORDER BY timestamp_ms DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*domain.Note, error) {
	var (
		note       domain.Note
		title      sql.NullString
		categories string
	)
	if err := row.Scan(&note.ID, &title, &note.Content, &categories, &note.Bookmarked, &note.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	if title.Valid {
		value := title.String
		note.Title = &value
	}
	if err := json.Unmarshal([]byte(categories), &note.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	return &note, nil
}

func nullableTitle(title *string) sql.NullString {
	if title == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *title, Valid: true}
}

func marshalCategories(categories []string) (string, error) {
	if categories == nil {
		categories = []string{}
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return "", fmt.Errorf("marshal categories: %w", err)
	}
	return string(raw), nil
}

func requireAffected(res sql.Result, operation string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNoteNotFound, operation, fmt.Errorf("id=%d", id))
	}
	return nil
}
