package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/notewise/internal/core/domain"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *NoteRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS notes (
	id BIGSERIAL PRIMARY KEY,
	title TEXT,
	content TEXT NOT NULL,
	categories JSONB NOT NULL DEFAULT '[]'::jsonb,
	bookmarked BOOLEAN NOT NULL DEFAULT FALSE,
	timestamp_ms BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_timestamp ON notes(timestamp_ms DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	categoriesJSON, err := marshalCategories(note.Categories)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
INSERT INTO notes (title, content, categories, bookmarked, timestamp_ms)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, note.Title, note.Content, categoriesJSON, note.Bookmarked, note.Timestamp).Scan(&note.ID)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, content, categories, bookmarked, timestamp_ms
FROM notes
WHERE id = $1
`, id)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNoteNotFound, "get note", fmt.Errorf("id=%d", id))
		}
		return nil, err
	}
	return note, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	categoriesJSON, err := marshalCategories(note.Categories)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE notes
SET title = $2, content = $3, categories = $4, bookmarked = $5, timestamp_ms = $6
WHERE id = $1
`, note.ID, note.Title, note.Content, categoriesJSON, note.Bookmarked, note.Timestamp)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireAffected(res, "update note", note.ID)
}

func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireAffected(res, "delete note", id)
}

func (r *NoteRepository) ListNewestFirst(ctx context.Context) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, content, categories, bookmarked, timestamp_ms
FROM notes
ORDER BY timestamp_ms DESC, id DESC
`)
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
		note          domain.Note
		title         sql.NullString
		categoriesRaw []byte
	)
	if err := row.Scan(&note.ID, &title, &note.Content, &categoriesRaw, &note.Bookmarked, &note.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	if title.Valid {
		value := title.String
		note.Title = &value
	}
	if err := json.Unmarshal(categoriesRaw, &note.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	return &note, nil
}

func marshalCategories(categories []string) ([]byte, error) {
	if categories == nil {
		categories = []string{}
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	return raw, nil
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
