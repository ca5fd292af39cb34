package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/notewise/internal/core/domain"
)

const maxNoteBodyBytes = 1 << 20

type noteInput struct {
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

type categorizationResponse struct {
	Labels []string                    `json:"labels"`
	Source domain.CategorizationSource `json:"source"`
	Error  string                      `json:"error,omitempty"`
}

type noteResponse struct {
	Note           *domain.Note            `json:"note"`
	Categorization *categorizationResponse `json:"categorization,omitempty"`
}

func toCategorizationResponse(c domain.Categorization) *categorizationResponse {
	return &categorizationResponse{
		Labels: c.Labels,
		Source: c.Source,
		Error:  c.ErrorMessage(),
	}
}

func (rt *Router) listNotes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, err := rt.notes.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (rt *Router) createNote(w http.ResponseWriter, r *http.Request) {
	input, err := decodeNoteInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, categorization, err := rt.notes.Create(r.Context(), input.Title, input.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recordNoteID(r, note.ID)
	recordCategorization(r, categorization)
	writeJSON(w, http.StatusCreated, noteResponse{Note: note, Categorization: toCategorizationResponse(categorization)})
}

func (rt *Router) getNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, err := rt.notes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (rt *Router) updateNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	input, err := decodeNoteInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, categorization, err := rt.notes.Update(r.Context(), id, input.Title, input.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recordCategorization(r, categorization)
	writeJSON(w, http.StatusOK, noteResponse{Note: note, Categorization: toCategorizationResponse(categorization)})
}

func (rt *Router) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.notes.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) toggleBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, err := rt.notes.ToggleBookmark(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (rt *Router) recategorizeNote(w http.ResponseWriter, r *http.Request) {
	id, err := parseNoteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, categorization, err := rt.notes.Recategorize(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recordCategorization(r, categorization)
	writeJSON(w, http.StatusOK, noteResponse{Note: note, Categorization: toCategorizationResponse(categorization)})
}

func (rt *Router) recategorizeAll(w http.ResponseWriter, r *http.Request) {
	if rt.bulk == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "recategorize queue is not configured"})
		return
	}
	queued, err := rt.bulk.EnqueueAll(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("queued %d notes before failing: %w", queued, err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

func (rt *Router) exportNotes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, err := rt.notes.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := rt.exporter.Export(r.Context(), notes, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="notes.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) categorizationState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.state.Current())
}

func (rt *Router) listCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": domain.Vocabulary})
}

func parseNoteID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse note id", fmt.Errorf("%q is not a note id", raw))
	}
	recordNoteID(r, id)
	return id, nil
}

func parseFilter(r *http.Request) (domain.NoteFilter, error) {
	q := r.URL.Query()
	filter := domain.NoteFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   q.Get("search"),
	}
	if err := validateFilterCategory(filter.Category); err != nil {
		return filter, err
	}
	if raw := q.Get("bookmarked"); raw != "" {
		bookmarked, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse filter", fmt.Errorf("bookmarked must be a boolean"))
		}
		filter.BookmarkedOnly = bookmarked
	}
	return filter, nil
}

// validateFilterCategory accepts an empty category, "All" or a known label.
func validateFilterCategory(category string) error {
	if category == "" || category == domain.CategoryAll || domain.IsKnownCategory(category) {
		return nil
	}
	return domain.WrapError(domain.ErrInvalidInput, "parse filter", fmt.Errorf("unknown category %q", category))
}

func decodeNoteInput(w http.ResponseWriter, r *http.Request) (noteInput, error) {
	var input noteInput
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNoteBodyBytes))
	if err := decoder.Decode(&input); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return input, domain.WrapError(domain.ErrInvalidInput, "decode note", fmt.Errorf("body exceeds %d bytes", maxNoteBodyBytes))
		}
		return input, domain.WrapError(domain.ErrInvalidInput, "decode note", fmt.Errorf("invalid json"))
	}
	return input, nil
}
