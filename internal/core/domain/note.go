package domain

import (
	"strings"
	"time"
)

const (
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
	CategoryTech     = "Tech"
	CategoryHealth   = "Health"
	CategoryFinance  = "Finance"
	CategoryShopping = "Shopping"
	CategoryIdeas    = "Ideas"
	CategoryTravel   = "Travel"
	CategoryContacts = "Contacts"

	// CategoryAll is the list filter value that matches every note.
	CategoryAll = "All"

	MaxTitleRunes = 100
)

// Vocabulary is the fixed set of labels a note can carry, in display order.
var Vocabulary = []string{
	CategoryWork,
	CategoryPersonal,
	CategoryTech,
	CategoryHealth,
	CategoryFinance,
	CategoryShopping,
	CategoryIdeas,
	CategoryTravel,
	CategoryContacts,
}

func IsKnownCategory(label string) bool {
	for _, known := range Vocabulary {
		if known == label {
			return true
		}
	}
	return false
}

type Note struct {
	ID         int64    `json:"id"`
	Title      *string  `json:"title,omitempty"`
	Content    string   `json:"content"`
	Categories []string `json:"categories"`
	Bookmarked bool     `json:"bookmarked"`
	Timestamp  int64    `json:"timestamp"`
}

func (n Note) TitleOrEmpty() string {
	if n.Title == nil {
		return ""
	}
	return *n.Title
}

func (n Note) HasCategory(label string) bool {
	for _, c := range n.Categories {
		if c == label {
			return true
		}
	}
	return false
}

// NowMillis returns the current wall clock as epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

type NoteFilter struct {
	Category       string
	Search         string
	BookmarkedOnly bool
}

func (f NoteFilter) Matches(note Note) bool {
	if f.Category != "" && f.Category != CategoryAll && !note.HasCategory(f.Category) {
		return false
	}
	if f.BookmarkedOnly && !note.Bookmarked {
		return false
	}
	query := strings.ToLower(f.Search)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(note.TitleOrEmpty()), query) ||
		strings.Contains(strings.ToLower(note.Content), query)
}

func (f NoteFilter) Apply(notes []Note) []Note {
	out := make([]Note, 0, len(notes))
	for _, note := range notes {
		if f.Matches(note) {
			out = append(out, note)
		}
	}
	return out
}

type NoteEventKind string

const (
	NoteCreated NoteEventKind = "created"
	NoteUpdated NoteEventKind = "updated"
	NoteDeleted NoteEventKind = "deleted"
)

type NoteEvent struct {
	Kind   NoteEventKind `json:"kind"`
	NoteID int64         `json:"note_id"`
	Origin string        `json:"origin,omitempty"`
	At     int64         `json:"at"`
}
