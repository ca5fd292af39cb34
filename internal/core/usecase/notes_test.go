package usecase

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/notewise/internal/core/domain"
)

func fixedClock(ms int64) func() int64 {
	return func() int64 { return ms }
}

func TestCreateCategorizesThenPersists(t *testing.T) {
	repo := newNoteRepoFake()
	bus := &busFake{}
	categorizer := &categorizerFake{labels: []string{"Work"}}
	uc := NewNoteUseCase(repo, categorizer, bus, WithClock(fixedClock(1000)))

	note, cat, err := uc.Create(context.Background(), strPtr("  Standup "), "notes from standup")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if note.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}
	if note.TitleOrEmpty() != "Standup" {
		t.Fatalf("expected trimmed title, got %q", note.TitleOrEmpty())
	}
	if !reflect.DeepEqual(note.Categories, []string{"Work"}) || !reflect.DeepEqual(cat.Labels, note.Categories) {
		t.Fatalf("unexpected categories %v / %v", note.Categories, cat.Labels)
	}
	if note.Timestamp != 1000 {
		t.Fatalf("expected timestamp 1000, got %d", note.Timestamp)
	}
	if !reflect.DeepEqual(bus.kinds(), []domain.NoteEventKind{domain.NoteCreated}) {
		t.Fatalf("expected created event, got %v", bus.kinds())
	}
}

func TestCreateRejectsBlankContent(t *testing.T) {
	repo := newNoteRepoFake()
	categorizer := &categorizerFake{labels: []string{"Work"}}
	uc := NewNoteUseCase(repo, categorizer, &busFake{})

	_, _, err := uc.Create(context.Background(), nil, " \n\t ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if repo.creates != 0 {
		t.Fatalf("expected no persistence call, got %d", repo.creates)
	}
	if categorizer.calls != 0 {
		t.Fatalf("expected no categorization call, got %d", categorizer.calls)
	}
}

func TestCreateBlankTitleBecomesNil(t *testing.T) {
	uc := NewNoteUseCase(newNoteRepoFake(), &categorizerFake{labels: []string{"Ideas"}}, &busFake{})

	note, _, err := uc.Create(context.Background(), strPtr("   "), "content")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if note.Title != nil {
		t.Fatalf("expected nil title, got %q", *note.Title)
	}
}

func TestCreateRejectsLongTitle(t *testing.T) {
	repo := newNoteRepoFake()
	uc := NewNoteUseCase(repo, &categorizerFake{labels: []string{"Ideas"}}, &busFake{})

	_, _, err := uc.Create(context.Background(), strPtr(strings.Repeat("é", domain.MaxTitleRunes+1)), "content")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if repo.creates != 0 {
		t.Fatalf("expected no persistence call")
	}
}

func TestCreateClassifierFailureStillSaves(t *testing.T) {
	repo := newNoteRepoFake()
	categorizer := NewCategorizeUseCase(&classifierFake{err: errors.New("boom")}, &stateFake{}, DefaultCategoryPolicy())
	uc := NewNoteUseCase(repo, categorizer, &busFake{})

	note, cat, err := uc.Create(context.Background(), nil, "draft blog post")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if cat.Err == nil {
		t.Fatalf("expected surfaced classifier error")
	}
	if !reflect.DeepEqual(note.Categories, []string{"Ideas"}) {
		t.Fatalf("expected fallback category, got %v", note.Categories)
	}
	if repo.creates != 1 {
		t.Fatalf("expected note to be persisted")
	}
}

func TestCreatePublishesToExternalPublisher(t *testing.T) {
	publisher := &publisherFake{err: errors.New("nats down")}
	uc := NewNoteUseCase(
		newNoteRepoFake(),
		&categorizerFake{labels: []string{"Ideas"}},
		&busFake{},
		WithEventPublisher(publisher, "api-1"),
	)

	if _, _, err := uc.Create(context.Background(), nil, "x"); err != nil {
		t.Fatalf("publisher failures must not fail the save, got %v", err)
	}
	if len(publisher.events) != 1 || publisher.events[0].Origin != "api-1" {
		t.Fatalf("unexpected published events %+v", publisher.events)
	}
}

func TestToggleBookmarkFlipsOnlyFlag(t *testing.T) {
	original := domain.Note{
		ID:         7,
		Title:      strPtr("Groceries"),
		Content:    "milk, eggs",
		Categories: []string{"Shopping"},
		Timestamp:  42,
	}
	repo := newNoteRepoFake(original)
	categorizer := &categorizerFake{labels: []string{"Work"}}
	uc := NewNoteUseCase(repo, categorizer, &busFake{}, WithClock(fixedClock(9999)))

	toggled, err := uc.ToggleBookmark(context.Background(), 7)
	if err != nil {
		t.Fatalf("ToggleBookmark() error = %v", err)
	}

	want := original
	want.Bookmarked = true
	if !reflect.DeepEqual(*toggled, want) {
		t.Fatalf("expected only bookmark flipped\n got: %+v\nwant: %+v", *toggled, want)
	}
	if categorizer.calls != 0 {
		t.Fatalf("toggle must not recategorize")
	}

	again, err := uc.ToggleBookmark(context.Background(), 7)
	if err != nil {
		t.Fatalf("ToggleBookmark() error = %v", err)
	}
	if again.Bookmarked {
		t.Fatalf("expected bookmark cleared on second toggle")
	}
}

func TestUpdateRecategorizesAndRefreshesTimestamp(t *testing.T) {
	repo := newNoteRepoFake(domain.Note{ID: 3, Content: "old", Categories: []string{"Ideas"}, Bookmarked: true, Timestamp: 1})
	uc := NewNoteUseCase(repo, &categorizerFake{labels: []string{"Travel"}}, &busFake{}, WithClock(fixedClock(500)))

	note, _, err := uc.Update(context.Background(), 3, strPtr("Trip"), "book flights")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if note.Content != "book flights" || note.TitleOrEmpty() != "Trip" {
		t.Fatalf("unexpected note %+v", note)
	}
	if !reflect.DeepEqual(note.Categories, []string{"Travel"}) {
		t.Fatalf("expected recategorized, got %v", note.Categories)
	}
	if note.Timestamp != 500 || !note.Bookmarked {
		t.Fatalf("expected refreshed timestamp and kept bookmark, got %+v", note)
	}
}

func TestUpdateMissingNoteReturnsNotFound(t *testing.T) {
	uc := NewNoteUseCase(newNoteRepoFake(), &categorizerFake{labels: []string{"Ideas"}}, &busFake{})

	_, _, err := uc.Update(context.Background(), 404, nil, "text")
	if !domain.IsKind(err, domain.ErrNoteNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteEmitsEvent(t *testing.T) {
	repo := newNoteRepoFake(domain.Note{ID: 1, Content: "x"})
	bus := &busFake{}
	uc := NewNoteUseCase(repo, &categorizerFake{}, bus)

	if err := uc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(context.Background(), 1); err == nil {
		t.Fatalf("expected note removed")
	}
	if !reflect.DeepEqual(bus.kinds(), []domain.NoteEventKind{domain.NoteDeleted}) {
		t.Fatalf("expected deleted event, got %v", bus.kinds())
	}
	if err := uc.Delete(context.Background(), 1); !domain.IsKind(err, domain.ErrNoteNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListAppliesFilterNewestFirst(t *testing.T) {
	repo := newNoteRepoFake(
		domain.Note{ID: 1, Content: "Buy shoes", Categories: []string{"Shopping"}, Timestamp: 1},
		domain.Note{ID: 2, Title: strPtr("Flight"), Content: "to Oslo", Categories: []string{"Travel"}, Bookmarked: true, Timestamp: 3},
		domain.Note{ID: 3, Content: "shopping for gifts", Categories: []string{"Shopping", "Personal"}, Bookmarked: true, Timestamp: 2},
	)
	uc := NewNoteUseCase(repo, &categorizerFake{}, &busFake{})

	all, err := uc.List(context.Background(), domain.NoteFilter{Category: domain.CategoryAll})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if ids(all) != "2,3,1" {
		t.Fatalf("expected newest first, got %s", ids(all))
	}

	shopping, _ := uc.List(context.Background(), domain.NoteFilter{Category: "Shopping", Search: "SHOP"})
	if ids(shopping) != "3" {
		t.Fatalf("expected note 3 only, got %s", ids(shopping))
	}

	bookmarked, _ := uc.List(context.Background(), domain.NoteFilter{BookmarkedOnly: true, Search: "flight"})
	if ids(bookmarked) != "2" {
		t.Fatalf("expected title search to match note 2, got %s", ids(bookmarked))
	}
}

func TestWatchEmitsSnapshotsUntilCancelled(t *testing.T) {
	repo := newNoteRepoFake()
	bus := &busFake{}
	uc := NewNoteUseCase(repo, &categorizerFake{labels: []string{"Ideas"}}, bus)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := uc.Watch(ctx, domain.NoteFilter{})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	first := receive(t, stream)
	if len(first) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d", len(first))
	}

	if _, _, err := uc.Create(context.Background(), nil, "hello"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second := receive(t, stream)
	if len(second) != 1 || second[0].Content != "hello" {
		t.Fatalf("expected snapshot with new note, got %+v", second)
	}

	cancel()
	select {
	case _, ok := <-stream:
		if ok {
			// a snapshot may race with cancellation; the channel must close next
			if _, ok := <-stream; ok {
				t.Fatalf("expected stream closed after cancel")
			}
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for stream close")
	}
}

func TestUpdateSerializesPerNote(t *testing.T) {
	repo := newNoteRepoFake(domain.Note{ID: 1, Content: "x"})
	classifier := &classifierFake{
		result: domain.ZeroShotResult{Scores: []domain.LabelScore{{Label: "Work", Score: 0.9}}},
		block:  make(chan struct{}),
	}
	categorizer := NewCategorizeUseCase(classifier, nil, DefaultCategoryPolicy())
	uc := NewNoteUseCase(repo, categorizer, &busFake{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = uc.Update(context.Background(), 1, nil, "weekly report")
		}()
	}

	time.Sleep(50 * time.Millisecond)
	if got := classifier.callCount(); got != 1 {
		t.Fatalf("expected one in-flight classification, got %d", got)
	}
	close(classifier.block)
	wg.Wait()

	if got := classifier.callCount(); got != 2 {
		t.Fatalf("expected both updates to classify in turn, got %d", got)
	}
}

func TestRecategorizeSurvivesCancelledFirstCaller(t *testing.T) {
	repo := newNoteRepoFake(domain.Note{ID: 1, Content: "quarterly budget review"})
	classifier := &classifierFake{
		result: domain.ZeroShotResult{Scores: []domain.LabelScore{{Label: "Finance", Score: 0.9}}},
		block:  make(chan struct{}),
	}
	state := &stateFake{}
	uc := NewNoteUseCase(repo, NewCategorizeUseCase(classifier, state, DefaultCategoryPolicy()), &busFake{})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := uc.Recategorize(firstCtx, 1)
		firstErr <- err
	}()
	waitFor(t, func() bool { return classifier.callCount() == 1 })

	type result struct {
		note *domain.Note
		err  error
	}
	second := make(chan result, 1)
	go func() {
		note, _, err := uc.Recategorize(context.Background(), 1)
		second <- result{note: note, err: err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller error = %v, want context.Canceled", err)
	}

	close(classifier.block)
	got := <-second
	if got.err != nil {
		t.Fatalf("second caller error = %v", got.err)
	}
	if !reflect.DeepEqual(got.note.Categories, []string{"Finance"}) {
		t.Fatalf("unexpected categories %v", got.note.Categories)
	}
	if classifier.callCount() != 1 {
		t.Fatalf("expected one shared classification, got %d", classifier.callCount())
	}
	if last := state.last(); last.Phase != domain.PhaseSuccess {
		t.Fatalf("request state = %+v, want success", last)
	}
}

func TestRecategorizeSharedRunHasOwnDeadline(t *testing.T) {
	repo := newNoteRepoFake(domain.Note{ID: 1, Content: "quarterly budget review"})
	classifier := &classifierFake{block: make(chan struct{})}
	uc := NewNoteUseCase(repo, NewCategorizeUseCase(classifier, nil, DefaultCategoryPolicy()), &busFake{},
		WithRecategorizeTimeout(20*time.Millisecond))

	_, _, err := uc.Recategorize(context.Background(), 1)
	if !domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Recategorize() error = %v, want temporary deadline", err)
	}
	if repo.updates != 0 {
		t.Fatalf("expected no update after timeout, got %d", repo.updates)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecategorizeKeepsTimestamp(t *testing.T) {
	repo := newNoteRepoFake(domain.Note{ID: 5, Content: "gym at 7", Categories: []string{"Ideas"}, Timestamp: 10})
	uc := NewNoteUseCase(repo, &categorizerFake{labels: []string{"Health"}}, &busFake{}, WithClock(fixedClock(99)))

	note, cat, err := uc.Recategorize(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recategorize() error = %v", err)
	}
	if !reflect.DeepEqual(note.Categories, []string{"Health"}) || !reflect.DeepEqual(cat.Labels, []string{"Health"}) {
		t.Fatalf("unexpected categories %v", note.Categories)
	}
	if note.Timestamp != 10 {
		t.Fatalf("expected timestamp unchanged, got %d", note.Timestamp)
	}
}

func TestRecategorizeAllEnqueuesEveryNote(t *testing.T) {
	repo := newNoteRepoFake(domain.Note{ID: 1, Timestamp: 1}, domain.Note{ID: 2, Timestamp: 2})
	queue := &recategorizeQueueFake{}
	uc := NewRecategorizeAllUseCase(repo, queue)

	n, err := uc.EnqueueAll(context.Background())
	if err != nil {
		t.Fatalf("EnqueueAll() error = %v", err)
	}
	if n != 2 || !reflect.DeepEqual(queue.published, []int64{2, 1}) {
		t.Fatalf("unexpected enqueue result n=%d ids=%v", n, queue.published)
	}
}

func TestRecategorizeAllReportsPartialProgress(t *testing.T) {
	repo := newNoteRepoFake(domain.Note{ID: 1, Timestamp: 1}, domain.Note{ID: 2, Timestamp: 2})
	uc := NewRecategorizeAllUseCase(repo, &recategorizeQueueFake{failAfter: 1})

	n, err := uc.EnqueueAll(context.Background())
	if err == nil || n != 1 {
		t.Fatalf("expected failure after first publish, got n=%d err=%v", n, err)
	}
}

func receive(t *testing.T, stream <-chan []domain.Note) []domain.Note {
	t.Helper()
	select {
	case notes, ok := <-stream:
		if !ok {
			t.Fatalf("stream closed unexpectedly")
		}
		return notes
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return nil
}

func ids(notes []domain.Note) string {
	parts := make([]string, 0, len(notes))
	for _, note := range notes {
		parts = append(parts, strconv.FormatInt(note.ID, 10))
	}
	return strings.Join(parts, ",")
}
