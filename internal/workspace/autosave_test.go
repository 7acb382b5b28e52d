package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inkfold/internal/domain/models/docsystem"
)

type saveCall struct {
	patch docsystem.DocumentPatch
	at    time.Time
}

// saveRecorder is an autosave Save func that records calls. When block is
// set each call waits for a value on release.
type saveRecorder struct {
	clock   *fakeClock
	block   bool
	started chan struct{}
	release chan error

	mu    sync.Mutex
	calls []saveCall
}

func newSaveRecorder(clock *fakeClock, block bool) *saveRecorder {
	return &saveRecorder{
		clock:   clock,
		block:   block,
		started: make(chan struct{}, 10),
		release: make(chan error),
	}
}

func (r *saveRecorder) save(ctx context.Context, patch docsystem.DocumentPatch) (*docsystem.Document, error) {
	r.mu.Lock()
	r.calls = append(r.calls, saveCall{patch: patch, at: r.clock.Now()})
	r.mu.Unlock()

	r.started <- struct{}{}
	if r.block {
		if err := <-r.release; err != nil {
			return nil, err
		}
	}
	return &docsystem.Document{ID: "d1"}, nil
}

func (r *saveRecorder) snapshot() []saveCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]saveCall(nil), r.calls...)
}

func newTestAutosave(clock *fakeClock, rec *saveRecorder, onErr func(error)) *Autosave {
	doc := docsystem.Document{ID: "d1", Title: "Draft", Content: "hello"}
	return NewAutosave(context.Background(), doc, AutosaveConfig{
		Clock:   clock,
		Save:    rec.save,
		OnError: onErr,
	})
}

func TestAutosave_DebouncesToOneWrite(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	rec := newSaveRecorder(clock, false)
	a := newTestAutosave(clock, rec, nil)

	a.SetContent("hello w")
	clock.Advance(time.Second)
	a.SetContent("hello world")

	clock.Advance(1400 * time.Millisecond)
	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("saved %d times before the quiet period ended", n)
	}
	if got := a.Status().State; got != SaveDirty {
		t.Errorf("State = %q, want dirty", got)
	}

	clock.Advance(100 * time.Millisecond)
	a.Wait()

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("saved %d times, want 1", len(calls))
	}
	if calls[0].patch.Content == nil || *calls[0].patch.Content != "hello world" {
		t.Errorf("saved content = %v, want the last edit", calls[0].patch.Content)
	}
	if elapsed := calls[0].at.Sub(start); elapsed < 2500*time.Millisecond {
		t.Errorf("saved at t=%v, want no earlier than 2.5s", elapsed)
	}
	if got := a.Status().State; got != SaveClean {
		t.Errorf("State = %q, want clean", got)
	}
}

func TestAutosave_SendsOnlyChangedFields(t *testing.T) {
	tests := []struct {
		name        string
		edit        func(a *Autosave)
		wantTitle   bool
		wantContent bool
		wantSave    bool
	}{
		{name: "title only", edit: func(a *Autosave) { a.SetTitle("Final") }, wantTitle: true, wantSave: true},
		{name: "content only", edit: func(a *Autosave) { a.SetContent("bye") }, wantContent: true, wantSave: true},
		{
			name:        "both",
			edit:        func(a *Autosave) { a.SetTitle("Final"); a.SetContent("bye") },
			wantTitle:   true,
			wantContent: true,
			wantSave:    true,
		},
		{name: "edited back to saved value", edit: func(a *Autosave) { a.SetTitle("x"); a.SetTitle("Draft") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			rec := newSaveRecorder(clock, false)
			a := newTestAutosave(clock, rec, nil)

			tt.edit(a)
			clock.Advance(DefaultAutosaveDelay)
			a.Wait()

			calls := rec.snapshot()
			if !tt.wantSave {
				if len(calls) != 0 {
					t.Errorf("saved %d times, want 0", len(calls))
				}
				return
			}
			if len(calls) != 1 {
				t.Fatalf("saved %d times, want 1", len(calls))
			}
			if (calls[0].patch.Title != nil) != tt.wantTitle {
				t.Errorf("patch title = %v, want present=%v", calls[0].patch.Title, tt.wantTitle)
			}
			if (calls[0].patch.Content != nil) != tt.wantContent {
				t.Errorf("patch content = %v, want present=%v", calls[0].patch.Content, tt.wantContent)
			}
		})
	}
}

func TestAutosave_OneSaveInFlight(t *testing.T) {
	clock := newFakeClock()
	rec := newSaveRecorder(clock, true)
	a := newTestAutosave(clock, rec, nil)

	a.SetTitle("First")
	clock.Advance(DefaultAutosaveDelay)
	<-rec.started
	if got := a.Status().State; got != SaveSaving {
		t.Fatalf("State = %q, want saving", got)
	}

	// Edit during the save; its timer fires while the first save runs
	a.SetContent("typed while saving")
	clock.Advance(DefaultAutosaveDelay)
	if n := len(rec.snapshot()); n != 1 {
		t.Fatalf("second save started while the first was in flight (%d calls)", n)
	}

	rec.release <- nil
	<-rec.started
	rec.release <- nil
	a.Wait()

	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("saved %d times, want 2", len(calls))
	}
	second := calls[1].patch
	if second.Title != nil {
		t.Error("second save resent the already saved title")
	}
	if second.Content == nil || *second.Content != "typed while saving" {
		t.Errorf("second save content = %v", second.Content)
	}
	if got := a.Status().State; got != SaveClean {
		t.Errorf("State = %q, want clean", got)
	}
}

func TestAutosave_FailureLeavesDirtyWithoutRetry(t *testing.T) {
	clock := newFakeClock()
	rec := newSaveRecorder(clock, true)

	var mu sync.Mutex
	var reported []error
	a := newTestAutosave(clock, rec, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	})

	a.SetContent("lost?")
	clock.Advance(DefaultAutosaveDelay)
	<-rec.started
	rec.release <- errors.New("connection reset")
	a.Wait()

	status := a.Status()
	if status.State != SaveDirty {
		t.Errorf("State = %q, want dirty", status.State)
	}
	if status.Err == nil || a.LastError() == nil {
		t.Error("save failure not surfaced")
	}
	mu.Lock()
	if len(reported) != 1 {
		t.Errorf("OnError called %d times, want 1", len(reported))
	}
	mu.Unlock()

	clock.Advance(time.Minute)
	a.Wait()
	if n := len(rec.snapshot()); n != 1 {
		t.Fatalf("failed save was retried (%d calls)", n)
	}

	// The next edit saves everything still unsaved and clears the error
	a.SetTitle("Draft 2")
	clock.Advance(DefaultAutosaveDelay)
	<-rec.started
	rec.release <- nil
	a.Wait()

	calls := rec.snapshot()
	last := calls[len(calls)-1].patch
	if last.Content == nil || last.Title == nil {
		t.Errorf("retry by edit should send both fields, got %+v", last)
	}
	if a.LastError() != nil {
		t.Errorf("LastError() = %v after a successful save", a.LastError())
	}
}

func TestAutosave_CloseFlushesPendingEdits(t *testing.T) {
	clock := newFakeClock()
	rec := newSaveRecorder(clock, false)
	a := newTestAutosave(clock, rec, nil)

	a.SetContent("unsaved")
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0].patch.Content == nil || *calls[0].patch.Content != "unsaved" {
		t.Fatalf("Close() did not flush: %+v", calls)
	}
	if clock.pendingTimers() != 0 {
		t.Error("Close() left a timer running")
	}

	a.SetContent("after close")
	clock.Advance(time.Minute)
	if n := len(rec.snapshot()); n != 1 {
		t.Errorf("edits after Close() were saved (%d calls)", n)
	}
}

func TestAutosave_CleanCloseDoesNotWrite(t *testing.T) {
	clock := newFakeClock()
	rec := newSaveRecorder(clock, false)
	a := newTestAutosave(clock, rec, nil)

	if err := a.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("saved %d times, want 0", n)
	}
}
