package workspace

import (
	"context"
	"sync"
	"time"

	"inkfold/internal/domain/models/docsystem"
)

// DefaultAutosaveDelay is the quiet period after the last edit before a save
const DefaultAutosaveDelay = 1500 * time.Millisecond

// SaveState is the autosave lifecycle state
type SaveState string

const (
	SaveClean  SaveState = "clean"  // editor matches the last saved snapshot
	SaveDirty  SaveState = "dirty"  // unsaved edits
	SaveSaving SaveState = "saving" // a save is in flight
)

// SaveStatus is what an editor shows about persistence
type SaveStatus struct {
	State       SaveState
	LastSavedAt time.Time
	Err         error // last save failure, cleared by the next success
}

// AutosaveConfig wires an Autosave controller
type AutosaveConfig struct {
	Delay time.Duration
	Clock Clock

	// Save persists the changed fields
	Save func(ctx context.Context, patch docsystem.DocumentPatch) (*docsystem.Document, error)

	OnStatus func(SaveStatus)
	OnSaved  func(docsystem.Document)
	OnError  func(error)
}

type draft struct {
	title   string
	content string
}

// Autosave persists editor changes after a quiet period. Only fields that
// differ from the last saved snapshot are sent, at most one save is in
// flight, and a failed save leaves the edits dirty without retrying.
type Autosave struct {
	cfg   AutosaveConfig
	clock Clock
	ctx   context.Context

	mu          sync.Mutex
	saved       draft
	current     draft
	timer       Timer
	timerGen    uint64
	saving      bool
	saveDone    chan struct{}
	refire      bool // timer fired during a save
	closed      bool
	lastErr     error
	lastSavedAt time.Time

	wg sync.WaitGroup
}

// NewAutosave starts clean at doc. Saves triggered by timers run with ctx.
func NewAutosave(ctx context.Context, doc docsystem.Document, cfg AutosaveConfig) *Autosave {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultAutosaveDelay
	}
	snapshot := draft{title: doc.Title, content: doc.Content}
	return &Autosave{
		cfg:         cfg,
		clock:       clockOrReal(cfg.Clock),
		ctx:         context.WithoutCancel(ctx),
		saved:       snapshot,
		current:     snapshot,
		lastSavedAt: doc.UpdatedAt,
	}
}

// SetTitle records a title edit and restarts the timer
func (a *Autosave) SetTitle(title string) {
	a.edit(func(d *draft) { d.title = title })
}

// SetContent records a content edit and restarts the timer
func (a *Autosave) SetContent(content string) {
	a.edit(func(d *draft) { d.content = content })
}

func (a *Autosave) edit(fn func(*draft)) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	fn(&a.current)
	a.refire = false // the restarted timer supersedes a deferred fire
	a.restartTimerLocked()
	status := a.statusLocked()
	a.mu.Unlock()

	a.emitStatus(status)
}

func (a *Autosave) restartTimerLocked() {
	a.stopTimerLocked()
	a.timerGen++
	gen := a.timerGen
	a.timer = a.clock.AfterFunc(a.cfg.Delay, func() { a.fire(gen) })
}

func (a *Autosave) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.timerGen++
}

// fire runs when the debounce timer expires
func (a *Autosave) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.timerGen || a.closed {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	if a.saving {
		a.refire = true
		a.mu.Unlock()
		return
	}
	patch, sent, ok := a.beginSaveLocked()
	status := a.statusLocked()
	if ok {
		a.wg.Add(1)
	}
	a.mu.Unlock()

	if !ok {
		return
	}
	a.emitStatus(status)

	go func() {
		defer a.wg.Done()
		a.save(a.ctx, patch, sent)
	}()
}

// beginSaveLocked diffs against the saved snapshot and marks a save in
// flight when anything changed
func (a *Autosave) beginSaveLocked() (docsystem.DocumentPatch, draft, bool) {
	patch := a.diffLocked()
	if patch.IsEmpty() {
		return patch, draft{}, false
	}
	a.saving = true
	a.saveDone = make(chan struct{})
	return patch, a.current, true
}

func (a *Autosave) diffLocked() docsystem.DocumentPatch {
	var patch docsystem.DocumentPatch
	if a.current.title != a.saved.title {
		title := a.current.title
		patch.Title = &title
	}
	if a.current.content != a.saved.content {
		content := a.current.content
		patch.Content = &content
	}
	return patch
}

func (a *Autosave) save(ctx context.Context, patch docsystem.DocumentPatch, sent draft) error {
	doc, err := a.cfg.Save(ctx, patch)

	a.mu.Lock()
	a.saving = false
	close(a.saveDone)
	if err != nil {
		a.lastErr = err
	} else {
		a.saved = sent
		a.lastErr = nil
		a.lastSavedAt = a.clock.Now()
		if doc != nil && !doc.UpdatedAt.IsZero() {
			a.lastSavedAt = doc.UpdatedAt
		}
	}
	refire := a.refire && !a.closed
	a.refire = false
	status := a.statusLocked()
	if refire {
		a.timerGen++
	}
	gen := a.timerGen
	a.mu.Unlock()

	if err != nil {
		if a.cfg.OnError != nil {
			a.cfg.OnError(err)
		}
	} else if a.cfg.OnSaved != nil && doc != nil {
		a.cfg.OnSaved(*doc)
	}
	a.emitStatus(status)

	if refire {
		a.fire(gen)
	}
	return err
}

// Flush cancels the timer and saves pending edits now, waiting for a save
// already in flight first
func (a *Autosave) Flush(ctx context.Context) error {
	for {
		a.mu.Lock()
		a.stopTimerLocked()
		if a.saving {
			done := a.saveDone
			a.refire = false
			a.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		patch, sent, ok := a.beginSaveLocked()
		status := a.statusLocked()
		a.mu.Unlock()

		if !ok {
			return nil
		}
		a.emitStatus(status)
		return a.save(ctx, patch, sent)
	}
}

// Close flushes pending edits and stops the controller
func (a *Autosave) Close(ctx context.Context) error {
	err := a.Flush(ctx)

	a.mu.Lock()
	a.closed = true
	a.stopTimerLocked()
	a.mu.Unlock()

	a.wg.Wait()
	return err
}

// Status returns the current save status
func (a *Autosave) Status() SaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusLocked()
}

// LastError returns the last save failure, nil after a successful save
func (a *Autosave) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Title and Content return the editor's current values
func (a *Autosave) Title() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current.title
}

func (a *Autosave) Content() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current.content
}

// Wait blocks until timer-triggered saves finished
func (a *Autosave) Wait() {
	a.wg.Wait()
}

func (a *Autosave) statusLocked() SaveStatus {
	state := SaveClean
	switch {
	case a.saving:
		state = SaveSaving
	case a.current != a.saved:
		state = SaveDirty
	}
	return SaveStatus{State: state, LastSavedAt: a.lastSavedAt, Err: a.lastErr}
}

func (a *Autosave) emitStatus(status SaveStatus) {
	if a.cfg.OnStatus != nil {
		a.cfg.OnStatus(status)
	}
}
