package workspace

import (
	"context"
	"strings"
	"sync"
	"time"

	"inkfold/internal/domain/models/docsystem"
)

// DefaultSearchDelay is the quiet period after the last input change
const DefaultSearchDelay = 300 * time.Millisecond

// Scope selects which documents a search covers
type Scope string

const (
	ScopeFolder Scope = "folder"
	ScopeAll    Scope = "all"
)

// SearchConfig wires a Search controller
type SearchConfig struct {
	Delay time.Duration
	Clock Clock

	Search func(ctx context.Context, query string, folderID *string) ([]docsystem.Document, error)

	// Local returns the list shown when no query is active
	Local func() []docsystem.Document

	OnResults func([]docsystem.Document)
	OnError   func(error)
}

// Search debounces query input and keeps only the newest response. Each
// fire takes a sequence number and a response is applied only when its
// number is still the latest.
type Search struct {
	cfg   SearchConfig
	clock Clock
	ctx   context.Context

	mu       sync.Mutex
	query    string
	scope    Scope
	folderID string
	timer    Timer
	timerGen uint64
	seq      uint64
	active   bool // results below override the local list
	results  []docsystem.Document

	// emitMu orders OnResults calls; emitted is the newest fire delivered
	emitMu  sync.Mutex
	emitted uint64

	wg sync.WaitGroup
}

// NewSearch creates an idle controller scoped to folderID
func NewSearch(ctx context.Context, folderID string, cfg SearchConfig) *Search {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultSearchDelay
	}
	return &Search{
		cfg:      cfg,
		clock:    clockOrReal(cfg.Clock),
		ctx:      context.WithoutCancel(ctx),
		scope:    ScopeFolder,
		folderID: folderID,
	}
}

// SetQuery changes the query text
func (s *Search) SetQuery(query string) {
	s.change(func() { s.query = query })
}

// SetScope switches between the current folder and all folders
func (s *Search) SetScope(scope Scope) {
	s.change(func() { s.scope = scope })
}

// SetFolder changes the folder searched in ScopeFolder
func (s *Search) SetFolder(folderID string) {
	s.change(func() { s.folderID = folderID })
}

func (s *Search) change(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = s.clock.AfterFunc(s.cfg.Delay, func() { s.fire(gen) })
}

func (s *Search) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.seq++
	seq := s.seq

	query := strings.TrimSpace(s.query)
	if query == "" {
		s.active = false
		s.results = nil
		s.mu.Unlock()
		s.emit(seq, s.local())
		return
	}

	var folderID *string
	if s.scope != ScopeAll {
		id := s.folderID
		folderID = &id
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		results, err := s.cfg.Search(s.ctx, query, folderID)

		s.mu.Lock()
		if seq != s.seq {
			s.mu.Unlock()
			return
		}
		if err != nil {
			s.mu.Unlock()
			if s.cfg.OnError != nil {
				s.cfg.OnError(err)
			}
			return
		}
		if results == nil {
			results = []docsystem.Document{}
		}
		s.active = true
		s.results = results
		s.mu.Unlock()

		s.emit(seq, append([]docsystem.Document(nil), results...))
	}()
}

// Active reports whether search results currently replace the local list
func (s *Search) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Query returns the raw query text
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Scope returns the current scope
func (s *Search) Scope() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Displayed returns the search results while a query is active and the
// local list otherwise
func (s *Search) Displayed() []docsystem.Document {
	s.mu.Lock()
	if s.active {
		out := append([]docsystem.Document(nil), s.results...)
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()
	return s.local()
}

// Stop cancels a pending timer. Responses still in flight are ignored.
func (s *Search) Stop() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
	s.seq++
	s.mu.Unlock()
}

// Wait blocks until in-flight searches returned
func (s *Search) Wait() {
	s.wg.Wait()
}

func (s *Search) local() []docsystem.Document {
	if s.cfg.Local == nil {
		return []docsystem.Document{}
	}
	return s.cfg.Local()
}

// emit delivers the list produced by fire seq unless a newer fire already
// delivered its own
func (s *Search) emit(seq uint64, docs []docsystem.Document) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if seq <= s.emitted {
		return
	}
	s.emitted = seq
	if s.cfg.OnResults != nil {
		s.cfg.OnResults(docs)
	}
}
