// Package session keeps presenters alive between requests so a client
// walking through the wizard reuses its bindings and texture clones.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/solfactory/cone-renderer/customization"
	"github.com/solfactory/cone-renderer/internal/logging"
	"github.com/solfactory/cone-renderer/preview"
)

const DefaultTTL = 15 * time.Minute

// Session is one client's set of presenters and the last state it sent.
type Session struct {
	ID string

	tex preview.Textures

	mu         sync.Mutex
	state      customization.State
	presenters map[string]preview.Presenter
	lastUsed   time.Time
	closed     bool

	eventsMu sync.Mutex
	events   []string
}

func presenterKey(view preview.View, opts preview.Options) string {
	if view != preview.ViewThumbnail {
		return string(view)
	}
	kind := opts.Kind
	if kind == "" {
		kind = preview.ThumbnailPaper
	}
	return fmt.Sprintf("%s:%s", view, kind)
}

// Presenter returns the session's presenter for view, creating it on first
// use, and applies opts to it.
func (s *Session) Presenter(view preview.View, opts preview.Options) (preview.Presenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("session %s is closed", s.ID)
	}
	key := presenterKey(view, opts)
	if p, ok := s.presenters[key]; ok {
		p.Configure(opts)
		return p, nil
	}

	p, err := preview.New(view, s.tex, preview.Options{Kind: opts.Kind})
	if err != nil {
		return nil, err
	}
	switch p := p.(type) {
	case *preview.FilterPresenter:
		p.OnTransitionComplete(func() { s.record("transition-complete") })
	case *preview.ThumbnailPresenter:
		kind := p.Kind()
		p.OnToggle(func(expanded bool) {
			if expanded {
				s.record(fmt.Sprintf("%s-expanded", kind))
			} else {
				s.record(fmt.Sprintf("%s-collapsed", kind))
			}
		})
	}
	p.Update(s.state)
	p.Configure(opts)
	s.presenters[key] = p
	return p, nil
}

// Update forwards state to every presenter in the session.
func (s *Session) Update(state customization.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = state
	for _, p := range s.presenters {
		p.Update(state)
	}
}

func (s *Session) State() customization.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) record(event string) {
	s.eventsMu.Lock()
	s.events = append(s.events, event)
	s.eventsMu.Unlock()
}

// Events returns and clears the events raised since the last call.
func (s *Session) Events() []string {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	out := s.events
	s.events = nil
	return out
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, p := range s.presenters {
		p.Close()
	}
	s.presenters = nil
}

// Store holds sessions by client id and evicts idle ones.
type Store struct {
	tex preview.Textures
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(tex preview.Textures, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		tex:      tex,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it if needed, and marks it used.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		s = &Session{ID: id, tex: st.tex, presenters: make(map[string]preview.Presenter)}
		st.sessions[id] = s
		logging.Logger().Debug("session opened", "id", id)
	}
	s.lastUsed = st.now()
	return s
}

// Close disposes the session's presenters and forgets it.
func (st *Store) Close(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.close()
	}
	return ok
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep closes sessions idle for longer than the TTL and reports how many
// it closed.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.ttl)
	var stale []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.lastUsed.Before(cutoff) {
			stale = append(stale, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	if len(stale) > 0 {
		logging.Logger().Info("evicted idle sessions", "count", len(stale))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = st.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

// Reset closes every session. Clients get fresh presenters on their next
// request.
func (st *Store) Reset() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}

// Shutdown closes every session.
func (st *Store) Shutdown() {
	st.Reset()
	logging.Logger().Info("session store shut down")
}
