package texture

import (
	"context"
	"sync"

	"github.com/solfactory/cone-renderer/internal/logging"
)

// State is where a Binding is in its lifecycle.
type State int

const (
	Unbound State = iota
	Loading
	Bound
	// Failed is only ever reported as a transition; a failed binding
	// settles in Unbound.
	Failed
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Loading:
		return "loading"
	case Bound:
		return "bound"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Binding follows one optional URL for one consumer. It never disposes the
// resources it hands out: those belong to the Cache.
type Binding struct {
	cache Cache

	mu           sync.Mutex
	url          string
	res          *Resource
	state        State
	err          error
	seq          uint64
	done         chan struct{}
	onTransition func(from, to State)
	closed       bool
}

// NewBinding starts following url. A cached url is bound before NewBinding
// returns.
func NewBinding(cache Cache, url string) *Binding {
	b := &Binding{cache: cache, done: closedChan()}
	b.Set(url)
	return b
}

// OnTransition registers fn to be called on every state change. fn runs
// without the binding's lock held.
func (b *Binding) OnTransition(fn func(from, to State)) {
	b.mu.Lock()
	b.onTransition = fn
	b.mu.Unlock()
}

// Set points the binding at url. Setting the current url again does nothing.
func (b *Binding) Set(url string) {
	b.mu.Lock()
	if b.closed || (url == b.url && b.state != Unbound) || (url == "" && b.url == "") {
		b.mu.Unlock()
		return
	}
	b.seq++
	b.url = url
	b.err = nil
	from := b.state

	if url == "" {
		b.res = nil
		b.state = Unbound
		b.settle()
		fn := b.onTransition
		b.mu.Unlock()
		notify(fn, from, Unbound)
		return
	}

	if r, ok := b.cache.Get(url); ok {
		b.res = r
		b.state = Bound
		b.settle()
		fn := b.onTransition
		b.mu.Unlock()
		notify(fn, from, Bound)
		return
	}

	b.res = nil
	b.state = Loading
	closeIfOpen(b.done)
	b.done = make(chan struct{})
	seq, done := b.seq, b.done
	fn := b.onTransition
	b.mu.Unlock()
	notify(fn, from, Loading)

	go b.resolve(url, seq, done)
}

func (b *Binding) resolve(url string, seq uint64, done chan struct{}) {
	r, err := b.cache.Load(context.Background(), url)

	b.mu.Lock()
	defer closeIfOpen(done)
	if seq != b.seq || b.closed {
		b.mu.Unlock()
		return
	}
	fn := b.onTransition
	if err != nil {
		logging.Logger().Warn("texture binding fell back to flat color", "url", truncate(url), "err", err)
		b.res = nil
		b.err = err
		b.state = Unbound
		b.mu.Unlock()
		notify(fn, Loading, Failed)
		notify(fn, Failed, Unbound)
		return
	}
	b.res = r
	b.state = Bound
	b.mu.Unlock()
	notify(fn, Loading, Bound)
}

// settle marks any pending wait as finished. Callers hold b.mu.
func (b *Binding) settle() {
	closeIfOpen(b.done)
	b.done = closedChan()
}

// Resource is the bound base resource, or nil when unbound or loading.
func (b *Binding) Resource() *Resource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.res
}

func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Binding) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

// Err is the last load error for the current url, if any.
func (b *Binding) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Wait blocks until the current url has settled or ctx is done, and returns
// whatever is bound at that point.
func (b *Binding) Wait(ctx context.Context) *Resource {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return b.Resource()
}

// Close detaches the binding. Loads still in flight complete in the cache
// but no longer update this binding.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.seq++
	b.res = nil
	b.state = Unbound
	b.settle()
}

func notify(fn func(from, to State), from, to State) {
	if fn != nil && from != to {
		fn(from, to)
	}
}

var closeMu sync.Mutex

func closeIfOpen(c chan struct{}) {
	closeMu.Lock()
	defer closeMu.Unlock()
	select {
	case <-c:
	default:
		close(c)
	}
}

func closedChan() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}
