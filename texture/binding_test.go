package texture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transitions struct {
	mu  sync.Mutex
	log []State
}

func (tr *transitions) record(_, to State) {
	tr.mu.Lock()
	tr.log = append(tr.log, to)
	tr.mu.Unlock()
}

func (tr *transitions) states() []State {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]State(nil), tr.log...)
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestBindingInitializesFromCache(t *testing.T) {
	dec := newFakeDecoder()
	s := NewStore(dec)
	base, err := s.Load(context.Background(), imgURL)
	require.NoError(t, err)

	b := NewBinding(s, imgURL)
	assert.Equal(t, Bound, b.State())
	assert.Same(t, base, b.Resource())
}

func TestBindingLoadsThenBinds(t *testing.T) {
	dec := newFakeDecoder()
	dec.gate = make(chan struct{})
	s := NewStore(dec)

	b := NewBinding(s, "")
	tr := &transitions{}
	b.OnTransition(tr.record)

	b.Set(imgURL)
	assert.Equal(t, Loading, b.State())
	assert.Nil(t, b.Resource(), "nothing is bound while loading")

	close(dec.gate)
	r := b.Wait(waitCtx(t))
	require.NotNil(t, r)
	assert.Equal(t, Bound, b.State())
	assert.Equal(t, []State{Loading, Bound}, tr.states())

	cached, _ := s.Get(imgURL)
	assert.Same(t, cached, r)
}

func TestBindingFailureFallsBackToUnbound(t *testing.T) {
	dec := newFakeDecoder()
	dec.fail[imgURL] = true
	s := NewStore(dec)

	b := NewBinding(s, "")
	tr := &transitions{}
	b.OnTransition(tr.record)

	assert.NotPanics(t, func() { b.Set(imgURL) })
	assert.Nil(t, b.Wait(waitCtx(t)))
	assert.Equal(t, Unbound, b.State())
	assert.Error(t, b.Err())
	assert.Equal(t, []State{Loading, Failed, Unbound}, tr.states())

	// Setting the same url again retries since failures are not cached.
	dec.mu.Lock()
	dec.fail[imgURL] = false
	dec.mu.Unlock()
	b.Set(imgURL)
	assert.NotNil(t, b.Wait(waitCtx(t)))
	assert.Equal(t, 2, dec.count(imgURL))
}

func TestBindingClearDoesNotDispose(t *testing.T) {
	s := NewStore(newFakeDecoder())
	b := NewBinding(s, imgURL)
	r := b.Wait(waitCtx(t))
	require.NotNil(t, r)

	b.Set("")
	assert.Equal(t, Unbound, b.State())
	assert.Nil(t, b.Resource())
	assert.False(t, r.Disposed())

	b.Set(imgURL)
	assert.Equal(t, Bound, b.State(), "cached url binds synchronously")
	b.Close()
	assert.False(t, r.Disposed())
}

func TestBindingIgnoresStaleLoads(t *testing.T) {
	dec := newFakeDecoder()
	dec.gate = make(chan struct{})
	s := NewStore(dec)

	b := NewBinding(s, "https://cdn.example.com/a.png")
	b.Set("https://cdn.example.com/b.png")
	close(dec.gate)

	r := b.Wait(waitCtx(t))
	require.NotNil(t, r)
	assert.Equal(t, "https://cdn.example.com/b.png", r.Key())

	// a.png still lands in the cache even though nobody wants it.
	require.Eventually(t, func() bool { return s.Len() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, "https://cdn.example.com/b.png", b.Resource().Key())
}

func TestBindingSameURLIsNoop(t *testing.T) {
	dec := newFakeDecoder()
	s := NewStore(dec)
	b := NewBinding(s, imgURL)
	b.Wait(waitCtx(t))
	tr := &transitions{}
	b.OnTransition(tr.record)

	b.Set(imgURL)
	assert.Empty(t, tr.states())
	assert.Equal(t, 1, dec.count(imgURL))
}

func TestWaitRespectsContext(t *testing.T) {
	dec := newFakeDecoder()
	dec.gate = make(chan struct{})
	defer close(dec.gate)
	s := NewStore(dec)

	b := NewBinding(s, imgURL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Nil(t, b.Wait(ctx))
	assert.Equal(t, Loading, b.State())
}
