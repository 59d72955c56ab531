package texture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imgURL = "https://cdn.example.com/uploads/paper.png"

func TestLoadCachesWithDefaultConfig(t *testing.T) {
	dec := newFakeDecoder()
	s := NewStore(dec)

	_, ok := s.Get(imgURL)
	assert.False(t, ok)

	r, err := s.Load(context.Background(), imgURL)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.Config())
	assert.Equal(t, WrapRepeat, r.Config().WrapS)
	assert.Equal(t, 1.0, r.Config().RepeatV)

	cached, ok := s.Get(imgURL)
	require.True(t, ok)
	assert.Same(t, r, cached)
	assert.Equal(t, 1, dec.count(imgURL))
}

func TestGetCachedDoesNotDecode(t *testing.T) {
	dec := newFakeDecoder()
	s := NewStore(dec)
	_, err := s.Load(context.Background(), imgURL)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, ok := s.Get(imgURL)
		require.True(t, ok)
		_, err := s.Load(context.Background(), imgURL)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, dec.count(imgURL))
}

func TestConcurrentLoadsShareOneDecode(t *testing.T) {
	dec := newFakeDecoder()
	dec.gate = make(chan struct{})
	s := NewStore(dec)

	const n = 8
	results := make([]*Resource, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.Load(context.Background(), imgURL)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	require.Eventually(t, func() bool { return s.InFlight() == 1 && dec.count(imgURL) == 1 }, time.Second, time.Millisecond)
	close(dec.gate)
	wg.Wait()

	assert.Equal(t, 1, dec.count(imgURL))
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 0, s.InFlight())
}

func TestFailuresAreNotCached(t *testing.T) {
	dec := newFakeDecoder()
	dec.fail[imgURL] = true
	s := NewStore(dec)

	_, err := s.Load(context.Background(), imgURL)
	require.Error(t, err)
	_, ok := s.Get(imgURL)
	assert.False(t, ok)
	assert.Equal(t, 0, s.InFlight())

	dec.mu.Lock()
	dec.fail[imgURL] = false
	dec.mu.Unlock()

	r, err := s.Load(context.Background(), imgURL)
	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.Equal(t, 2, dec.count(imgURL))
}

func TestLoadEmptyURL(t *testing.T) {
	s := NewStore(newFakeDecoder())
	_, err := s.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestCancelledWaitStillCaches(t *testing.T) {
	dec := newFakeDecoder()
	dec.gate = make(chan struct{})
	s := NewStore(dec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Load(ctx, imgURL)
	assert.ErrorIs(t, err, context.Canceled)

	close(dec.gate)
	require.Eventually(t, func() bool {
		_, ok := s.Get(imgURL)
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, dec.count(imgURL))
}

func TestClearDisposesAndForgets(t *testing.T) {
	dec := newFakeDecoder()
	s := NewStore(dec)
	r, err := s.Load(context.Background(), imgURL)
	require.NoError(t, err)

	s.Clear()
	assert.True(t, r.Disposed())
	_, ok := s.Get(imgURL)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	r2, err := s.Load(context.Background(), imgURL)
	require.NoError(t, err)
	assert.NotSame(t, r, r2)
	assert.Equal(t, 2, dec.count(imgURL))
}

func TestLoadSettlingAfterClearIsNotCached(t *testing.T) {
	dec := newFakeDecoder()
	dec.gate = make(chan struct{})
	s := NewStore(dec)

	var (
		r   *Resource
		err error
		wg  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		r, err = s.Load(context.Background(), imgURL)
	}()
	require.Eventually(t, func() bool { return s.InFlight() == 1 }, time.Second, time.Millisecond)

	s.Clear()
	assert.Equal(t, 0, s.InFlight())
	close(dec.gate)
	wg.Wait()

	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.Equal(t, 0, s.Len())
}

func TestPreload(t *testing.T) {
	dec := newFakeDecoder()
	s := NewStore(dec)
	s.Preload("")
	s.Preload(imgURL)
	require.Eventually(t, func() bool { return s.Len() == 1 }, time.Second, time.Millisecond)
	s.Preload(imgURL)
	assert.Equal(t, 1, dec.count(imgURL))
}
