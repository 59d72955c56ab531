package texture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/solfactory/cone-renderer/internal/logging"
)

// DefaultDecodeTimeout bounds a single decode regardless of who asked for it.
const DefaultDecodeTimeout = 15 * time.Second

// Cache resolves texture URLs to shared base resources.
type Cache interface {
	// Get returns the cached resource for url without loading anything.
	Get(url string) (*Resource, bool)
	// Load returns the cached resource, joins a load already in flight for
	// url, or starts a new one. Failures are not cached.
	Load(ctx context.Context, url string) (*Resource, error)
	// Clear disposes every cached resource and forgets in-flight loads.
	Clear()
}

type call struct {
	done chan struct{}
	res  *Resource
	err  error
}

// Store is the process-wide Cache. Build one at startup and hand it to every
// consumer; nothing in it expires.
type Store struct {
	decoder Decoder
	timeout time.Duration

	mu        sync.RWMutex
	resources map[string]*Resource
	inflight  map[string]*call
	gen       uint64
}

func NewStore(decoder Decoder) *Store {
	return &Store{
		decoder:   decoder,
		timeout:   DefaultDecodeTimeout,
		resources: make(map[string]*Resource),
		inflight:  make(map[string]*call),
	}
}

// SetDecodeTimeout changes the bound applied to future decodes.
func (s *Store) SetDecodeTimeout(d time.Duration) {
	s.mu.Lock()
	s.timeout = d
	s.mu.Unlock()
}

func (s *Store) Get(url string) (*Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[url]
	return r, ok
}

// Load blocks until the resource for url is available or ctx is done.
// Cancelling ctx only stops the wait: the decode finishes and is cached.
func (s *Store) Load(ctx context.Context, url string) (*Resource, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}
	c, res := s.begin(url)
	if res != nil {
		return res, nil
	}
	select {
	case <-c.done:
		return c.res, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Preload starts loading url in the background if it is neither cached nor
// already loading.
func (s *Store) Preload(url string) {
	if url == "" {
		return
	}
	s.begin(url)
}

func (s *Store) begin(url string) (*call, *Resource) {
	s.mu.RLock()
	if r, ok := s.resources[url]; ok {
		s.mu.RUnlock()
		return nil, r
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double check after acquiring lock
	if r, ok := s.resources[url]; ok {
		return nil, r
	}
	if c, ok := s.inflight[url]; ok {
		return c, nil
	}
	c := &call{done: make(chan struct{})}
	s.inflight[url] = c
	go s.decode(url, c, s.gen, s.timeout)
	return c, nil
}

func (s *Store) decode(url string, c *call, gen uint64, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log := logging.Logger()
	start := time.Now()

	img, err := s.decoder.Decode(ctx, url)
	if err == nil && img == nil {
		err = fmt.Errorf("%w: decoder returned no image", ErrDecode)
	}

	s.mu.Lock()
	if err != nil {
		c.err = fmt.Errorf("loading texture %s: %w", truncate(url), err)
		log.Warn("texture load failed", "url", truncate(url), "err", err)
	} else {
		c.res = NewResource(url, imaging.Clone(img))
		if gen == s.gen {
			s.resources[url] = c.res
		}
		log.Debug("texture cached", "url", truncate(url), "elapsed", time.Since(start))
	}
	if s.inflight[url] == c {
		delete(s.inflight, url)
	}
	s.mu.Unlock()
	close(c.done)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.resources {
		r.Dispose()
	}
	s.resources = make(map[string]*Resource)
	s.inflight = make(map[string]*call)
	s.gen++
	logging.Logger().Info("texture cache cleared")
}

// Len is the number of cached base resources.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

// InFlight is the number of loads that have not settled yet.
func (s *Store) InFlight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inflight)
}
