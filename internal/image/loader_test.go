package image

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blueprint-review/pkg/log"
)

// gatedFetch blocks each URL until release is called for it.
type gatedFetch struct {
	mu       sync.Mutex
	gates    map[string]chan error
	canceled map[string]bool
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{gates: map[string]chan error{}, canceled: map[string]bool{}}
}

func (g *gatedFetch) gate(url string) chan error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[url]
	if !ok {
		ch = make(chan error, 1)
		g.gates[url] = ch
	}
	return ch
}

func (g *gatedFetch) fetch(ctx context.Context, url string) (*Document, error) {
	select {
	case err := <-g.gate(url):
		if err != nil {
			return nil, err
		}
		return &Document{URL: url, Image: image.NewRGBA(image.Rect(0, 0, 8, 6))}, nil
	case <-ctx.Done():
		g.mu.Lock()
		g.canceled[url] = true
		g.mu.Unlock()
		// Complete anyway so the stale result reaches the loader.
		return &Document{URL: url}, nil
	}
}

func (g *gatedFetch) release(url string, err error) { g.gate(url) <- err }

func (g *gatedFetch) wasCanceled(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canceled[url]
}

func collect(l *Loader) <-chan Snapshot {
	ch := make(chan Snapshot, 16)
	l.OnChange(func(s Snapshot) { ch <- s })
	return ch
}

func next(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loader")
		return Snapshot{}
	}
}

func TestLoaderLoadsLatest(t *testing.T) {
	g := newGatedFetch()
	l := NewLoader(g.fetch)
	ch := collect(l)

	l.Request(context.Background(), "a.png")
	assert.Equal(t, StateLoading, next(t, ch).State)

	l.Request(context.Background(), "b.png")
	assert.Equal(t, Snapshot{URL: "b.png", State: StateLoading, Seq: 2}, next(t, ch))

	g.release("b.png", nil)
	s := next(t, ch)
	assert.Equal(t, StateLoaded, s.State)
	assert.Equal(t, "b.png", s.URL)
	require.NotNil(t, s.Doc)
	assert.Equal(t, 8, s.Doc.Width())

	require.Eventually(t, func() bool { return g.wasCanceled("a.png") }, 2*time.Second, 5*time.Millisecond)
	select {
	case s := <-ch:
		t.Fatalf("stale load delivered: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, "b.png", l.Snapshot().URL)
}

func TestLoaderFailure(t *testing.T) {
	g := newGatedFetch()
	l := NewLoader(g.fetch)
	ch := collect(l)

	l.Request(context.Background(), "bad.png")
	next(t, ch)
	g.release("bad.png", errors.New("boom"))

	s := next(t, ch)
	assert.Equal(t, StateFailed, s.State)
	assert.EqualError(t, s.Err, "boom")
	assert.Equal(t, StateFailed, l.Snapshot().State)

	// A failed URL may be retried.
	l.Request(context.Background(), "bad.png")
	assert.Equal(t, StateLoading, next(t, ch).State)
	g.release("bad.png", nil)
	assert.Equal(t, StateLoaded, next(t, ch).State)
}

func TestLoaderSameURLIsNoop(t *testing.T) {
	g := newGatedFetch()
	l := NewLoader(g.fetch)
	ch := collect(l)

	l.Request(context.Background(), "a.png")
	next(t, ch)
	l.Request(context.Background(), "a.png")
	g.release("a.png", nil)
	assert.Equal(t, StateLoaded, next(t, ch).State)

	l.Request(context.Background(), "a.png")
	select {
	case s := <-ch:
		t.Fatalf("unexpected change: %+v", s)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestLoaderClear(t *testing.T) {
	g := newGatedFetch()
	l := NewLoader(g.fetch)
	ch := collect(l)

	l.Request(context.Background(), "a.png")
	next(t, ch)
	l.Request(context.Background(), "")
	assert.Equal(t, StateEmpty, next(t, ch).State)
	require.Eventually(t, func() bool { return g.wasCanceled("a.png") }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, StateEmpty, l.Snapshot().State)
}

// requestOnLoaded issues a new request from inside the completion of url,
// after the loader has accepted the result but before it is delivered.
type requestOnLoaded struct {
	url  string
	once sync.Once
	fn   func()
}

func (h *requestOnLoaded) Levels() []logrus.Level { return []logrus.Level{logrus.InfoLevel} }

func (h *requestOnLoaded) Fire(e *logrus.Entry) error {
	if e.Message == "Image loader: loaded image" && e.Data["url"] == h.url {
		h.once.Do(h.fn)
	}
	return nil
}

func TestLoaderDropsCompletionOvertakenByRequest(t *testing.T) {
	g := newGatedFetch()
	l := NewLoader(g.fetch)
	ch := collect(l)

	hooks := make(logrus.LevelHooks)
	hooks.Add(&requestOnLoaded{url: "a.png", fn: func() { l.Request(context.Background(), "b.png") }})
	saved := log.L().ReplaceHooks(hooks)
	t.Cleanup(func() { log.L().ReplaceHooks(saved) })

	l.Request(context.Background(), "a.png")
	assert.Equal(t, StateLoading, next(t, ch).State)

	g.release("a.png", nil)
	s := next(t, ch)
	assert.Equal(t, "b.png", s.URL)
	assert.Equal(t, StateLoading, s.State)

	select {
	case s := <-ch:
		t.Fatalf("stale completion delivered after newer request: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}

	g.release("b.png", nil)
	s = next(t, ch)
	assert.Equal(t, "b.png", s.URL)
	assert.Equal(t, StateLoaded, s.State)
	assert.Equal(t, s, l.Snapshot())
}

func TestLoaderSnapshotSeqIncreases(t *testing.T) {
	g := newGatedFetch()
	l := NewLoader(g.fetch)
	ch := collect(l)

	l.Request(context.Background(), "a.png")
	first := next(t, ch)
	l.Request(context.Background(), "")
	cleared := next(t, ch)
	assert.Greater(t, cleared.Seq, first.Seq)
}
