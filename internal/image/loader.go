package image

import (
	"context"
	"sync"

	"blueprint-review/pkg/log"
)

// State is the loader's progress on the latest requested URL.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchFunc loads one image.
type FetchFunc func(ctx context.Context, url string) (*Document, error)

// Snapshot is the loader state handed to listeners.
type Snapshot struct {
	URL   string
	State State
	Doc   *Document
	Err   error
	Seq   uint64 // request generation; a later request always has a larger Seq
}

// Loader keeps at most one image load in flight. Only the most recently
// requested URL may complete; older loads are cancelled and their results
// are dropped.
type Loader struct {
	mu     sync.Mutex
	fetch  FetchFunc
	seq    uint64
	cancel context.CancelFunc
	snap   Snapshot

	// notifyMu serialises listener calls. A snapshot is handed out only if
	// its generation is still current once notifyMu is held.
	notifyMu sync.Mutex
	onChange func(Snapshot)
}

// NewLoader creates a loader. A nil fetch uses Load.
func NewLoader(fetch FetchFunc) *Loader {
	if fetch == nil {
		fetch = Load
	}
	return &Loader{fetch: fetch}
}

// OnChange registers the listener called after every state change. It runs
// on the loading goroutine for completions. The listener must not call
// Request or Clear.
func (l *Loader) OnChange(fn func(Snapshot)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Snapshot returns the current state.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}

// Request starts loading url. Requesting the URL that is already loading or
// loaded does nothing; an empty URL clears the loader.
func (l *Loader) Request(ctx context.Context, url string) {
	if url == "" {
		l.Clear()
		return
	}

	l.mu.Lock()
	if l.snap.URL == url && (l.snap.State == StateLoading || l.snap.State == StateLoaded) {
		l.mu.Unlock()
		return
	}
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.seq++
	seq := l.seq
	l.snap = Snapshot{URL: url, State: StateLoading, Seq: seq}
	snap := l.snap
	l.mu.Unlock()

	l.deliver(snap)
	go l.run(ctx, seq, url)
}

func (l *Loader) run(ctx context.Context, seq uint64, url string) {
	doc, err := l.fetch(ctx, url)

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		log.Debug(log.Fields{"url": url}, "Image loader: dropping stale load")
		return
	}
	l.cancel = nil
	if err != nil {
		l.snap = Snapshot{URL: url, State: StateFailed, Err: err, Seq: seq}
	} else {
		l.snap = Snapshot{URL: url, State: StateLoaded, Doc: doc, Seq: seq}
	}
	snap := l.snap
	l.mu.Unlock()

	if err != nil {
		log.Warn(log.Fields{"url": url, "error": err}, "Image loader: failed to load image")
	} else {
		log.Info(log.Fields{"url": url, "width": doc.Width(), "height": doc.Height(), "format": doc.Format}, "Image loader: loaded image")
	}
	l.deliver(snap)
}

// Clear cancels any load and returns to the empty state.
func (l *Loader) Clear() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
	changed := l.snap.State != StateEmpty
	l.snap = Snapshot{Seq: l.seq}
	snap := l.snap
	l.mu.Unlock()

	if changed {
		l.deliver(snap)
	}
}

// deliver calls the listener with s unless a newer request has been made.
// A Request landing between a completion and its delivery therefore
// suppresses the stale completion instead of following it.
func (l *Loader) deliver(s Snapshot) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	current, fn := l.seq, l.onChange
	l.mu.Unlock()

	if s.Seq != current {
		log.Debug(log.Fields{"url": s.URL, "state": s.State.String()}, "Image loader: dropping stale notification")
		return
	}
	if fn != nil {
		fn(s)
	}
}
