// Package views holds the per-page state machines that sit between the pages
// and the posts API: the create form, the post list and the post detail.
package views

import (
	"context"
	"sync"

	"newsletter/internal/models"
	"newsletter/internal/observability"
)

// PostCreator creates posts.
type PostCreator interface {
	CreatePost(ctx context.Context, in models.CreatePostInput) (*models.Post, error)
}

// PostLister lists posts.
type PostLister interface {
	GetPosts(ctx context.Context) ([]models.Post, error)
}

// PostFetcher fetches a single post.
type PostFetcher interface {
	GetPostByID(ctx context.Context, id int) (*models.Post, error)
}

// FetchState is what a page renders from: data, loading flag and error message.
type FetchState[T any] struct {
	Data      T
	IsLoading bool
	Err       string
}

// Mode summarizes a FetchState for rendering.
type Mode string

const (
	ModeLoading Mode = "loading"
	ModeError   Mode = "error"
	ModeEmpty   Mode = "empty"
	ModeReady   Mode = "ready"
)

var settledChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// fetcher runs one load at a time for a view. Starting a new load supersedes
// the previous one; Close disposes the view. In both cases results from the
// old load are dropped without touching the state.
type fetcher[T any] struct {
	mu     sync.Mutex
	state  FetchState[T]
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	closed bool

	view string
	log  *observability.ViewLogger
}

func newFetcher[T any](view string) *fetcher[T] {
	return &fetcher[T]{
		state: FetchState[T]{IsLoading: true},
		done:  settledChan,
		view:  view,
		log:   observability.NewViewLogger(view),
	}
}

// load enters the loading state and runs fetch in its own goroutine. fetch
// returns the data or a non-empty error message.
func (f *fetcher[T]) load(parent context.Context, fetch func(ctx context.Context) (T, string)) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	gen := f.supersede()
	ctx, cancel := context.WithCancel(observability.WithView(parent, f.view))
	f.cancel = cancel
	done := make(chan struct{})
	f.done = done
	f.state = FetchState[T]{IsLoading: true}
	f.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		data, errMsg := fetch(ctx)
		f.settle(ctx, gen, data, errMsg)
	}()
}

// fail settles the view with errMsg without any network call.
func (f *fetcher[T]) fail(ctx context.Context, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.supersede()
	f.done = settledChan
	f.state = FetchState[T]{Err: errMsg}
	f.record(ctx, "error", errMsg)
}

// supersede cancels the running load and returns the next generation.
// Must be called with mu held.
func (f *fetcher[T]) supersede() uint64 {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
	return f.gen
}

func (f *fetcher[T]) settle(ctx context.Context, gen uint64, data T, errMsg string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.closed:
		f.log.LogDiscarded(ctx, "closed")
		observability.ViewOutcomes.WithLabelValues(f.view, "discarded").Inc()
		return
	case gen != f.gen:
		f.log.LogDiscarded(ctx, "superseded")
		observability.ViewOutcomes.WithLabelValues(f.view, "discarded").Inc()
		return
	}

	if errMsg != "" {
		f.state = FetchState[T]{Err: errMsg}
		f.record(ctx, "error", errMsg)
		return
	}
	f.state = FetchState[T]{Data: data}
	f.record(ctx, "success", "")
}

func (f *fetcher[T]) record(ctx context.Context, outcome, errMsg string) {
	fields := map[string]interface{}{}
	if errMsg != "" {
		fields["error"] = errMsg
	}
	f.log.LogSettled(ctx, outcome, fields)
	observability.ViewOutcomes.WithLabelValues(f.view, outcome).Inc()
}

// State returns a snapshot of the current fetch state.
func (f *fetcher[T]) State() FetchState[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Wait blocks until the current load settles or ctx is done. It reports
// whether the load settled.
func (f *fetcher[T]) Wait(ctx context.Context) bool {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close disposes the view. A load still in flight is cancelled and its
// result is discarded. Close is idempotent.
func (f *fetcher[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
