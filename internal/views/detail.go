package views

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"newsletter/internal/client"
	"newsletter/internal/models"
	"newsletter/internal/observability"
)

// Detail view messages.
const (
	MsgNoPostID       = "No post ID provided"
	MsgLoadPostFailed = "Failed to load post. It may not exist or has been removed."
	MsgPostNotFound   = "Post not found"
)

// DetailController drives the single post page. The post identifier comes
// from the route and may change over the view's lifetime.
type DetailController struct {
	*fetcher[*models.Post]
	posts PostFetcher

	idMu    sync.Mutex
	id      string
	started bool
}

// NewDetailController creates a detail view in its initial loading state.
func NewDetailController(posts PostFetcher) *DetailController {
	return &DetailController{
		fetcher: newFetcher[*models.Post]("post_detail"),
		posts:   posts,
	}
}

// SetID loads the post identified by raw. Passing the identifier already
// loaded is a no-op; any other value reruns the whole load. The id and the
// load it starts change together, so the last call wins both.
func (c *DetailController) SetID(ctx context.Context, raw string) {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	if c.started && c.id == raw {
		return
	}
	c.started = true
	c.id = raw

	if raw == "" {
		c.fail(ctx, MsgNoPostID)
		return
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		// A number that is not a whole id can never match a post.
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(raw), 64); ferr == nil && !math.IsNaN(f) {
			c.fail(ctx, MsgLoadPostFailed)
			return
		}
		c.fail(ctx, fmt.Sprintf("Invalid post ID: %s", raw))
		return
	}

	c.load(ctx, func(ctx context.Context) (*models.Post, string) {
		post, err := c.posts.GetPostByID(ctx, id)
		if err != nil {
			if client.IsNotFound(err) {
				observability.ViewOutcomes.WithLabelValues(c.view, "not_found").Inc()
			}
			return nil, MsgLoadPostFailed
		}
		return post, ""
	})
}

// ID returns the identifier most recently passed to SetID.
func (c *DetailController) ID() string {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	return c.id
}

// Mode reports loading, error (an error or no post) or ready.
func (c *DetailController) Mode() Mode {
	s := c.State()
	switch {
	case s.IsLoading:
		return ModeLoading
	case s.Err != "" || s.Data == nil:
		return ModeError
	default:
		return ModeReady
	}
}
