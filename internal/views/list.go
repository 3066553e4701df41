package views

import (
	"context"

	"newsletter/internal/models"
	"newsletter/internal/observability"
)

// MsgLoadPostsFailed is shown when the post list cannot be fetched.
const MsgLoadPostsFailed = "Failed to load posts. Please try again later."

// ListController drives the post list page.
type ListController struct {
	*fetcher[[]models.Post]
	posts PostLister
}

// NewListController creates a list view in its initial loading state.
func NewListController(posts PostLister) *ListController {
	return &ListController{
		fetcher: newFetcher[[]models.Post]("post_list"),
		posts:   posts,
	}
}

// Start fetches the post list.
func (c *ListController) Start(ctx context.Context) {
	c.load(ctx, func(ctx context.Context) ([]models.Post, string) {
		posts, err := c.posts.GetPosts(ctx)
		if err != nil {
			return nil, MsgLoadPostsFailed
		}
		return c.assignSyntheticIDs(ctx, posts), ""
	})
}

// Mode reports which of the four list renderings applies.
func (c *ListController) Mode() Mode {
	s := c.State()
	switch {
	case s.IsLoading:
		return ModeLoading
	case s.Err != "":
		return ModeError
	case len(s.Data) == 0:
		return ModeEmpty
	default:
		return ModeReady
	}
}

// assignSyntheticIDs gives every post without an id its 1-based position.
// Posts that have an id keep it and order is preserved. This papers over list
// responses that drop ids; it is not something a correct server relies on.
func (c *ListController) assignSyntheticIDs(ctx context.Context, posts []models.Post) []models.Post {
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		if !p.HasID() {
			p.ID = i + 1
			c.log.LogSyntheticID(ctx, i, p.ID)
			observability.SyntheticIDs.Inc()
		}
		out[i] = p
	}
	return out
}
