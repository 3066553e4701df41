package views

import (
	"context"
	"errors"
	"sync"

	"newsletter/internal/models"
	"newsletter/internal/observability"
)

// Form field names.
const (
	FieldTitle   = "title"
	FieldContent = "content"
)

// Form messages.
const (
	MsgPostCreated  = "Post created successfully!"
	MsgCreateFailed = "Failed to create post"
)

// ErrUnknownField is returned by SetField for names other than title and content.
var ErrUnknownField = errors.New("unknown form field")

// FormState is a snapshot of the create form.
type FormState struct {
	FormData     models.CreatePostInput
	IsSubmitting bool
	Status       models.FormStatus
}

// FormController owns the create post form.
type FormController struct {
	mu    sync.Mutex
	state FormState
	posts PostCreator
	log   *observability.ViewLogger
}

// NewFormController creates an empty, idle form.
func NewFormController(posts PostCreator) *FormController {
	return &FormController{
		posts: posts,
		log:   observability.NewViewLogger("create_post"),
	}
}

// Snapshot returns a copy of the form state.
func (c *FormController) Snapshot() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetField updates one field. Submission state and status are left alone.
func (c *FormController) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch name {
	case FieldTitle:
		c.state.FormData.Title = value
	case FieldContent:
		c.state.FormData.Content = value
	default:
		return ErrUnknownField
	}
	return nil
}

// Submit sends the current form data to the API and returns the resulting
// status. Empty fields are sent as-is. The form is cleared only on success.
// A Submit while another is in flight does nothing and returns the current status.
func (c *FormController) Submit(ctx context.Context) models.FormStatus {
	c.mu.Lock()
	if c.state.IsSubmitting {
		status := c.state.Status
		c.mu.Unlock()
		return status
	}
	c.state.IsSubmitting = true
	c.state.Status = models.FormStatus{}
	input := c.state.FormData
	c.mu.Unlock()

	ctx = observability.WithView(ctx, "create_post")
	_, err := c.posts.CreatePost(ctx, input)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = MsgCreateFailed
		}
		c.state.Status = models.FormStatus{Message: msg, IsError: true}
		c.log.LogSettled(ctx, "error", map[string]interface{}{"error": msg})
		observability.ViewOutcomes.WithLabelValues("create_post", "error").Inc()
	} else {
		c.state.Status = models.FormStatus{Message: MsgPostCreated}
		c.state.FormData = models.CreatePostInput{}
		c.log.LogSettled(ctx, "success", nil)
		observability.ViewOutcomes.WithLabelValues("create_post", "success").Inc()
	}
	c.state.IsSubmitting = false
	return c.state.Status
}
