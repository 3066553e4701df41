package web

import (
	"context"

	"newsletter/internal/models"
	"newsletter/internal/views"

	"github.com/gofiber/fiber/v2"
)

const msgTooManyPosts = "Too many posts, please try again later."

// refreshSeconds is how soon a page rendered in its loading state reloads.
const refreshSeconds = 1

// HomePage handles GET /
func (s *Server) HomePage(c *fiber.Ctx) error {
	return c.Render("home", fiber.Map{"Title": "Home"}, "layout")
}

// CreatePostPage handles GET /create-post
func (s *Server) CreatePostPage(c *fiber.Ctx) error {
	form := views.NewFormController(s.posts)
	snap := form.Snapshot()
	return c.Render("create", createPage(snap.FormData, snap.Status, snap.IsSubmitting), "layout")
}

// SubmitPost handles POST /create-post. The form is re-rendered in place with
// the outcome; on success its fields are cleared.
func (s *Server) SubmitPost(c *fiber.Ctx) error {
	form := views.NewFormController(s.posts)
	for _, name := range []string{views.FieldTitle, views.FieldContent} {
		if err := form.SetField(name, c.FormValue(name)); err != nil {
			return err
		}
	}

	form.Submit(c.UserContext())

	snap := form.Snapshot()
	return c.Render("create", createPage(snap.FormData, snap.Status, snap.IsSubmitting), "layout")
}

// PostsListPage handles GET /newsletters
func (s *Server) PostsListPage(c *fiber.Ctx) error {
	list := views.NewListController(s.posts)
	defer list.Close()

	list.Start(c.UserContext())
	s.waitForView(c.UserContext(), list.Wait)

	state := list.State()
	mode := list.Mode()
	data := fiber.Map{
		"Title": "All Posts",
		"Mode":  string(mode),
		"Error": state.Err,
		"Posts": state.Data,
	}
	if mode == views.ModeLoading {
		data["Refresh"] = refreshSeconds
	}
	return c.Render("list", data, "layout")
}

// PostDetailPage handles GET /newsletter/:id
func (s *Server) PostDetailPage(c *fiber.Ctx) error {
	detail := views.NewDetailController(s.posts)
	defer detail.Close()

	detail.SetID(c.UserContext(), c.Params("id"))
	s.waitForView(c.UserContext(), detail.Wait)

	state := detail.State()
	mode := detail.Mode()
	data := fiber.Map{
		"Title": "Newsletter",
		"Mode":  string(mode),
		"Post":  state.Data,
	}
	switch mode {
	case views.ModeLoading:
		data["Refresh"] = refreshSeconds
	case views.ModeError:
		msg := state.Err
		if msg == "" {
			msg = views.MsgPostNotFound
		}
		data["Error"] = msg
	case views.ModeReady:
		data["Title"] = state.Data.Title
	}
	return c.Render("detail", data, "layout")
}

// waitForView gives a view up to the configured render wait to settle. The
// caller renders whatever state the view is in afterwards.
func (s *Server) waitForView(ctx context.Context, wait func(context.Context) bool) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RenderWait())
	defer cancel()
	wait(ctx)
}

func createPage(form models.CreatePostInput, status models.FormStatus, submitting bool) fiber.Map {
	return fiber.Map{
		"Title":      "Create Post",
		"Form":       form,
		"Status":     status,
		"Submitting": submitting,
	}
}
