package postsapi

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"newsletter/internal/models"
	"newsletter/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// fieldError is one entry of a 422 "detail" list.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func validationFailed(c *fiber.Ctx, errs []fieldError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"detail": errs})
}

// ListPosts handles GET /v1/posts/
func (s *Server) ListPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	observability.Logger.InfoContext(ctx, "posts listed", slog.Int("count", len(posts)))
	return c.JSON(posts)
}

// CreatePost handles POST /v1/posts/create
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusUnprocessableEntity,
			models.NewValidationError("Invalid request body"))
	}

	var errs []fieldError
	if req.Title == nil {
		errs = append(errs, fieldError{Loc: []string{"body", "title"}, Msg: "Field required", Type: "missing"})
	}
	if req.Content == nil {
		errs = append(errs, fieldError{Loc: []string{"body", "content"}, Msg: "Field required", Type: "missing"})
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	post := &models.Post{
		Title:   *req.Title,
		Content: *req.Content,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	observability.Logger.InfoContext(ctx, "post created", slog.Int("post_id", post.ID))
	return c.JSON(post)
}

// GetPost handles GET /v1/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()

	raw := c.Params("id")
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return validationFailed(c, []fieldError{{
			Loc:  []string{"path", "id"},
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: "int_parsing",
		}})
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			observability.Logger.WarnContext(ctx, "post not found", slog.Int("post_id", id))
			return models.RespondWithError(c, fiber.StatusNotFound, appErr)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(post)
}
