package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// DefaultPostPageSize is the default limit of post listings.
const DefaultPostPageSize = 10

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	gate           *services.AccessGate
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, gate *services.AccessGate) *PostHandler {
	return &PostHandler{postRepository: postRepo, gate: gate}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/posts", h.CreatePost, auth)
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts/:id/access", h.GetAccess)
	g.PUT("/posts/:id", h.UpdatePost, auth)
	g.DELETE("/posts/:id", h.DeletePost, auth)
}

// visibleTo reports whether an unpublished post may be seen by viewer.
func visibleTo(viewer services.Viewer, post *models.Post) bool {
	return post.Published || (viewer.UserID != 0 && viewer.UserID == post.AuthorID) || viewer.Role.IsStaff()
}

// loadVisiblePost fetches a post, hiding drafts from everyone but the author and staff.
func (h *PostHandler) loadVisiblePost(c echo.Context, viewer services.Viewer) (*models.Post, error) {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if !visibleTo(viewer, post) {
		return nil, apperrors.NotFound("post not found")
	}
	return post, nil
}

// CreatePost creates a new post authored by the caller
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	now := time.Now().UTC()
	post := &models.Post{
		AuthorID:   userID,
		Title:      req.Title,
		Content:    req.Content,
		Preview:    req.Preview,
		Published:  req.Published,
		Premium:    req.Premium,
		Tags:       req.Tags,
		Categories: req.Categories,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID. Premium bodies are withheld from viewers
// without access.
func (h *PostHandler) GetPost(c echo.Context) error {
	viewer := currentViewer(c)
	post, err := h.loadVisiblePost(c, viewer)
	if err != nil {
		return err
	}
	ok, err := h.gate.HasAccess(c.Request().Context(), viewer, post)
	if err != nil {
		return err
	}
	if !ok {
		post.Redact()
	}
	return c.JSON(http.StatusOK, post)
}

// GetAccess reports whether the caller may read the post in full.
func (h *PostHandler) GetAccess(c echo.Context) error {
	viewer := currentViewer(c)
	post, err := h.loadVisiblePost(c, viewer)
	if err != nil {
		return err
	}
	ok, err := h.gate.HasAccess(c.Request().Context(), viewer, post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"hasAccess": ok})
}

// GetPosts lists published posts, optionally filtered by tag, category or author.
func (h *PostHandler) GetPosts(c echo.Context) error {
	p, err := parsePagination(c, DefaultPostPageSize)
	if err != nil {
		return err
	}
	filter := models.PostFilter{
		Tag:           c.QueryParam("tag"),
		Category:      c.QueryParam("category"),
		PublishedOnly: true,
	}
	if raw := c.QueryParam("authorId"); raw != "" {
		authorID, err := queryInt(c, "authorId")
		if err != nil {
			return err
		}
		if authorID <= 0 {
			return apperrors.InvalidOperation("authorId must be positive")
		}
		filter.AuthorID = uint(authorID)
	}

	ctx := c.Request().Context()
	posts, total, err := h.postRepository.ListPosts(ctx, filter, p)
	if err != nil {
		return err
	}
	if err := h.gate.Redact(ctx, currentViewer(c), posts); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageEnvelope("posts", models.NewPage(posts, total, p)))
}

// UpdatePost updates an existing post. Allowed for the author and staff.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	viewer := currentViewer(c)
	if viewer.UserID == 0 {
		return apperrors.Unauthorized("authentication required")
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.loadVisiblePost(c, viewer)
	if err != nil {
		return err
	}
	if post.AuthorID != viewer.UserID && !viewer.Role.IsStaff() {
		return apperrors.Forbidden("you can only edit your own posts")
	}
	req.Apply(post)
	post.UpdatedAt = time.Now().UTC()
	if err := h.postRepository.UpdatePost(c.Request().Context(), post); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post. Allowed for the author and admins.
func (h *PostHandler) DeletePost(c echo.Context) error {
	viewer := currentViewer(c)
	if viewer.UserID == 0 {
		return apperrors.Unauthorized("authentication required")
	}
	post, err := h.loadVisiblePost(c, viewer)
	if err != nil {
		return err
	}
	if post.AuthorID != viewer.UserID && viewer.Role != models.RoleAdmin {
		return apperrors.Forbidden("you can only delete your own posts")
	}
	if err := h.postRepository.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
