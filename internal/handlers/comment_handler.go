package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository // comment counters live on the post
	userRepository    repositories.UserRepository
	gate              *services.AccessGate
	notifier          *services.Notifier
	log               logrus.FieldLogger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, gate *services.AccessGate, notifier *services.Notifier, log logrus.FieldLogger) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		gate:              gate,
		notifier:          notifier,
		log:               log.WithField("component", "comments"),
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/posts/:id/comments", h.CreateComment, auth)
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
	g.PUT("/comments/:id", h.UpdateComment, auth)
	g.DELETE("/comments/:id", h.DeleteComment, auth)
}

// CreateComment creates a new comment on a post. Commenting on a premium
// post requires access to it.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	viewer := currentViewer(c)
	if viewer.UserID == 0 {
		return apperrors.Unauthorized("authentication required")
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	postID := c.Param("id")
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if !visibleTo(viewer, post) {
		return apperrors.NotFound("post not found")
	}
	ok, err := h.gate.HasAccess(ctx, viewer, post)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("subscribe to the author to comment on this post")
	}

	comment := &models.Comment{PostID: postID, UserID: viewer.UserID, Content: req.Content}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return err
	}
	h.adjustCount(ctx, postID, 1)
	h.notifier.Notify(ctx, models.NotificationComment, viewer.UserID, post.AuthorID, postID, "commented on your post")

	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsByPostID lists a post's comments, oldest first, with their authors.
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	p, err := parsePagination(c, models.DefaultPageSize)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	postID := c.Param("id")
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if !visibleTo(currentViewer(c), post) {
		return apperrors.NotFound("post not found")
	}

	comments, total, err := h.commentRepository.GetCommentsByPostID(ctx, postID, p)
	if err != nil {
		return err
	}
	views, err := h.withAuthors(ctx, comments)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageEnvelope("comments", models.NewPage(views, total, p)))
}

// UpdateComment edits the caller's own comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return apperrors.Forbidden("you can only edit your own comments")
	}
	comment.Content = req.Content
	if err := h.commentRepository.UpdateComment(ctx, comment); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment. Allowed for its author and admins.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	viewer := currentViewer(c)
	if viewer.UserID == 0 {
		return apperrors.Unauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != viewer.UserID && viewer.Role != models.RoleAdmin {
		return apperrors.Forbidden("you can only delete your own comments")
	}
	if err := h.commentRepository.DeleteComment(ctx, id); err != nil {
		return err
	}
	h.adjustCount(ctx, comment.PostID, -1)
	return c.NoContent(http.StatusNoContent)
}

// adjustCount keeps the post's comment counter in step. The counter is
// denormalised, so a failure is logged rather than failing the request.
func (h *CommentHandler) adjustCount(ctx context.Context, postID string, delta int) {
	if err := h.postRepository.IncrementCommentsCount(ctx, postID, delta); err != nil {
		h.log.WithError(err).WithField("post_id", postID).Warn("failed to update comment counter")
	}
}

func (h *CommentHandler) withAuthors(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	ids := make([]uint, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.UserID)
	}
	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.UserCompact, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].ToCompact()
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, models.CommentView{Comment: cm, Author: byID[cm.UserID]})
	}
	return views, nil
}
