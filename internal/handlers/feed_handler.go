package handlers

import (
	"net/http"

	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	social         *services.SocialService
	gate           *services.AccessGate
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	social *services.SocialService,
	gate *services.AccessGate,
) *FeedHandler {
	return &FeedHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		social:         social,
		gate:           gate,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/feed", h.GetFeed, auth)
}

// EnrichedPost is a post with its author's profile
type EnrichedPost struct {
	models.Post
	Author models.UserCompact `json:"author"`
}

// GetFeed returns published posts by the authors the caller follows, newest first.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := parsePagination(c, DefaultPostPageSize)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	authorIDs, err := h.social.FollowingIDs(ctx, userID)
	if err != nil {
		return err
	}
	if len(authorIDs) == 0 {
		return c.JSON(http.StatusOK, pageEnvelope("posts", models.NewPage([]EnrichedPost{}, 0, p)))
	}

	posts, total, err := h.postRepository.ListPosts(ctx, models.PostFilter{AuthorIDs: authorIDs, PublishedOnly: true}, p)
	if err != nil {
		return err
	}
	if err := h.gate.Redact(ctx, currentViewer(c), posts); err != nil {
		return err
	}

	authors, err := h.userRepository.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return err
	}
	byID := make(map[uint]models.UserCompact, len(authors))
	for i := range authors {
		byID[authors[i].ID] = authors[i].ToCompact()
	}

	enriched := make([]EnrichedPost, 0, len(posts))
	for _, post := range posts {
		enriched = append(enriched, EnrichedPost{Post: post, Author: byID[post.AuthorID]})
	}
	return c.JSON(http.StatusOK, pageEnvelope("posts", models.NewPage(enriched, total, p)))
}
