package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is an article stored in MongoDB. Premium posts are gated by the
// author's subscription ledger.
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID      uint               `json:"authorId" bson:"author_id"`
	Title         string             `json:"title" bson:"title"`
	Content       string             `json:"content" bson:"content"`
	Preview       string             `json:"preview,omitempty" bson:"preview,omitempty"`
	Published     bool               `json:"published" bson:"published"`
	Premium       bool               `json:"premium" bson:"premium"`
	Tags          []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	Categories    []string           `json:"categories,omitempty" bson:"categories,omitempty"`
	CommentsCount int                `json:"commentsCount" bson:"comments_count"`
	Locked        bool               `json:"locked,omitempty" bson:"-"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Redact hides the body of a premium post from a viewer without access.
func (p *Post) Redact() {
	p.Content = ""
	p.Locked = true
}

// PostFilter narrows post listings.
type PostFilter struct {
	AuthorID      uint
	AuthorIDs     []uint
	Tag           string
	Category      string
	PublishedOnly bool
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title      string   `json:"title" validate:"required,min=1,max=200"`
	Content    string   `json:"content" validate:"required,min=1"`
	Preview    string   `json:"preview,omitempty" validate:"omitempty,max=500"`
	Published  bool     `json:"published"`
	Premium    bool     `json:"premium"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=40"`
	Categories []string `json:"categories,omitempty" validate:"omitempty,max=5,dive,min=1,max=40"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title      *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content    *string  `json:"content,omitempty" validate:"omitempty,min=1"`
	Preview    *string  `json:"preview,omitempty" validate:"omitempty,max=500"`
	Published  *bool    `json:"published,omitempty"`
	Premium    *bool    `json:"premium,omitempty"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=40"`
	Categories []string `json:"categories,omitempty" validate:"omitempty,max=5,dive,min=1,max=40"`
}

// Apply copies the set fields of req onto p.
func (req *UpdatePostRequest) Apply(p *Post) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.Preview != nil {
		p.Preview = *req.Preview
	}
	if req.Published != nil {
		p.Published = *req.Published
	}
	if req.Premium != nil {
		p.Premium = *req.Premium
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	if req.Categories != nil {
		p.Categories = req.Categories
	}
}
