package memory

import (
	"context"
	"time"

	"github.com/anonto42/nano-press/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Store) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	post.ID = primitive.NewObjectID()
	post.CreatedAt, post.UpdatedAt = now, now
	stored := *post
	s.posts[post.ID] = &stored
	return nil
}

func (s *Store) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.postByHex(id)
	if !ok {
		return nil, notFound("post")
	}
	out := *post
	return &out, nil
}

// postByHex looks a post up by its hex id. Callers hold mu.
func (s *Store) postByHex(id string) (*models.Post, bool) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	post, ok := s.posts[objID]
	return post, ok
}

func matchesPost(p *models.Post, f models.PostFilter) bool {
	if f.PublishedOnly && !p.Published {
		return false
	}
	if f.AuthorID != 0 {
		if p.AuthorID != f.AuthorID {
			return false
		}
	} else if f.AuthorIDs != nil && !containsID(f.AuthorIDs, p.AuthorID) {
		return false
	}
	if f.Tag != "" && !containsString(p.Tags, f.Tag) {
		return false
	}
	if f.Category != "" && !containsString(p.Categories, f.Category) {
		return false
	}
	return true
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Store) ListPosts(_ context.Context, filter models.PostFilter, p models.Pagination) ([]models.Post, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var posts []models.Post
	for _, post := range s.posts {
		if matchesPost(post, filter) {
			posts = append(posts, *post)
		}
	}
	// ObjectIDs grow with creation time, so they break created_at ties.
	sortByCreatedDesc(posts,
		func(p models.Post) time.Time { return p.CreatedAt },
		func(p models.Post) uint { return uint(p.ID.Timestamp().Unix()) })
	return paginate(posts, p), int64(len(posts)), nil
}

func (s *Store) UpdatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; !ok {
		return notFound("post")
	}
	post.UpdatedAt = s.now().UTC()
	stored := *post
	stored.Locked = false
	s.posts[post.ID] = &stored
	return nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.postByHex(id)
	if !ok {
		return notFound("post")
	}
	delete(s.posts, post.ID)
	return nil
}

func (s *Store) IncrementCommentsCount(_ context.Context, postID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post, ok := s.postByHex(postID); ok {
		post.CommentsCount += delta
	}
	return nil
}

func (s *Store) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment.ID = s.nextID()
	now := s.now()
	comment.CreatedAt, comment.UpdatedAt = now, now
	stored := *comment
	s.comments[comment.ID] = &stored
	return nil
}

func (s *Store) GetCommentByID(_ context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, notFound("comment")
	}
	out := *c
	return &out, nil
}

func (s *Store) GetCommentsByPostID(_ context.Context, postID string, p models.Pagination) ([]models.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comments []models.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			comments = append(comments, *c)
		}
	}
	sortByCreatedDesc(comments,
		func(c models.Comment) time.Time { return c.CreatedAt },
		func(c models.Comment) uint { return c.ID })
	// Comments read oldest first.
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return paginate(comments, p), int64(len(comments)), nil
}

func (s *Store) UpdateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[comment.ID]; !ok {
		return notFound("comment")
	}
	comment.UpdatedAt = s.now()
	stored := *comment
	s.comments[comment.ID] = &stored
	return nil
}

func (s *Store) DeleteComment(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return notFound("comment")
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = s.nextID()
	n.CreatedAt = s.now()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Store) GetByRecipientID(_ context.Context, recipientID uint, p models.Pagination) ([]models.Notification, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sortByCreatedDesc(out,
		func(n models.Notification) time.Time { return n.CreatedAt },
		func(n models.Notification) uint { return n.ID })
	return paginate(out, p), int64(len(out)), nil
}

func (s *Store) GetUnreadCount(_ context.Context, recipientID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkAsRead(_ context.Context, notificationID, recipientID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == notificationID && s.notifications[i].RecipientID == recipientID {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return notFound("notification")
}

func (s *Store) MarkAllAsRead(_ context.Context, recipientID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].RecipientID == recipientID {
			s.notifications[i].IsRead = true
		}
	}
	return nil
}
