// Package memory is an in-process implementation of every repository
// interface. It enforces the same uniqueness rules as the SQL schema and is
// used by tests and by STORAGE_DRIVER=memory.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

var (
	_ repositories.UserRepository         = (*Store)(nil)
	_ repositories.FollowRepository       = (*Store)(nil)
	_ repositories.SubscriptionRepository = (*Store)(nil)
	_ repositories.TransactionRepository  = (*Store)(nil)
	_ repositories.CommentRepository      = (*Store)(nil)
	_ repositories.NotificationRepository = (*Store)(nil)
	_ repositories.PostRepository         = (*Store)(nil)
	_ repositories.AnalyticsRepository    = (*Store)(nil)
)

// Store holds every table behind one mutex.
type Store struct {
	mu sync.RWMutex

	users   map[uint]*models.User
	follows []models.Follow

	subscriptions map[uint]*models.Subscription
	transactions  []models.Transaction

	posts         map[primitive.ObjectID]*models.Post
	comments      map[uint]*models.Comment
	notifications []models.Notification

	pageViews   []models.PageView
	engagements []models.UserEngagement

	lastID uint
	now    func() time.Time
}

func New() *Store {
	return &Store{
		users:         make(map[uint]*models.User),
		subscriptions: make(map[uint]*models.Subscription),
		posts:         make(map[primitive.ObjectID]*models.Post),
		comments:      make(map[uint]*models.Comment),
		now:           time.Now,
	}
}

// nextID hands out ids shared by all tables. Callers hold mu.
func (s *Store) nextID() uint {
	s.lastID++
	return s.lastID
}

// liveUser returns the user if it exists and is not soft-deleted. Callers hold mu.
func (s *Store) liveUser(id uint) (*models.User, bool) {
	u, ok := s.users[id]
	if !ok || u.DeletedAt.Valid {
		return nil, false
	}
	return u, true
}

// paginate returns the p-th page of items.
func paginate[T any](items []T, p models.Pagination) []T {
	start := p.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortByCreatedDesc[T any](items []T, created func(T) time.Time, id func(T) uint) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) > id(items[j])
	})
}

func softDelete(u *models.User, at time.Time) {
	u.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
}

func notFound(what string) error {
	return apperrors.NotFound(what + " not found")
}

func conflict(what string) error {
	return apperrors.Conflict(what + " already exists")
}
