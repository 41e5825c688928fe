package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/anonto42/nano-press/backend/internal/models"
)

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return conflict("user")
		}
		if user.FirebaseUID != nil && u.FirebaseUID != nil && *u.FirebaseUID == *user.FirebaseUID {
			return conflict("user")
		}
	}
	user.ID = s.nextID()
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = models.RoleAuthor
	}
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.liveUser(id)
	if !ok {
		return nil, notFound("user")
	}
	out := *u
	return &out, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) GetUserByFirebaseUID(_ context.Context, firebaseUID string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (s *Store) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if !u.DeletedAt.Valid && match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, notFound("user")
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for _, id := range ids {
		if u, ok := s.liveUser(id); ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.liveUser(user.ID); !ok {
		return notFound("user")
	}
	for id, u := range s.users {
		if id != user.ID && (u.Username == user.Username || strings.EqualFold(u.Email, user.Email)) {
			return conflict("user")
		}
	}
	user.UpdatedAt = s.now()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *Store) SetStripeCustomerID(_ context.Context, id uint, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for uid, u := range s.users {
		if uid != id && u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			return conflict("customer")
		}
	}
	u, ok := s.liveUser(id)
	if !ok {
		return notFound("user")
	}
	u.StripeCustomerID = &customerID
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.liveUser(id)
	if !ok {
		return notFound("user")
	}
	softDelete(u, s.now())
	return nil
}

func (s *Store) SearchUsers(_ context.Context, query string, p models.Pagination) ([]models.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.User
	for _, u := range s.users {
		if !u.DeletedAt.Valid && (containsFold(u.Name, query) || containsFold(u.Username, query)) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	return paginate(matched, p), int64(len(matched)), nil
}
