package memory

import (
	"context"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
)

func (s *Store) CreateFollow(_ context.Context, follow *models.Follow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if follow.FollowerID == follow.FollowingID {
		return apperrors.InvalidOperation("invalid follow relationship")
	}
	for _, f := range s.follows {
		if f.FollowerID == follow.FollowerID && f.FollowingID == follow.FollowingID {
			return conflict("follow relationship")
		}
	}
	follow.ID = s.nextID()
	follow.CreatedAt = s.now()
	s.follows = append(s.follows, *follow)
	return nil
}

func (s *Store) DeleteFollow(_ context.Context, followerID, followingID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			s.follows = append(s.follows[:i], s.follows[i+1:]...)
			return nil
		}
	}
	return notFound("follow relationship")
}

func (s *Store) IsFollowing(_ context.Context, followerID, followingID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetFollowers(_ context.Context, userID uint, p models.Pagination) ([]models.UserCompact, int64, error) {
	return s.listEdges(userID, p, func(f models.Follow) (uint, uint) { return f.FollowingID, f.FollowerID })
}

func (s *Store) GetFollowing(_ context.Context, userID uint, p models.Pagination) ([]models.UserCompact, int64, error) {
	return s.listEdges(userID, p, func(f models.Follow) (uint, uint) { return f.FollowerID, f.FollowingID })
}

// listEdges pages the far ends of userID's edges; ends returns (near, far).
func (s *Store) listEdges(userID uint, p models.Pagination, ends func(models.Follow) (uint, uint)) ([]models.UserCompact, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var edges []models.Follow
	for _, f := range s.follows {
		near, far := ends(f)
		if near != userID {
			continue
		}
		if _, ok := s.liveUser(far); ok {
			edges = append(edges, f)
		}
	}
	sortByCreatedDesc(edges,
		func(f models.Follow) time.Time { return f.CreatedAt },
		func(f models.Follow) uint { return f.ID })

	page := paginate(edges, p)
	users := make([]models.UserCompact, 0, len(page))
	for _, f := range page {
		_, far := ends(f)
		u, _ := s.liveUser(far)
		users = append(users, u.ToCompact())
	}
	return users, int64(len(edges)), nil
}

func (s *Store) GetFollowersCount(_ context.Context, userID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, f := range s.follows {
		if f.FollowingID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetFollowingCount(_ context.Context, userID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, f := range s.follows {
		if f.FollowerID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetFollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []uint{}
	for _, f := range s.follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}
