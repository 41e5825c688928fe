package services

import (
	"context"
	"strconv"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// SocialService is the relationship ledger: directed, unique follow edges.
type SocialService struct {
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	notifier *Notifier
	metrics  *metrics.Collector
	log      logrus.FieldLogger
}

func NewSocialService(users repositories.UserRepository, follows repositories.FollowRepository, notifier *Notifier, m *metrics.Collector, log logrus.FieldLogger) *SocialService {
	return &SocialService{
		users:    users,
		follows:  follows,
		notifier: notifier,
		metrics:  m,
		log:      log.WithField("component", "social"),
	}
}

// Follow creates the edge follower -> following and returns the followed
// user's public profile. A concurrent duplicate fails with CONFLICT.
func (s *SocialService) Follow(ctx context.Context, followerID, followingID uint) (*models.UserCompact, error) {
	if followerID == followingID {
		return nil, apperrors.InvalidOperation("you cannot follow yourself")
	}
	target, err := s.users.GetUserByID(ctx, followingID)
	if err != nil {
		return nil, err
	}

	err = s.follows.CreateFollow(ctx, &models.Follow{FollowerID: followerID, FollowingID: followingID})
	if apperrors.Is(err, apperrors.KindConflict) {
		s.metrics.LedgerConflict("follow")
		return nil, apperrors.Conflict("you are already following this user")
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"follower_id": followerID, "following_id": followingID}).Info("user followed")
	s.notifier.Notify(ctx, models.NotificationFollow, followerID, followingID,
		strconv.FormatUint(uint64(followerID), 10), "started following you")

	compact := target.ToCompact()
	return &compact, nil
}

// Unfollow removes the edge. A missing edge is NOT_FOUND.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if err := s.follows.DeleteFollow(ctx, followerID, followingID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"follower_id": followerID, "following_id": followingID}).Info("user unfollowed")
	return nil
}

// Followers pages the users following userID, most recent first.
func (s *SocialService) Followers(ctx context.Context, userID uint, p models.Pagination) (models.Page[models.UserCompact], error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return models.Page[models.UserCompact]{}, err
	}
	users, total, err := s.follows.GetFollowers(ctx, userID, p)
	if err != nil {
		return models.Page[models.UserCompact]{}, err
	}
	return models.NewPage(users, total, p), nil
}

// Following pages the users userID follows, most recent first.
func (s *SocialService) Following(ctx context.Context, userID uint, p models.Pagination) (models.Page[models.UserCompact], error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return models.Page[models.UserCompact]{}, err
	}
	users, total, err := s.follows.GetFollowing(ctx, userID, p)
	if err != nil {
		return models.Page[models.UserCompact]{}, err
	}
	return models.NewPage(users, total, p), nil
}

// IsFollowing reports whether the edge follower -> following exists.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.follows.IsFollowing(ctx, followerID, followingID)
}

// Profile returns a user's public profile with relationship counts.
func (s *SocialService) Profile(ctx context.Context, userID uint) (*models.PublicProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.PublicProfile{
		UserCompact:    user.ToCompact(),
		Bio:            user.Bio,
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}

// FollowingIDs lists the ids userID follows, for the feed.
func (s *SocialService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.follows.GetFollowingIDs(ctx, userID)
}
