package repositories

import (
	"context"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow data operations.
// CreateFollow relies on the unique (follower_id, following_id) index, so a
// concurrent duplicate fails with a conflict.
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) error
	DeleteFollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID uint, p models.Pagination) ([]models.UserCompact, int64, error)
	GetFollowing(ctx context.Context, userID uint, p models.Pagination) ([]models.UserCompact, int64, error)
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) error {
	return translate(r.db.WithContext(ctx).Create(follow).Error, "follow relationship")
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return translate(res.Error, "follow relationship")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("follow relationship not found")
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, translate(err, "follow relationship")
	}
	return count > 0, nil
}

// GetFollowers lists the users following userID, most recent edge first
func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uint, p models.Pagination) ([]models.UserCompact, int64, error) {
	return r.listEdges(ctx, "follower_id", "following_id", userID, p)
}

// GetFollowing lists the users userID follows, most recent edge first
func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uint, p models.Pagination) ([]models.UserCompact, int64, error) {
	return r.listEdges(ctx, "following_id", "follower_id", userID, p)
}

// listEdges joins the far end of each edge to users. Soft-deleted users are
// left out of both the page and the total.
func (r *PostgresFollowRepository) listEdges(ctx context.Context, joinColumn, filterColumn string, userID uint, p models.Pagination) ([]models.UserCompact, int64, error) {
	users := []models.UserCompact{}
	var total int64

	q := r.db.WithContext(ctx).Table("follows").
		Joins("JOIN users ON users.id = follows."+joinColumn+" AND users.deleted_at IS NULL").
		Where("follows."+filterColumn+" = ?", userID).
		Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "follow relationship")
	}
	err := q.Select("users.id, users.username, users.name, users.avatar").
		Order("follows.created_at DESC, follows.id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Scan(&users).Error
	if err != nil {
		return nil, 0, translate(err, "follow relationship")
	}
	return users, total, nil
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, translate(err, "follow relationship")
}

func (r *PostgresFollowRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, translate(err, "follow relationship")
}

func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	if err != nil {
		return nil, translate(err, "follow relationship")
	}
	return ids, nil
}
