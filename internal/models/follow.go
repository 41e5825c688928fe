package models

import "time"

// Follow is a directed follower -> following edge. The pair is unique and
// self-loops are rejected by a check constraint.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"not null;index;uniqueIndex:idx_follower_following;check:chk_follows_no_self,follower_id <> following_id"`
	FollowingID uint      `json:"following_id" gorm:"not null;index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// FollowRequest is the body of POST /social/follow.
type FollowRequest struct {
	FollowingID uint `json:"followingId" validate:"required,gt=0"`
}
