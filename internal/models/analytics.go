package models

import "time"

// EngagementType is the kind of reader interaction recorded against a post.
type EngagementType string

const (
	EngagementRead     EngagementType = "read"
	EngagementLike     EngagementType = "like"
	EngagementShare    EngagementType = "share"
	EngagementBookmark EngagementType = "bookmark"
	EngagementComment  EngagementType = "comment"
)

// PageViewDays is how many daily buckets the page-view report returns.
const PageViewDays = 30

// PageView is one recorded page load. Anonymous views have no UserID.
type PageView struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	URL       string    `json:"url" gorm:"size:2048;not null"`
	PostID    *string   `json:"postId,omitempty" gorm:"size:24;index"`
	UserID    *uint     `json:"userId,omitempty" gorm:"index"`
	SessionID string    `json:"sessionId" gorm:"size:100;index"`
	IPAddress string    `json:"-" gorm:"size:45"`
	UserAgent string    `json:"-"`
	Referer   string    `json:"referer,omitempty"`
	Duration  int       `json:"duration"` // seconds on page
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// UserEngagement is one interaction with a post.
type UserEngagement struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	PostID    string         `json:"postId" gorm:"size:24;not null;index"`
	UserID    *uint          `json:"userId,omitempty" gorm:"index"`
	SessionID string         `json:"sessionId" gorm:"size:100"`
	Type      EngagementType `json:"type" gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time      `json:"createdAt"`
}

// DailyPageViews is the number of page views recorded on one UTC day.
type DailyPageViews struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// EngagementCount is the number of interactions of one type.
type EngagementCount struct {
	Type  EngagementType `json:"type"`
	Count int64          `json:"count"`
}

// EngagementSummary groups interactions by type. EngagementRate is
// interactions per registered user, as a percentage.
type EngagementSummary struct {
	Engagement     []EngagementCount `json:"engagement"`
	EngagementRate float64           `json:"engagementRate"`
}

// DashboardStats are the platform-wide totals.
type DashboardStats struct {
	TotalUsers     int64 `json:"totalUsers"`
	TotalPosts     int64 `json:"totalPosts"`
	TotalComments  int64 `json:"totalComments"`
	TotalPageViews int64 `json:"totalPageViews"`
}

// PageViewRequest is the body of POST /analytics/pageview.
type PageViewRequest struct {
	URL       string `json:"url" validate:"required,max=2048"`
	PostID    string `json:"postId,omitempty" validate:"omitempty,len=24,hexadecimal"`
	SessionID string `json:"sessionId" validate:"required,max=100"`
	Referrer  string `json:"referrer,omitempty" validate:"omitempty,max=2048"`
	Duration  int    `json:"duration" validate:"min=0,max=86400"`
}

// EngagementRequest is the body of POST /analytics/engagement.
type EngagementRequest struct {
	PostID    string         `json:"postId" validate:"required,len=24,hexadecimal"`
	Type      EngagementType `json:"type" validate:"required,oneof=read like share bookmark comment"`
	SessionID string         `json:"sessionId" validate:"omitempty,max=100"`
}
