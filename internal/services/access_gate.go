package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// AccessCache memoises the paid-through time of a (viewer, creator) pair. A
// zero expiry with found=true is a cached "no subscription".
type AccessCache interface {
	Get(ctx context.Context, viewerID, creatorID uint) (expiresAt time.Time, found bool, err error)
	Set(ctx context.Context, viewerID, creatorID uint, expiresAt time.Time, ttl time.Duration) error
	Invalidate(ctx context.Context, viewerID, creatorID uint) error
}

// Viewer is the caller of a read. The zero value is an anonymous viewer.
type Viewer struct {
	UserID uint
	Role   models.Role
}

// ViewerFromClaims builds a viewer from optional token claims.
func ViewerFromClaims(claims *models.JwtCustomClaims) Viewer {
	if claims == nil {
		return Viewer{}
	}
	return Viewer{UserID: claims.UserID, Role: claims.Role}
}

func (v Viewer) anonymous() bool { return v.UserID == 0 }

// AccessGate decides whether a viewer may read a premium post.
type AccessGate struct {
	subs    repositories.SubscriptionRepository
	cache   AccessCache
	ttl     time.Duration
	metrics *metrics.Collector
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewAccessGate builds a gate. cache may be nil, in which case every check
// reads the subscription ledger.
func NewAccessGate(subs repositories.SubscriptionRepository, cache AccessCache, ttl time.Duration, m *metrics.Collector, log logrus.FieldLogger) *AccessGate {
	return &AccessGate{
		subs:    subs,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
		log:     log.WithField("component", "access_gate"),
		now:     time.Now,
	}
}

// HasAccess reports whether viewer may read post in full. Free posts are open
// to everyone; premium posts need the author, a staff role, or a subscription
// to the author that is active right now.
func (g *AccessGate) HasAccess(ctx context.Context, viewer Viewer, post *models.Post) (bool, error) {
	if !post.Premium {
		return true, nil
	}
	if viewer.anonymous() {
		g.metrics.AccessCheck("anonymous")
		return false, nil
	}
	if viewer.UserID == post.AuthorID || viewer.Role.IsStaff() {
		g.metrics.AccessCheck("owner")
		return true, nil
	}

	expiresAt, err := g.paidThrough(ctx, viewer.UserID, post.AuthorID)
	if err != nil {
		return false, err
	}
	granted := expiresAt.After(g.now())
	if granted {
		g.metrics.AccessCheck("granted")
	} else {
		g.metrics.AccessCheck("denied")
	}
	return granted, nil
}

// Redact strips the body of every post the viewer may not read.
func (g *AccessGate) Redact(ctx context.Context, viewer Viewer, posts []models.Post) error {
	for i := range posts {
		ok, err := g.HasAccess(ctx, viewer, &posts[i])
		if err != nil {
			return err
		}
		if !ok {
			posts[i].Redact()
		}
	}
	return nil
}

// Invalidate forgets the cached state of a pair after a ledger write.
func (g *AccessGate) Invalidate(ctx context.Context, viewerID, creatorID uint) {
	if g == nil || g.cache == nil {
		return
	}
	if err := g.cache.Invalidate(ctx, viewerID, creatorID); err != nil {
		g.log.WithError(err).WithFields(logrus.Fields{
			"viewer_id":  viewerID,
			"creator_id": creatorID,
		}).Warn("failed to invalidate access cache")
	}
}

// paidThrough returns the pair's active expiry, or the zero time when there
// is none. Cache failures fall back to the ledger.
func (g *AccessGate) paidThrough(ctx context.Context, viewerID, creatorID uint) (time.Time, error) {
	log := g.log.WithFields(logrus.Fields{"viewer_id": viewerID, "creator_id": creatorID})
	if g.cache != nil {
		expiresAt, found, err := g.cache.Get(ctx, viewerID, creatorID)
		if err != nil {
			log.WithError(err).Warn("access cache read failed")
		} else if found {
			return expiresAt, nil
		}
	}

	now := g.now()
	var expiresAt time.Time
	sub, err := g.subs.FindActive(ctx, viewerID, creatorID, now)
	switch {
	case err == nil:
		expiresAt = sub.ExpiresAt
	case apperrors.Is(err, apperrors.KindNotFound):
	default:
		return time.Time{}, err
	}

	if g.cache != nil {
		ttl := g.ttl
		if !expiresAt.IsZero() {
			if remaining := expiresAt.Sub(now); remaining < ttl {
				ttl = remaining
			}
		}
		if err := g.cache.Set(ctx, viewerID, creatorID, expiresAt, ttl); err != nil {
			log.WithError(err).Warn("access cache write failed")
		}
	}
	return expiresAt, nil
}
