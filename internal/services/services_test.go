package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories/memory"
	"github.com/anonto42/nano-press/backend/pkg/cache"
	"github.com/anonto42/nano-press/backend/pkg/logger"
	"github.com/anonto42/nano-press/backend/pkg/metrics"
	"github.com/anonto42/nano-press/backend/pkg/payments"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// clock is a settable time source shared by the services under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeGateway records processor calls.
type fakeGateway struct {
	mu            sync.Mutex
	customers     int
	subscriptions []map[string]string
	canceled      []string
	intents       []payments.PaymentIntentRequest
	err           error
}

func (g *fakeGateway) CreateCustomer(_ context.Context, userID uint, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.customers++
	return fmt.Sprintf("cus_%d", userID), nil
}

func (g *fakeGateway) CreateSubscription(_ context.Context, _ string, metadata map[string]string) (*payments.SubscriptionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.subscriptions = append(g.subscriptions, metadata)
	return &payments.SubscriptionResult{ID: fmt.Sprintf("sub_%d", len(g.subscriptions)), Status: "incomplete"}, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.canceled = append(g.canceled, id)
	return nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req payments.PaymentIntentRequest) (*payments.PaymentIntentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.intents = append(g.intents, req)
	return &payments.PaymentIntentResult{ID: fmt.Sprintf("pi_%d", len(g.intents)), ClientSecret: "secret"}, nil
}

var errProcessorDown = errors.New("processor unavailable")

type testEnv struct {
	store      *memory.Store
	clock      *clock
	gateway    *fakeGateway
	redis      *miniredis.Miniredis
	metrics    *metrics.Collector
	social     *SocialService
	subs       *SubscriptionService
	billing    *BillingService
	gate       *AccessGate
	reconciler *PaymentReconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	accessCache, err := cache.NewAccessCache(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = accessCache.Close() })

	env := &testEnv{
		store:   memory.New(),
		clock:   &clock{now: t0},
		gateway: &fakeGateway{},
		redis:   mr,
		metrics: metrics.New(),
	}
	log := logger.Discard()
	notifier := NewNotifier(env.store, log)

	env.gate = NewAccessGate(env.store, accessCache, 5*time.Minute, env.metrics, log)
	env.gate.now = env.clock.Now
	env.social = NewSocialService(env.store, env.store, notifier, env.metrics, log)
	env.subs = NewSubscriptionService(env.store, env.store, env.gateway, env.gate, notifier, env.metrics, log)
	env.subs.now = env.clock.Now
	env.billing = NewBillingService(env.store, env.store, env.gateway, "usd", log)
	env.reconciler = NewPaymentReconciler(env.store, env.store, env.gate, env.metrics, log)
	env.reconciler.now = env.clock.Now
	return env
}

func (e *testEnv) seedUsers(t *testing.T, names ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(names))
	for _, n := range names {
		u := &models.User{Name: n, Username: n, Email: n + "@example.com", Role: models.RoleAuthor}
		require.NoError(t, e.store.CreateUser(context.Background(), u))
		ids = append(ids, u.ID)
	}
	return ids
}
