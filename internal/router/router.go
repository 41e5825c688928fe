package router

import (
	"github.com/anonto42/nano-press/backend/internal/handlers"
	"github.com/anonto42/nano-press/backend/internal/middleware"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/internal/repositories/memory"
	"github.com/anonto42/nano-press/backend/internal/services"
	"github.com/anonto42/nano-press/backend/pkg/config"
	"github.com/anonto42/nano-press/backend/pkg/firebase"
	"github.com/anonto42/nano-press/backend/pkg/metrics"
	"github.com/anonto42/nano-press/backend/pkg/payments"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Repositories bundles the storage implementations the routes depend on.
type Repositories struct {
	Users         repositories.UserRepository
	Follows       repositories.FollowRepository
	Subscriptions repositories.SubscriptionRepository
	Transactions  repositories.TransactionRepository
	Comments      repositories.CommentRepository
	Notifications repositories.NotificationRepository
	Posts         repositories.PostRepository
	Analytics     repositories.AnalyticsRepository
}

// NewPostgresRepositories wires relational tables to PostgreSQL and posts to MongoDB.
func NewPostgresRepositories(db *config.DB, mongoDatabase string) Repositories {
	return Repositories{
		Users:         repositories.NewPostgresUserRepository(db.Postgres),
		Follows:       repositories.NewPostgresFollowRepository(db.Postgres),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(db.Postgres),
		Transactions:  repositories.NewPostgresTransactionRepository(db.Postgres),
		Comments:      repositories.NewPostgresCommentRepository(db.Postgres),
		Notifications: repositories.NewPostgresNotificationRepository(db.Postgres),
		Posts:         repositories.NewMongoPostRepository(db.Mongo.Database(mongoDatabase)),
		Analytics:     repositories.NewPostgresAnalyticsRepository(db.Postgres),
	}
}

// NewMemoryRepositories serves every repository from one in-process store.
func NewMemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Users:         store,
		Follows:       store,
		Subscriptions: store,
		Transactions:  store,
		Comments:      store,
		Notifications: store,
		Posts:         store,
		Analytics:     store,
	}
}

// Dependencies are the collaborators built at process start. Optional
// integrations are left nil when unconfigured.
type Dependencies struct {
	Config      *config.Config
	Log         logrus.FieldLogger
	Repos       Repositories
	Health      handlers.Pinger
	Firebase    firebase.TokenVerifier
	Gateway     payments.Gateway
	Verifier    payments.Verifier
	AccessCache services.AccessCache
	Metrics     *metrics.Collector
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	cfg, log, repos := deps.Config, deps.Log, deps.Repos

	// --- Services ---
	notifier := services.NewNotifier(repos.Notifications, log)
	gate := services.NewAccessGate(repos.Subscriptions, deps.AccessCache, cfg.AccessCacheTTL, deps.Metrics, log)
	social := services.NewSocialService(repos.Users, repos.Follows, notifier, deps.Metrics, log)
	subscriptions := services.NewSubscriptionService(repos.Users, repos.Subscriptions, deps.Gateway, gate, notifier, deps.Metrics, log)
	billing := services.NewBillingService(repos.Users, repos.Transactions, deps.Gateway, cfg.StripeCurrency, log)
	reconciler := services.NewPaymentReconciler(repos.Subscriptions, repos.Transactions, gate, deps.Metrics, log)
	analytics := services.NewAnalyticsService(repos.Analytics, repos.Posts, log)

	// Every /api route sees the caller's claims when a valid token is sent;
	// auth guards the routes that require one.
	api := e.Group("/api", middleware.OptionalJWTAuth(cfg.JWTSecret))
	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret)

	handlers.NewHealthHandler(deps.Health).RegisterHealthRoutes(api)
	handlers.NewAuthHandler(repos.Users, deps.Firebase, cfg.JWTSecret, log).RegisterAuthRoutes(api.Group("/auth"))
	handlers.NewUserHandler(repos.Users, social).RegisterProfileRoutes(api, auth)
	handlers.NewSocialHandler(social).RegisterSocialRoutes(api, auth)
	handlers.NewSubscriptionHandler(subscriptions, billing).RegisterSubscriptionRoutes(api, auth)
	handlers.NewBillingHandler(billing).RegisterBillingRoutes(api, auth)
	handlers.NewWebhookHandler(deps.Verifier, reconciler, deps.Metrics, log).RegisterWebhookRoutes(api)
	handlers.NewPostHandler(repos.Posts, gate).RegisterPostRoutes(api, auth)
	handlers.NewCommentHandler(repos.Comments, repos.Posts, repos.Users, gate, notifier, log).RegisterCommentRoutes(api, auth)
	handlers.NewFeedHandler(repos.Posts, repos.Users, social, gate).RegisterFeedRoutes(api, auth)
	handlers.NewNotificationHandler(repos.Notifications, repos.Users).RegisterNotificationRoutes(api, auth)
	handlers.NewAnalyticsHandler(analytics).RegisterAnalyticsRoutes(api, auth)

	log.WithField("routes", len(e.Routes())).Info("All routes configured")
}
