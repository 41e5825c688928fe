package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/pkg/firebase"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of issued bearer tokens.
const TokenTTL = 72 * time.Hour

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebase       firebase.TokenVerifier
	jwtSecret      string
	log            logrus.FieldLogger
	now            func() time.Time
}

// NewAuthHandler creates a new AuthHandler. verifier may be nil, which
// disables federated login.
func NewAuthHandler(userRepo repositories.UserRepository, verifier firebase.TokenVerifier, jwtSecret string, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebase:       verifier,
		jwtSecret:      jwtSecret,
		log:            log.WithField("component", "auth"),
		now:            time.Now,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hash := string(hashedPassword)

	user := &models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		Role:         models.RoleAuthor,
		PasswordHash: &hash,
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		if apperrors.Is(err, apperrors.KindConflict) {
			return apperrors.Conflict("a user with this email or username already exists")
		}
		return err
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return err
	}
	h.log.WithField("user_id", user.ID).Info("user signed up")
	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": user})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return err
	}
	if user.PasswordHash == nil {
		return apperrors.Unauthorized("this account signs in with a federated provider")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return apperrors.Unauthorized("invalid email or password")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT. The
// account is found by Firebase UID, then by email, and created on first login.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebase == nil {
		return apperrors.Upstream(nil, "federated login is not configured")
	}
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	identity, err := h.firebase.Verify(ctx, req.IDToken)
	if err != nil {
		return apperrors.Unauthorized("invalid Firebase ID token")
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, identity.UID)
	switch {
	case err == nil:
	case apperrors.Is(err, apperrors.KindNotFound):
		user, err = h.linkOrCreate(c, identity)
		if err != nil {
			return err
		}
	default:
		return err
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

func (h *AuthHandler) linkOrCreate(c echo.Context, identity *firebase.Identity) (*models.User, error) {
	ctx := c.Request().Context()
	uid := identity.UID

	user, err := h.userRepository.GetUserByEmail(ctx, identity.Email)
	if err == nil {
		user.FirebaseUID = &uid
		if err := h.userRepository.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
		h.log.WithField("user_id", user.ID).Info("linked federated login to existing user")
		return user, nil
	}
	if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	user = &models.User{
		Name:        identity.Name,
		Username:    generateUsername(identity.Email),
		Email:       strings.ToLower(identity.Email),
		Role:        models.RoleAuthor,
		FirebaseUID: &uid,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	h.log.WithField("user_id", user.ID).Info("created user from federated login")
	return user, nil
}

// generateUsername derives an alphanumeric username from the email's local
// part plus a random suffix.
func generateUsername(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 20 {
			break
		}
	}
	if b.Len() == 0 {
		b.WriteString("user")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return b.String() + suffix
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := h.now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
