package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unfit20/unfit20/internal/cache"
	"github.com/unfit20/unfit20/internal/db"
	"github.com/unfit20/unfit20/internal/models"
	"github.com/unfit20/unfit20/pkg/config"
	"github.com/unfit20/unfit20/pkg/logging"
)

var (
	// ErrInvalidCredentials is returned when email or password does not match
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when signing up with an already registered email
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken is returned for malformed, expired or revoked tokens
	ErrInvalidToken = errors.New("invalid token")
)

// Service is the identity provider: it authenticates credential flows and
// resolves the current identity from access tokens.
type Service struct {
	users  *db.UserRepository
	cache  *cache.Cache
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(users *db.UserRepository, redisCache *cache.Cache, cfg *config.AuthConfig) *Service {
	return &Service{
		users:  users,
		cache:  redisCache,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		logger: logging.WithComponent("auth"),
	}
}

// SignUp registers a new user and returns the assigned identity
func (s *Service) SignUp(ctx context.Context, name, email, password string) (string, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	return user.ID, nil
}

// SignIn verifies credentials and issues an access token
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": user.ID,
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// SignOut revokes a token for the remainder of its lifetime
func (s *Service) SignOut(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return ErrInvalidToken
	}

	ttl := s.ttl
	if exp, ok := claims["exp"].(float64); ok {
		if remaining := time.Until(time.Unix(int64(exp), 0)); remaining > 0 {
			ttl = remaining
		}
	}

	if err := s.cache.Set(ctx, revokedKey(jti), "1", ttl); err != nil {
		if !errors.Is(err, cache.ErrCacheDisabled) {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
		// Without the denylist the token stays valid until it expires.
		s.logger.Warn("Sign-out without cache, token not revoked",
			zap.String("jti", jti), zap.Duration("remaining", ttl))
	}
	return nil
}

// CurrentIdentity resolves the user id carried by a token, rejecting
// revoked tokens. An empty token resolves to an empty identity.
func (s *Service) CurrentIdentity(ctx context.Context, tokenString string) (string, error) {
	if tokenString == "" {
		return "", nil
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return "", ErrInvalidToken
	}

	if jti, _ := claims["jti"].(string); jti != "" {
		revoked, err := s.cache.Exists(ctx, revokedKey(jti))
		if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
			return "", fmt.Errorf("failed to check revocation: %w", err)
		}
		if revoked {
			return "", ErrInvalidToken
		}
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *Service) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func revokedKey(jti string) string {
	return "auth:revoked:" + jti
}
