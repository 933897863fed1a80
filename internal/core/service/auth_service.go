package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/minicrm/lead-api/internal/core/domain"
	"github.com/minicrm/lead-api/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration, login and token handling.
type AuthService struct {
	repo      ports.AuthRepository
	blacklist ports.TokenBlacklist
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

// NewAuthService builds the auth use cases. blacklist may be nil, in which case
// logout is a no-op and tokens stay valid until they expire.
func NewAuthService(repo ports.AuthRepository, blacklist ports.TokenBlacklist, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, blacklist: blacklist, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// Register creates a user with the default role and returns a token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, *domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	ve := &domain.ValidationError{}
	if name == "" {
		ve.Add("name", "Please provide a name")
	}
	if !domain.ValidEmail(email) {
		ve.Add("email", "Please provide a valid email")
	}
	if len(password) < minPasswordLength {
		ve.Add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if ve.HasErrors() {
		return "", nil, ve
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	user, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return token, user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims domain.Claims) error {
	if s.blacklist == nil || claims.TokenID == "" {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", claims.UserID).Str("jti", claims.TokenID).Msg("token revoked")
	return nil
}

// ParseToken verifies signature, algorithm and expiry, then consults the blacklist.
func (s *AuthService) ParseToken(ctx context.Context, tokenString string) (*domain.Claims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	c := &domain.Claims{
		UserID:  stringClaim(claims, "sub"),
		Name:    stringClaim(claims, "name"),
		Email:   stringClaim(claims, "email"),
		Role:    stringClaim(claims, "role"),
		TokenID: stringClaim(claims, "jti"),
	}
	if c.UserID == "" || c.Role == "" {
		return nil, domain.ErrUnauthorized
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	if s.blacklist != nil && c.TokenID != "" {
		revoked, err := s.blacklist.IsRevoked(ctx, c.TokenID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, domain.ErrUnauthorized
		}
	}
	return c, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
