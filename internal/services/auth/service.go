package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/farklegame/internal/dependencies/clock"
	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/storage"
)

// Errors
var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoSecret     = errors.New("jwt secret is not configured")
)

// Claims are the token claims issued by the account service
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service verifies bearer tokens and resolves them to known player profiles
type Service struct {
	profiles storage.ProfileStore
	clock    clock.Clock
	secret   []byte
	tokenTTL time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	// Secret is the HS256 signing key shared with the account service
	Secret string
	// TokenTTL is the lifetime of development tokens from Issue
	TokenTTL time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 24 * time.Hour,
	}
}

// New creates a new AuthService
func New(profiles storage.ProfileStore, clock clock.Clock, cfg Config) *Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	return &Service{
		profiles: profiles,
		clock:    clock,
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.TokenTTL,
	}
}

// Verify checks a token's signature and expiry and returns the profile it names.
// Returns ErrInvalidToken for bad tokens and model.ErrProfileNotFound for unknown accounts.
func (s *Service) Verify(ctx context.Context, token string) (*model.PlayerProfile, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return s.profiles.GetProfile(ctx, model.PlayerID(claims.Email))
}

// Issue signs a token for a profile. Used by the development CLI and tests;
// production tokens come from the account service.
func (s *Service) Issue(profile *model.PlayerProfile) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	now := s.clock.Now()
	claims := Claims{
		UserID: string(profile.ID),
		Email:  profile.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
