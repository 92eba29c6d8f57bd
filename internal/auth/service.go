package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	redisclient "github.com/hackgods/donation-pipeline/internal/redis"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// RefreshTokens remembers issued refresh tokens until they are redeemed.
type RefreshTokens interface {
	Save(ctx context.Context, jti, accountID string, ttl time.Duration) error
	Consume(ctx context.Context, jti string) (string, error)
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Role         Role   `json:"role"`
}

type Service struct {
	repo    Repository
	issuer  *Issuer
	refresh RefreshTokens
	logger  zerolog.Logger
}

func NewService(repo Repository, issuer *Issuer, refresh RefreshTokens, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		issuer:  issuer,
		refresh: refresh,
		logger:  logger,
	}
}

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("account_id", a.ID.String()).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, *a)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", a.ID.String()).Str("role", string(a.Role)).Msg("login")
	return pair, nil
}

// Refresh redeems a refresh token for a new pair. Each refresh token works
// once; replaying it fails with ErrInvalidToken.
func (s *Service) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	c, err := s.issuer.ParseRefresh(raw)
	if err != nil {
		return nil, err
	}

	accountID, err := s.refresh.Consume(ctx, c.ID)
	if err != nil {
		if errors.Is(err, redisclient.ErrTokenNotFound) {
			s.logger.Warn().Str("jti", c.ID).Msg("refresh token replayed or revoked")
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if accountID != c.Subject {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	return s.issue(ctx, *a)
}

func (s *Service) issue(ctx context.Context, a Account) (*TokenPair, error) {
	access, err := s.issuer.IssueAccess(a)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, jti, err := s.issuer.IssueRefresh(a)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.refresh.Save(ctx, jti, a.ID.String(), s.issuer.RefreshTTL()); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, Role: a.Role}, nil
}
