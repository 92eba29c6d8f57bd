package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Type           string     `json:"type"`
	Email          string     `json:"email,omitempty"`
	Role           Role       `json:"role,omitempty"`
	OrganizationID *uuid.UUID `json:"org,omitempty"`
	DonorID        *uuid.UUID `json:"donor,omitempty"`
}

// Issuer signs and verifies HS256 tokens. Access and refresh tokens use
// separate secrets and carry a type claim so one cannot stand in for the
// other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *Issuer) claims(a Account, typ string, ttl time.Duration) Claims {
	now := i.now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   a.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type:           typ,
		Email:          a.Email,
		Role:           a.Role,
		OrganizationID: a.OrganizationID,
		DonorID:        a.DonorID,
	}
}

func (i *Issuer) IssueAccess(a Account) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, i.claims(a, tokenTypeAccess, i.accessTTL))
	return token.SignedString(i.accessSecret)
}

// IssueRefresh returns the signed token and its id, which the caller
// registers so the token can be redeemed once.
func (i *Issuer) IssueRefresh(a Account) (token, jti string, err error) {
	c := Claims{
		RegisteredClaims: i.claims(a, tokenTypeRefresh, i.refreshTTL).RegisteredClaims,
		Type:             tokenTypeRefresh,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.refreshSecret)
	if err != nil {
		return "", "", err
	}
	return signed, c.ID, nil
}

func (i *Issuer) parse(raw string, secret []byte, typ string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, typ)
	}
	return &c, nil
}

func (i *Issuer) ParseAccess(raw string) (Principal, error) {
	c, err := i.parse(raw, i.accessSecret, tokenTypeAccess)
	if err != nil {
		return Principal{}, err
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return Principal{
		AccountID:      id,
		Email:          c.Email,
		Role:           c.Role,
		OrganizationID: c.OrganizationID,
		DonorID:        c.DonorID,
	}, nil
}

func (i *Issuer) ParseRefresh(raw string) (*Claims, error) {
	return i.parse(raw, i.refreshSecret, tokenTypeRefresh)
}
