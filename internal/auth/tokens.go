package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/XiaoHuahai/group3/internal/apperr"
)

// ErrInvalidToken indicates the token failed validation.
var ErrInvalidToken = fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)

// Claims represents JWT claims used across the service.
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenConfig holds the signing material and lifetime of access tokens.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens validates cfg and returns a token issuer.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("auth: token ttl must be greater than zero")
	}
	return &Tokens{
		secret: []byte(cfg.Secret),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// Issue signs a token carrying the user's id, email and roles.
func (t *Tokens) Issue(user User) (string, time.Time, error) {
	if strings.TrimSpace(user.ID) == "" {
		return "", time.Time{}, errors.New("auth: user id is required")
	}
	now := t.now().UTC()
	exp := now.Add(t.ttl)
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, string(r))
	}
	claims := Claims{
		Email: user.Email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks the signature and registered claims and returns the
// principal the token describes. Roles come from the token, so they may be
// stale; callers that must see current roles re-read the user record.
func (t *Tokens) Verify(token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Anonymous, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
		jwt.WithLeeway(5 * time.Second),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return Anonymous, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Anonymous, ErrInvalidToken
	}
	roles := make([]Role, 0, len(claims.Roles))
	for _, name := range claims.Roles {
		role, err := ParseRole(name)
		if err != nil {
			continue
		}
		roles = append(roles, role)
	}
	return Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Roles:  dedupeRoles(roles),
	}, nil
}
