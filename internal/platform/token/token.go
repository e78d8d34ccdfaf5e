// Package token issues and verifies the platform's signed session tokens.
// Two kinds exist: short-lived access tokens presented on every request and
// longer-lived refresh tokens whose current value is persisted on the actor
// record. Each kind is signed with its own secret so one can be rotated
// without invalidating the other.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when a token's signature validates but its
	// expiry has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for any other verification failure: bad
	// signature, malformed token, or missing required claims.
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the claim set embedded in every access and refresh token. The
// actor type tag selects which credential namespace the subject belongs to;
// tokens without one are rejected outright.
type Claims struct {
	jwt.RegisteredClaims
	ActorID   uuid.UUID `json:"actor_id"`
	ActorType string    `json:"actor_type"`
	Role      string    `json:"role"`
}

// Issuer mints and verifies access/refresh token pairs.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer creates an Issuer with distinct secrets and lifetimes for the two
// token kinds.
func NewIssuer(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Access mints a signed access token bound to the actor id, type tag, and role.
func (i *Issuer) Access(actorID uuid.UUID, actorType, role string) (string, error) {
	return i.sign(actorID, actorType, role, i.accessSecret, i.accessTTL)
}

// Refresh mints a signed refresh token for the same identity.
func (i *Issuer) Refresh(actorID uuid.UUID, actorType, role string) (string, error) {
	return i.sign(actorID, actorType, role, i.refreshSecret, i.refreshTTL)
}

func (i *Issuer) sign(actorID uuid.UUID, actorType, role string, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ActorID:   actorID,
		ActorType: actorType,
		Role:      role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyAccess validates an access token and returns its claims.
func (i *Issuer) VerifyAccess(tokenStr string) (*Claims, error) {
	return i.verify(tokenStr, i.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (i *Issuer) VerifyRefresh(tokenStr string) (*Claims, error) {
	return i.verify(tokenStr, i.refreshSecret)
}

func (i *Issuer) verify(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}

	// A token the issuer minted always carries an actor id and type tag;
	// their absence means the token was forged or truncated.
	if claims.ActorID == uuid.Nil || claims.ActorType == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
