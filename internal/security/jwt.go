package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWrongRoom    = errors.New("token issued for another room")
)

// HostClaims identify the creator of a room: sub is the opaque session id.
type HostClaims struct {
	RoomID string `json:"room"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 host tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Sign issues a token binding sessionID to roomID, valid for ttl from now.
func (t *TokenIssuer) Sign(sessionID, roomID string, now time.Time) (string, error) {
	if sessionID == "" || roomID == "" {
		return "", errors.New("security: empty session or room id")
	}
	claims := HostClaims{
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses tokenStr and checks that it was issued for roomID.
func (t *TokenIssuer) Verify(tokenStr, roomID string) (*HostClaims, error) {
	claims := &HostClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.RoomID != roomID {
		return nil, ErrWrongRoom
	}
	return claims, nil
}
