package utils // package utils provides helpers for password digests, session ids and signed tokens

import (
    "crypto/rand"  // secure random number generation
    "encoding/hex" // hex encoding of random bytes
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a session token is malformed, signed
// with another key or past its expiry.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims wraps a session id in a signed envelope.  Subject holds
// the user id for convenience; only the sid is trusted, and only after
// the store has confirmed the session row still exists.
type SessionClaims struct {
    SessionID string `json:"sid"`
    jwt.RegisteredClaims
}

// NewSessionID returns 32 bytes of secure random data as 64 hex chars.
func NewSessionID() (string, error) {
    return randomHex(32)
}

// SignSessionToken builds an HS256 JWT carrying the session id.  exp
// should equal the session's expiry so the envelope never outlives it.
func SignSessionToken(secret, userID, sessionID string, exp time.Time) (string, error) {
    claims := SessionClaims{
        SessionID: sessionID,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   userID,
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// ParseSessionToken verifies the signature and expiry of a token and
// returns the session id it carries.
func ParseSessionToken(secret, token string) (string, error) {
    var claims SessionClaims
    _, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || claims.SessionID == "" {
        return "", ErrInvalidToken
    }
    return claims.SessionID, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
