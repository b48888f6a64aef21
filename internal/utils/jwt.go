package utils // package utils provides helpers for issuing operator tokens

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AdminRole is the role claim carried by operator tokens.
const AdminRole = "ADMIN"

// NewAdminToken signs an HS256 JWT for an operator allowed to call the
// admin endpoints.  The token carries sub, role, exp and iat claims and is
// accepted by middleware.JWTAuth configured with the same secret.
func NewAdminToken(secret, subject string, ttl time.Duration) (string, time.Time, error) {
    if secret == "" {
        return "", time.Time{}, errors.New("jwt secret is empty")
    }
    if ttl <= 0 {
        ttl = time.Hour
    }
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  subject,
        "role": AdminRole,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return "", time.Time{}, err
    }
    return signed, exp, nil
}
