// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrLinkExpired      = errors.New("link expired")
	ErrInvalidSession   = errors.New("invalid session token")
)

// GenerateToken creates a random URL-safe token for magic links and invitations
func GenerateToken() (string, error) {
	b := make([]byte, 32) // 256 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// HashToken returns the hex SHA-256 of a token. Only the hash is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SignDownload creates an HMAC signature binding a storage key to an expiry
// This is deterministic and verifiable
func SignDownload(key string, expires time.Time, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(expires.Unix(), 10)))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner links
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// VerifyDownload checks a signed download link. exp is the unix expiry from the query string.
func VerifyDownload(key, exp, sig, salt string, now time.Time) error {
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	expires := time.Unix(unix, 0)
	expected := SignDownload(key, expires, salt)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return ErrInvalidSignature
	}
	if !now.Before(expires) {
		return ErrLinkExpired
	}
	return nil
}

// SessionClaims is the payload of the session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	TenantID  string `json:"tid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// IssueSession signs a session token for a stored session row.
func IssueSession(sessionID, userID, tenantID, role string, expires time.Time, secret string) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		TenantID:  tenantID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// ParseSession validates signature and expiry and returns the claims.
func ParseSession(raw, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.SessionID == "" || claims.Subject == "" || claims.TenantID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
