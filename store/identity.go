// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aurorasocial/server/models"
)

// Unscoped operations used by the login flow, before a tenant is known.

var ErrExpired = errors.New("expired")

const userColumns = "id, tenant_id, email, name, role, status, created_at"

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.Status, &u.CreatedAt)
	return u, err
}

// CreateTenant registers a municipality.
func (s *Store) CreateTenant(ctx context.Context, name string) (models.Tenant, error) {
	t := models.Tenant{ID: newID(), Name: strings.TrimSpace(name), CreatedAt: now()}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tenant (id, name, created_at) VALUES ($1, $2, $3)",
		t.ID, t.Name, t.CreatedAt)
	if err != nil {
		return models.Tenant{}, fmt.Errorf("insert tenant: %w", err)
	}
	return t, nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM tenant WHERE id = $1", id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return models.Tenant{}, notFound(err, "get tenant")
	}
	return t, nil
}

// UserByEmailUnscoped looks a user up across all tenants. Emails are
// globally unique so at most one row matches.
func (s *Store) UserByEmailUnscoped(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1",
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, notFound(err, "user by email")
	}
	return u, nil
}

func (s *Store) UserByIDUnscoped(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return models.User{}, notFound(err, "user by id")
	}
	return u, nil
}

// CreateUserUnscoped inserts a user directly. Used to bootstrap the first
// GESTOR of a tenant; invitations go through InviteUser.
func (s *Store) CreateUserUnscoped(ctx context.Context, tenantID, email, name, role, status string) (models.User, error) {
	u := models.User{
		ID:        newID(),
		TenantID:  tenantID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      name,
		Role:      role,
		Status:    status,
		CreatedAt: now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, email, name, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.TenantID, u.Email, u.Name, u.Role, u.Status, u.CreatedAt)
	if err != nil {
		return models.User{}, wrapConflict(err, "insert user")
	}
	return u, nil
}

// ActivateUser moves a PENDING user to ACTIVE. Other states are left alone.
func (s *Store) ActivateUser(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET status = $1 WHERE id = $2 AND status = $3",
		models.UserActive, id, models.UserPending)
	if err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, userID string, ttl time.Duration) (models.Session, error) {
	created := now()
	sess := models.Session{ID: newID(), UserID: userID, CreatedAt: created, ExpiresAt: created.Add(ttl)}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO session (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return models.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession returns the session only while it is unexpired.
func (s *Store) GetSession(ctx context.Context, id string) (models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM session WHERE id = $1", id,
	).Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return models.Session{}, notFound(err, "get session")
	}
	if !sess.ExpiresAt.After(time.Now()) {
		return models.Session{}, fmt.Errorf("session %s: %w", id, ErrExpired)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions and verification tokens.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	t := now()
	var total int64
	for _, q := range []string{
		"DELETE FROM session WHERE expires_at <= $1",
		"DELETE FROM verification_token WHERE expires <= $1",
	} {
		res, err := s.db.ExecContext(ctx, q, t)
		if err != nil {
			return total, fmt.Errorf("delete expired: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// CreateVerificationToken stores the hash of a magic-link or invitation token.
func (s *Store) CreateVerificationToken(ctx context.Context, identifier, tokenHash string, ttl time.Duration) (models.VerificationToken, error) {
	vt := models.VerificationToken{
		Identifier: strings.ToLower(strings.TrimSpace(identifier)),
		TokenHash:  tokenHash,
		Expires:    now().Add(ttl),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO verification_token (identifier, token_hash, expires) VALUES ($1, $2, $3)",
		vt.Identifier, vt.TokenHash, vt.Expires)
	if err != nil {
		return models.VerificationToken{}, fmt.Errorf("insert verification token: %w", err)
	}
	return vt, nil
}

// ConsumeVerificationToken deletes the token and reports whether it was
// still valid. A token can be consumed once.
func (s *Store) ConsumeVerificationToken(ctx context.Context, identifier, tokenHash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin consume token: %w", err)
	}
	defer tx.Rollback()

	identifier = strings.ToLower(strings.TrimSpace(identifier))
	var expires time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT expires FROM verification_token WHERE identifier = $1 AND token_hash = $2",
		identifier, tokenHash,
	).Scan(&expires)
	if err != nil {
		return notFound(err, "verification token")
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM verification_token WHERE identifier = $1 AND token_hash = $2",
		identifier, tokenHash); err != nil {
		return fmt.Errorf("delete verification token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit consume token: %w", err)
	}

	if !expires.After(time.Now()) {
		return fmt.Errorf("verification token: %w", ErrExpired)
	}
	return nil
}
