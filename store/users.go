// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/tenancy"
)

// ListUsers returns the users of the caller's tenant, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.InTenant(ctx, "findMany", "users", func(q Querier, sc tenancy.Scope) error {
		rows, err := q.QueryContext(ctx,
			"SELECT "+userColumns+" FROM users WHERE tenant_id = $1 ORDER BY created_at DESC, email",
			sc.TenantID)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("scan user: %w", err)
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// InviteUser creates a PENDING user in the caller's tenant. An email already
// registered anywhere yields ErrConflict.
func (s *Store) InviteUser(ctx context.Context, email, role string) (models.User, error) {
	var u models.User
	err := s.InTenant(ctx, "create", "users", func(q Querier, sc tenancy.Scope) error {
		u = models.User{
			ID:        newID(),
			TenantID:  sc.TenantID,
			Email:     strings.ToLower(strings.TrimSpace(email)),
			Role:      role,
			Status:    models.UserPending,
			CreatedAt: now(),
		}
		u.Name = models.DisplayNameFromEmail(u.Email)

		_, err := q.ExecContext(ctx, `
			INSERT INTO users (id, tenant_id, email, name, role, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, u.ID, u.TenantID, u.Email, u.Name, u.Role, u.Status, u.CreatedAt)
		if err != nil {
			return wrapConflict(err, "invite user")
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SetUserStatus changes a user's status within the caller's tenant.
// Deactivation also drops every session of the user.
func (s *Store) SetUserStatus(ctx context.Context, id, status string) (models.User, error) {
	var u models.User
	err := s.InTenant(ctx, "update", "users", func(q Querier, sc tenancy.Scope) error {
		res, err := q.ExecContext(ctx,
			"UPDATE users SET status = $1 WHERE id = $2 AND tenant_id = $3",
			status, id, sc.TenantID)
		if err != nil {
			return fmt.Errorf("update user status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}

		if status == models.UserInactive {
			if _, err := q.ExecContext(ctx, "DELETE FROM session WHERE user_id = $1", id); err != nil {
				return fmt.Errorf("delete user sessions: %w", err)
			}
		}

		u, err = scanUser(q.QueryRowContext(ctx,
			"SELECT "+userColumns+" FROM users WHERE id = $1 AND tenant_id = $2", id, sc.TenantID))
		if err != nil {
			return notFound(err, "reload user")
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// DeleteUser removes a user of the caller's tenant together with any pending
// verification tokens for its email.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.InTenant(ctx, "delete", "users", func(q Querier, sc tenancy.Scope) error {
		var email string
		err := q.QueryRowContext(ctx,
			"SELECT email FROM users WHERE id = $1 AND tenant_id = $2", id, sc.TenantID).Scan(&email)
		if err != nil {
			return notFound(err, "user")
		}

		if _, err := q.ExecContext(ctx, "DELETE FROM verification_token WHERE identifier = $1", email); err != nil {
			return fmt.Errorf("delete user tokens: %w", err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM session WHERE user_id = $1", id); err != nil {
			return fmt.Errorf("delete user sessions: %w", err)
		}
		if _, err := q.ExecContext(ctx,
			"DELETE FROM users WHERE id = $1 AND tenant_id = $2", id, sc.TenantID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}
