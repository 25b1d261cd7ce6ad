// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tenancy

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrNoTenant is matched by every ViolationError.
var ErrNoTenant = errors.New("tenant context not found")

// Models whose rows carry a tenant_id column.
var IsolatedModels = []string{"familia", "individuo", "composicao_familiar", "atendimento", "anexo", "users"}

// Models whose rows carry a created_by column filled from the scope user.
var AuditableModels = []string{"familia", "individuo"}

// Scope is the tenant identity attached to a request.
type Scope struct {
	TenantID string
	UserID   string
	Role     string
}

type scopeKey struct{}

// WithScope returns a child context carrying sc.
func WithScope(ctx context.Context, sc Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

// FromContext returns the scope stored in ctx, if any.
func FromContext(ctx context.Context) (Scope, bool) {
	sc, ok := ctx.Value(scopeKey{}).(Scope)
	if !ok || sc.TenantID == "" {
		return Scope{}, false
	}
	return sc, true
}

// ViolationError reports a tenant-owned operation attempted without a scope.
type ViolationError struct {
	Action string
	Model  string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("multi-tenant violation: %s on %s requires tenant context", e.Action, e.Model)
}

func (e *ViolationError) Unwrap() error {
	return ErrNoTenant
}

// Require returns the scope for a tenant-owned operation. Models outside
// IsolatedModels pass through with whatever scope is present.
func Require(ctx context.Context, action, model string) (Scope, error) {
	sc, ok := FromContext(ctx)
	if !IsIsolated(model) {
		return sc, nil
	}
	if !ok {
		return Scope{}, &ViolationError{Action: action, Model: model}
	}
	return sc, nil
}

// IsIsolated reports whether model rows are tenant-owned.
func IsIsolated(model string) bool {
	return slices.Contains(IsolatedModels, model)
}

// IsAuditable reports whether model rows record their creator.
func IsAuditable(model string) bool {
	return slices.Contains(AuditableModels, model)
}

// CreatedBy returns the audit value for a new row of model: the explicit
// value when set, otherwise the scope user for auditable models.
func (sc Scope) CreatedBy(model string, explicit *string) *string {
	if explicit != nil && *explicit != "" {
		return explicit
	}
	if !IsAuditable(model) || sc.UserID == "" {
		return nil
	}
	id := sc.UserID
	return &id
}
