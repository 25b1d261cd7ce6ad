// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tenancy carries the requesting municipality through a request.

Authentication middleware stores a Scope in the request context:

	ctx = tenancy.WithScope(ctx, tenancy.Scope{TenantID: u.TenantID, UserID: u.ID, Role: u.Role})

The data layer asks for it before touching a tenant-owned table:

	sc, err := tenancy.Require(ctx, "findMany", "individuo")
	if err != nil {
		return err // *ViolationError, matches ErrNoTenant
	}

# Isolated Models

familia, individuo, composicao_familiar, atendimento, anexo and users rows
carry tenant_id. familia and individuo also record created_by, filled from
Scope.UserID unless the caller sets it.
*/
package tenancy
