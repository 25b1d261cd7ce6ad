// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - MagicLinkRequest: email
  - InviteUserRequest: email, role
  - CitizenInput: CadÚnico personal data, optional family fields on create
  - CreateAtendimentoRequest: tipo_demanda, encaminhamento, parecer_social

# Domain Types

  - Tenant: a municipality, the unit of data isolation
  - User: GESTOR or TECNICO belonging to one tenant
  - Citizen (individuo), Family (familia) and FamilyMember (composição)
  - Atendimento: one logged service for a citizen
  - Attachment (anexo): file metadata; the bytes live in blob storage

# Reporting Types

  - DashboardMetrics: KPI totals and monthly / per-demand breakdowns
  - RMAReport: Relatório Mensal de Atendimentos for one month

# Validation

ValidateCitizen and ValidateAtendimento normalize input (CPF and NIS are
reduced to digits) and return a *ValidationError with Portuguese messages
keyed by JSON field name.

# Constants

Roles:

	RoleGestor  = "GESTOR"
	RoleTecnico = "TECNICO"

User status:

	UserPending  = "PENDING"
	UserActive   = "ACTIVE"
	UserInactive = "INACTIVE"

Demand types are listed in DemandaLabels together with their display labels.
*/
package models
