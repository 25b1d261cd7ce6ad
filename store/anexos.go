// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/tenancy"
)

const attachmentColumns = `id, tenant_id, storage_key, file_name, file_size, mime_type, uploaded_by,
	uploaded_at, familia_id, individuo_id`

func scanAttachment(row interface{ Scan(...any) error }) (models.Attachment, error) {
	var (
		a                   models.Attachment
		familyID, citizenID sql.NullString
	)
	err := row.Scan(&a.ID, &a.TenantID, &a.StorageKey, &a.FileName, &a.FileSize, &a.MimeType,
		&a.UploadedBy, &a.UploadedAt, &familyID, &citizenID)
	if err != nil {
		return models.Attachment{}, err
	}
	a.FamilyID = stringPtr(familyID)
	a.CitizenID = stringPtr(citizenID)
	return a, nil
}

// CreateAttachment stores metadata for an uploaded file. Exactly one of
// FamilyID and CitizenID must be set and the owner must belong to the tenant.
func (s *Store) CreateAttachment(ctx context.Context, a models.Attachment) (models.Attachment, error) {
	if (a.FamilyID == nil) == (a.CitizenID == nil) {
		return models.Attachment{}, fmt.Errorf("attachment needs exactly one owner")
	}
	err := s.InTenant(ctx, "create", "anexo", func(q Querier, sc tenancy.Scope) error {
		table, owner := "individuo", a.CitizenID
		if a.FamilyID != nil {
			table, owner = "familia", a.FamilyID
		}
		var n int
		if err := q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+table+" WHERE id = $1 AND tenant_id = $2", *owner, sc.TenantID,
		).Scan(&n); err != nil {
			return fmt.Errorf("check owner: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%s %s: %w", table, *owner, ErrNotFound)
		}

		if a.ID == "" {
			a.ID = newID()
		}
		a.TenantID = sc.TenantID
		a.UploadedBy = sc.UserID
		a.UploadedAt = now()

		_, err := q.ExecContext(ctx, `
			INSERT INTO anexo (id, tenant_id, storage_key, file_name, file_size, mime_type, uploaded_by,
				uploaded_at, familia_id, individuo_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, a.ID, a.TenantID, a.StorageKey, a.FileName, a.FileSize, a.MimeType, a.UploadedBy,
			a.UploadedAt, nullString(a.FamilyID), nullString(a.CitizenID))
		if err != nil {
			return fmt.Errorf("insert anexo: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Attachment{}, err
	}
	return a, nil
}

func (s *Store) GetAttachment(ctx context.Context, id string) (models.Attachment, error) {
	var a models.Attachment
	err := s.InTenant(ctx, "findUnique", "anexo", func(q Querier, sc tenancy.Scope) error {
		var err error
		a, err = scanAttachment(q.QueryRowContext(ctx,
			"SELECT "+attachmentColumns+" FROM anexo WHERE id = $1 AND tenant_id = $2", id, sc.TenantID))
		if err != nil {
			return notFound(err, "anexo "+id)
		}
		return nil
	})
	return a, err
}

// GetAttachmentByKey resolves a storage key within the tenant.
func (s *Store) GetAttachmentByKey(ctx context.Context, key string) (models.Attachment, error) {
	var a models.Attachment
	err := s.InTenant(ctx, "findFirst", "anexo", func(q Querier, sc tenancy.Scope) error {
		var err error
		a, err = scanAttachment(q.QueryRowContext(ctx,
			"SELECT "+attachmentColumns+" FROM anexo WHERE storage_key = $1 AND tenant_id = $2", key, sc.TenantID))
		if err != nil {
			return notFound(err, "anexo by key")
		}
		return nil
	})
	return a, err
}

func (s *Store) DeleteAttachment(ctx context.Context, id string) error {
	return s.InTenant(ctx, "delete", "anexo", func(q Querier, sc tenancy.Scope) error {
		res, err := q.ExecContext(ctx, "DELETE FROM anexo WHERE id = $1 AND tenant_id = $2", id, sc.TenantID)
		if err != nil {
			return fmt.Errorf("delete anexo: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("anexo %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func listAttachments(ctx context.Context, q Querier, sc tenancy.Scope, citizenID, familyID string) ([]models.Attachment, error) {
	query := "SELECT " + attachmentColumns + " FROM anexo WHERE tenant_id = $1 AND (individuo_id = $2"
	args := []any{sc.TenantID, citizenID}
	if familyID != "" {
		query += " OR familia_id = $3"
		args = append(args, familyID)
	}
	query += ") ORDER BY uploaded_at DESC, id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list anexos: %w", err)
	}
	defer rows.Close()

	out := []models.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anexo: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
