// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/tenancy"
)

// CreateAtendimento records a service for a citizen, dated now and
// attributed to the calling user.
func (s *Store) CreateAtendimento(ctx context.Context, citizenID string, req models.CreateAtendimentoRequest) (models.Atendimento, error) {
	var a models.Atendimento
	err := s.InTenant(ctx, "create", "atendimento", func(q Querier, sc tenancy.Scope) error {
		if _, err := getCitizen(ctx, q, sc, citizenID); err != nil {
			return err
		}

		a = models.Atendimento{
			ID:             newID(),
			TenantID:       sc.TenantID,
			CitizenID:      citizenID,
			UserID:         sc.UserID,
			Data:           now(),
			TipoDemanda:    req.TipoDemanda,
			Encaminhamento: req.Encaminhamento,
			ParecerSocial:  req.ParecerSocial,
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO atendimento (id, tenant_id, individuo_id, user_id, data, tipo_demanda, encaminhamento, parecer_social)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, a.ID, a.TenantID, a.CitizenID, a.UserID, a.Data, a.TipoDemanda, a.Encaminhamento, a.ParecerSocial)
		if err != nil {
			return fmt.Errorf("insert atendimento: %w", err)
		}

		return q.QueryRowContext(ctx,
			"SELECT name FROM users WHERE id = $1 AND tenant_id = $2", a.UserID, sc.TenantID,
		).Scan(&a.UserName)
	})
	if err != nil {
		return models.Atendimento{}, err
	}
	return a, nil
}

func listAtendimentos(ctx context.Context, q Querier, sc tenancy.Scope, citizenID string) ([]models.Atendimento, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.id, a.tenant_id, a.individuo_id, a.user_id, COALESCE(u.name, ''), a.data,
			a.tipo_demanda, a.encaminhamento, a.parecer_social
		FROM atendimento a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.individuo_id = $1 AND a.tenant_id = $2
		ORDER BY a.data DESC, a.id
	`, citizenID, sc.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list atendimentos: %w", err)
	}
	defer rows.Close()

	out := []models.Atendimento{}
	for rows.Next() {
		var a models.Atendimento
		if err := rows.Scan(&a.ID, &a.TenantID, &a.CitizenID, &a.UserID, &a.UserName, &a.Data,
			&a.TipoDemanda, &a.Encaminhamento, &a.ParecerSocial); err != nil {
			return nil, fmt.Errorf("scan atendimento: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
