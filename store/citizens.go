// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/tenancy"
)

const citizenColumns = `id, tenant_id, nome_completo, cpf, data_nascimento, sexo, nome_mae, nis, rg,
	titulo_eleitor, carteira_trabalho, created_by, created_at, updated_at`

// NewCitizen is a validated citizen plus the família to open with it, if any.
type NewCitizen struct {
	Citizen models.CitizenRecord
	Family  *models.FamilyRecord
}

func scanCitizen(row interface{ Scan(...any) error }) (models.Citizen, error) {
	var (
		c                                         models.Citizen
		nomeMae, nis, rg, titulo, ctps, createdBy sql.NullString
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.NomeCompleto, &c.CPF, &c.DataNascimento, &c.Sexo,
		&nomeMae, &nis, &rg, &titulo, &ctps, &createdBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Citizen{}, err
	}
	c.DataNascimento = c.DataNascimento.UTC()
	c.NomeMae = stringPtr(nomeMae)
	c.NIS = stringPtr(nis)
	c.RG = stringPtr(rg)
	c.TituloEleitor = stringPtr(titulo)
	c.CarteiraTrabalho = stringPtr(ctps)
	c.CreatedBy = stringPtr(createdBy)
	return c, nil
}

// SearchCitizens matches term against the accent-insensitive name, CPF and
// NIS. An empty term lists every citizen. Results are ordered by name.
func (s *Store) SearchCitizens(ctx context.Context, term string, page, limit int) ([]models.CitizenSummary, int, error) {
	var (
		out   = []models.CitizenSummary{}
		total int
	)
	err := s.InTenant(ctx, "findMany", "individuo", func(q Querier, sc tenancy.Scope) error {
		where := "tenant_id = $1"
		args := []any{sc.TenantID}

		if key := SearchKey(term); key != "" {
			args = append(args, likePattern(key))
			cond := fmt.Sprintf(`nome_busca LIKE $%d ESCAPE '\'`, len(args))
			if d := models.Digits(term); len(d) >= 3 {
				args = append(args, "%"+d+"%")
				cond += fmt.Sprintf(" OR cpf LIKE $%d OR nis LIKE $%d", len(args), len(args))
			}
			where += " AND (" + cond + ")"
		}

		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM individuo WHERE "+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count citizens: %w", err)
		}

		args = append(args, limit, (page-1)*limit)
		rows, err := q.QueryContext(ctx, fmt.Sprintf(`
			SELECT id, nome_completo, cpf, data_nascimento, nis
			FROM individuo
			WHERE %s
			ORDER BY nome_busca, id
			LIMIT $%d OFFSET $%d
		`, where, len(args)-1, len(args)), args...)
		if err != nil {
			return fmt.Errorf("search citizens: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				c   models.CitizenSummary
				nis sql.NullString
			)
			if err := rows.Scan(&c.ID, &c.NomeCompleto, &c.CPF, &c.DataNascimento, &nis); err != nil {
				return fmt.Errorf("scan citizen: %w", err)
			}
			c.DataNascimento = c.DataNascimento.UTC()
			c.NIS = stringPtr(nis)
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) GetCitizen(ctx context.Context, id string) (models.Citizen, error) {
	var c models.Citizen
	err := s.InTenant(ctx, "findUnique", "individuo", func(q Querier, sc tenancy.Scope) error {
		var err error
		c, err = getCitizen(ctx, q, sc, id)
		return err
	})
	return c, err
}

func getCitizen(ctx context.Context, q Querier, sc tenancy.Scope, id string) (models.Citizen, error) {
	c, err := scanCitizen(q.QueryRowContext(ctx,
		"SELECT "+citizenColumns+" FROM individuo WHERE id = $1 AND tenant_id = $2", id, sc.TenantID))
	if err != nil {
		return models.Citizen{}, notFound(err, "citizen "+id)
	}
	return c, nil
}

// CreateCitizen inserts a citizen and, when fam is set, a família with the
// citizen as RESPONSAVEL. A CPF already registered in the tenant yields
// ErrConflict.
func (s *Store) CreateCitizen(ctx context.Context, rec models.CitizenRecord, fam *models.FamilyRecord) (models.Citizen, error) {
	var c models.Citizen
	err := s.InTenant(ctx, "create", "individuo", func(q Querier, sc tenancy.Scope) error {
		var err error
		c, err = insertCitizen(ctx, q, sc, NewCitizen{Citizen: rec, Family: fam})
		return err
	})
	return c, err
}

// CreateCitizens inserts every row in one transaction. Any failure leaves the
// tenant untouched.
func (s *Store) CreateCitizens(ctx context.Context, batch []NewCitizen) (int, error) {
	err := s.InTenant(ctx, "createMany", "individuo", func(q Querier, sc tenancy.Scope) error {
		for i, nc := range batch {
			if _, err := insertCitizen(ctx, q, sc, nc); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}

func insertCitizen(ctx context.Context, q Querier, sc tenancy.Scope, nc NewCitizen) (models.Citizen, error) {
	rec := nc.Citizen
	ts := now()
	c := models.Citizen{
		ID:               newID(),
		TenantID:         sc.TenantID,
		NomeCompleto:     rec.NomeCompleto,
		CPF:              rec.CPF,
		DataNascimento:   rec.DataNascimento,
		Sexo:             rec.Sexo,
		NomeMae:          rec.NomeMae,
		NIS:              rec.NIS,
		RG:               rec.RG,
		TituloEleitor:    rec.TituloEleitor,
		CarteiraTrabalho: rec.CarteiraTrabalho,
		CreatedBy:        sc.CreatedBy("individuo", nil),
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO individuo (id, tenant_id, nome_completo, nome_busca, cpf, data_nascimento, sexo,
			nome_mae, nis, rg, titulo_eleitor, carteira_trabalho, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, c.ID, c.TenantID, c.NomeCompleto, SearchKey(c.NomeCompleto), c.CPF, c.DataNascimento, c.Sexo,
		nullString(c.NomeMae), nullString(c.NIS), nullString(c.RG), nullString(c.TituloEleitor),
		nullString(c.CarteiraTrabalho), nullString(c.CreatedBy), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return models.Citizen{}, wrapConflict(err, "insert citizen "+c.CPF)
	}

	if nc.Family != nil {
		famID := newID()
		_, err := q.ExecContext(ctx, `
			INSERT INTO familia (id, tenant_id, responsavel_familiar_id, endereco, renda_familiar_total, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, famID, sc.TenantID, c.ID, nc.Family.Endereco, nullFloat(nc.Family.RendaFamiliarTotal),
			nullString(sc.CreatedBy("familia", nil)), ts)
		if err != nil {
			return models.Citizen{}, fmt.Errorf("insert familia: %w", err)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO composicao_familiar (tenant_id, familia_id, individuo_id, parentesco)
			VALUES ($1, $2, $3, $4)
		`, sc.TenantID, famID, c.ID, models.ParentescoResponsavel)
		if err != nil {
			return models.Citizen{}, fmt.Errorf("insert composicao: %w", err)
		}
	}

	return c, nil
}

// UpdateCitizen replaces the personal and CadÚnico fields of a citizen.
func (s *Store) UpdateCitizen(ctx context.Context, id string, rec models.CitizenRecord) (models.Citizen, error) {
	var c models.Citizen
	err := s.InTenant(ctx, "update", "individuo", func(q Querier, sc tenancy.Scope) error {
		res, err := q.ExecContext(ctx, `
			UPDATE individuo SET nome_completo = $1, nome_busca = $2, cpf = $3, data_nascimento = $4,
				sexo = $5, nome_mae = $6, nis = $7, rg = $8, titulo_eleitor = $9, carteira_trabalho = $10,
				updated_at = $11
			WHERE id = $12 AND tenant_id = $13
		`, rec.NomeCompleto, SearchKey(rec.NomeCompleto), rec.CPF, rec.DataNascimento, rec.Sexo,
			nullString(rec.NomeMae), nullString(rec.NIS), nullString(rec.RG), nullString(rec.TituloEleitor),
			nullString(rec.CarteiraTrabalho), now(), id, sc.TenantID)
		if err != nil {
			return wrapConflict(err, "update citizen")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("citizen %s: %w", id, ErrNotFound)
		}

		c, err = getCitizen(ctx, q, sc, id)
		return err
	})
	return c, err
}

// ExistingCPFs returns which of cpfs are already registered in the tenant.
func (s *Store) ExistingCPFs(ctx context.Context, cpfs []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(cpfs) == 0 {
		return found, nil
	}
	err := s.InTenant(ctx, "findMany", "individuo", func(q Querier, sc tenancy.Scope) error {
		const chunk = 500
		for start := 0; start < len(cpfs); start += chunk {
			part := cpfs[start:min(start+chunk, len(cpfs))]
			args := []any{sc.TenantID}
			marks := make([]string, len(part))
			for i, cpf := range part {
				args = append(args, cpf)
				marks[i] = fmt.Sprintf("$%d", i+2)
			}

			rows, err := q.QueryContext(ctx,
				"SELECT cpf FROM individuo WHERE tenant_id = $1 AND cpf IN ("+strings.Join(marks, ", ")+")",
				args...)
			if err != nil {
				return fmt.Errorf("lookup cpfs: %w", err)
			}
			for rows.Next() {
				var cpf string
				if err := rows.Scan(&cpf); err != nil {
					rows.Close()
					return fmt.Errorf("scan cpf: %w", err)
				}
				found[cpf] = true
			}
			err = rows.Err()
			rows.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// CitizenProfile loads a citizen with its família, atendimentos (newest
// first) and anexos, all within one transaction.
func (s *Store) CitizenProfile(ctx context.Context, id string) (models.CitizenProfile, error) {
	var p models.CitizenProfile
	err := s.InTenant(ctx, "findUnique", "individuo", func(q Querier, sc tenancy.Scope) error {
		var err error
		if p.Citizen, err = getCitizen(ctx, q, sc, id); err != nil {
			return err
		}
		if p.Family, err = familyOf(ctx, q, sc, id); err != nil {
			return err
		}
		if p.Atendimentos, err = listAtendimentos(ctx, q, sc, id); err != nil {
			return err
		}

		famID := ""
		if p.Family != nil {
			famID = p.Family.ID
		}
		p.Attachments, err = listAttachments(ctx, q, sc, id, famID)
		return err
	})
	if err != nil {
		return models.CitizenProfile{}, err
	}
	return p, nil
}

func familyOf(ctx context.Context, q Querier, sc tenancy.Scope, citizenID string) (*models.Family, error) {
	var (
		f         models.Family
		renda     sql.NullFloat64
		createdBy sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT f.id, f.tenant_id, f.responsavel_familiar_id, f.endereco, f.renda_familiar_total, f.created_by, f.created_at
		FROM familia f
		JOIN composicao_familiar cf ON cf.familia_id = f.id AND cf.tenant_id = f.tenant_id
		WHERE cf.individuo_id = $1 AND f.tenant_id = $2
		ORDER BY f.created_at
		LIMIT 1
	`, citizenID, sc.TenantID).Scan(&f.ID, &f.TenantID, &f.ResponsavelFamiliarID, &f.Endereco, &renda, &createdBy, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load familia: %w", err)
	}
	f.RendaFamiliarTotal = floatPtr(renda)
	f.CreatedBy = stringPtr(createdBy)

	rows, err := q.QueryContext(ctx, `
		SELECT i.id, i.nome_completo, cf.parentesco
		FROM composicao_familiar cf
		JOIN individuo i ON i.id = cf.individuo_id AND i.tenant_id = cf.tenant_id
		WHERE cf.familia_id = $1 AND cf.tenant_id = $2
		ORDER BY CASE WHEN cf.parentesco = 'RESPONSAVEL' THEN 0 ELSE 1 END, i.nome_busca
	`, f.ID, sc.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load composicao: %w", err)
	}
	defer rows.Close()

	f.Members = []models.FamilyMember{}
	for rows.Next() {
		var m models.FamilyMember
		if err := rows.Scan(&m.CitizenID, &m.NomeCompleto, &m.Parentesco); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		f.Members = append(f.Members, m)
	}
	return &f, rows.Err()
}

// OwnerExists reports whether an attachment owner (família or indivíduo)
// exists in the tenant.
func (s *Store) OwnerExists(ctx context.Context, familyID, citizenID string) (bool, error) {
	table, id := "individuo", citizenID
	if familyID != "" {
		table, id = "familia", familyID
	}
	var n int
	err := s.InTenant(ctx, "count", table, func(q Querier, sc tenancy.Scope) error {
		return q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+table+" WHERE id = $1 AND tenant_id = $2", id, sc.TenantID).Scan(&n)
	})
	if err != nil {
		return false, fmt.Errorf("owner exists: %w", err)
	}
	return n > 0, nil
}
