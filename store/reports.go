// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/tenancy"
	"golang.org/x/sync/errgroup"
)

// Dashboard computes the tenant KPIs. Each figure runs in its own tenant
// transaction so they can proceed in parallel on Postgres.
func (s *Store) Dashboard(ctx context.Context, at time.Time) (models.DashboardMetrics, error) {
	m := models.DashboardMetrics{UltimaAtualizacao: at.UTC().Truncate(time.Second)}

	g, gctx := errgroup.WithContext(ctx)
	count := func(model string, dst *int) {
		g.Go(func() error {
			return s.InTenant(gctx, "count", model, func(q Querier, sc tenancy.Scope) error {
				return q.QueryRowContext(gctx,
					"SELECT COUNT(*) FROM "+model+" WHERE tenant_id = $1", sc.TenantID).Scan(dst)
			})
		})
	}
	count("atendimento", &m.TotalAtendimentos)
	count("familia", &m.TotalFamilias)
	count("individuo", &m.TotalIndividuos)

	g.Go(func() error {
		// First day of the month eleven months back: twelve buckets including this one.
		y, mo, _ := at.UTC().Date()
		since := time.Date(y, mo-11, 1, 0, 0, 0, 0, time.UTC)
		month := s.dialect.MonthKey("data")

		return s.InTenant(gctx, "groupBy", "atendimento", func(q Querier, sc tenancy.Scope) error {
			rows, err := q.QueryContext(gctx, fmt.Sprintf(`
				SELECT %s AS mes, COUNT(*)
				FROM atendimento
				WHERE tenant_id = $1 AND data >= $2
				GROUP BY %s
				ORDER BY mes DESC
			`, month, month), sc.TenantID, since)
			if err != nil {
				return fmt.Errorf("atendimentos por mes: %w", err)
			}
			defer rows.Close()

			m.AtendimentosPorMes = []models.MonthCount{}
			for rows.Next() {
				var mc models.MonthCount
				if err := rows.Scan(&mc.Mes, &mc.Count); err != nil {
					return fmt.Errorf("scan mes: %w", err)
				}
				m.AtendimentosPorMes = append(m.AtendimentosPorMes, mc)
			}
			return rows.Err()
		})
	})

	g.Go(func() error {
		return s.InTenant(gctx, "groupBy", "atendimento", func(q Querier, sc tenancy.Scope) error {
			var err error
			m.AtendimentosPorTipoDemanda, err = countByDemand(gctx, q, "a.tenant_id = $1", sc.TenantID)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		return models.DashboardMetrics{}, err
	}
	return m, nil
}

// RMA builds the Relatório Mensal de Atendimentos for mes/ano (UTC).
// Famílias atendidas counts distinct famílias having at least one member
// served in the month.
func (s *Store) RMA(ctx context.Context, mes, ano int) (models.RMAReport, error) {
	r := models.RMAReport{Mes: mes, Ano: ano}
	start := time.Date(ano, time.Month(mes), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	const inMonth = "a.tenant_id = $1 AND a.data >= $2 AND a.data < $3"

	err := s.InTenant(ctx, "aggregate", "atendimento", func(q Querier, sc tenancy.Scope) error {
		args := []any{sc.TenantID, start, end}

		if err := q.QueryRowContext(ctx, "SELECT name FROM tenant WHERE id = $1", sc.TenantID).Scan(&r.TenantName); err != nil {
			return notFound(err, "tenant")
		}

		err := q.QueryRowContext(ctx,
			"SELECT COUNT(*), COUNT(DISTINCT a.individuo_id) FROM atendimento a WHERE "+inMonth, args...,
		).Scan(&r.TotalAtendimentos, &r.TotalIndividuosAtendidos)
		if err != nil {
			return fmt.Errorf("rma totals: %w", err)
		}

		err = q.QueryRowContext(ctx, `
			SELECT COUNT(DISTINCT cf.familia_id)
			FROM atendimento a
			JOIN composicao_familiar cf ON cf.individuo_id = a.individuo_id AND cf.tenant_id = a.tenant_id
			WHERE `+inMonth, args...,
		).Scan(&r.TotalFamiliasAtendidas)
		if err != nil {
			return fmt.Errorf("rma familias: %w", err)
		}

		if r.AtendimentosPorTipoDemanda, err = countByDemand(ctx, q, inMonth, args...); err != nil {
			return err
		}

		day := s.dialect.DayOfMonth("a.data")
		rows, err := q.QueryContext(ctx, fmt.Sprintf(`
			SELECT %s AS dia, COUNT(*)
			FROM atendimento a
			WHERE %s
			GROUP BY %s
			ORDER BY dia
		`, day, inMonth, day), args...)
		if err != nil {
			return fmt.Errorf("rma por dia: %w", err)
		}
		defer rows.Close()

		r.AtendimentosPorDia = []models.DayCount{}
		for rows.Next() {
			var dc models.DayCount
			if err := rows.Scan(&dc.Dia, &dc.Count); err != nil {
				return fmt.Errorf("scan dia: %w", err)
			}
			r.AtendimentosPorDia = append(r.AtendimentosPorDia, dc)
		}
		return rows.Err()
	})
	if err != nil {
		return models.RMAReport{}, err
	}
	return r, nil
}

func countByDemand(ctx context.Context, q Querier, where string, args ...any) ([]models.DemandCount, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.tipo_demanda, COUNT(*) AS n
		FROM atendimento a
		WHERE `+where+`
		GROUP BY a.tipo_demanda
		ORDER BY n DESC, a.tipo_demanda
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("atendimentos por demanda: %w", err)
	}
	defer rows.Close()

	out := []models.DemandCount{}
	for rows.Next() {
		var dc models.DemandCount
		if err := rows.Scan(&dc.TipoDemanda, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan demanda: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
