// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aurorasocial/server/cache"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReportHandler(f *fixture, now time.Time) *ReportHandler {
	h := NewReportHandler(f.store, cache.NewTTL[models.DashboardMetrics](time.Hour))
	h.now = func() time.Time { return now }
	return h
}

func TestDashboard_CachedPerTenant(t *testing.T) {
	f := setupFixture(t)
	h := newTestReportHandler(f, time.Now().UTC())
	c := testutil.CreateTestCitizen(t, f.store, f.tecnico, "Maria Aparecida", "55555555555", true)
	testutil.CreateTestAtendimento(t, f.store, f.tecnico, c.ID, models.DemandaBPC)

	get := func(u models.User, query string) models.DashboardMetrics {
		w := f.as(t, u, h.Dashboard, httptest.NewRequest("GET", "/reports/dashboard"+query, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var m models.DashboardMetrics
		testutil.AssertJSON(t, w, &m)
		return m
	}

	m := get(f.gestor, "")
	assert.Equal(t, 1, m.TotalAtendimentos)
	assert.Equal(t, 1, m.TotalFamilias)
	assert.Equal(t, 1, m.TotalIndividuos)
	require.Len(t, m.AtendimentosPorTipoDemanda, 1)
	assert.Equal(t, models.DemandaBPC, m.AtendimentosPorTipoDemanda[0].TipoDemanda)

	testutil.CreateTestAtendimento(t, f.store, f.tecnico, c.ID, models.DemandaOutro)
	assert.Equal(t, 1, get(f.gestor, "").TotalAtendimentos, "served from cache")
	assert.Equal(t, 2, get(f.gestor, "?refresh=1").TotalAtendimentos)

	// Another municipality never sees these numbers
	assert.Zero(t, get(f.other, "").TotalAtendimentos)
}

func TestDashboard_RefreshDropsCachedEntry(t *testing.T) {
	f := setupFixture(t)
	h := newTestReportHandler(f, time.Now().UTC())
	key := dashboardKey(f.tenant.ID)

	w := f.as(t, f.gestor, h.Dashboard, httptest.NewRequest("GET", "/reports/dashboard", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	_, ok := h.dashboard.Get(key)
	require.True(t, ok)

	// A refresh that cannot recompute must not leave the old numbers behind
	ctx, cancel := context.WithCancel(testutil.ScopedContext(f.gestor))
	cancel()
	w = httptest.NewRecorder()
	h.Dashboard(w, httptest.NewRequest("GET", "/reports/dashboard?refresh=1", nil).WithContext(ctx))
	testutil.AssertStatus(t, w, http.StatusInternalServerError)

	_, ok = h.dashboard.Get(key)
	assert.False(t, ok)
}

func TestRMA(t *testing.T) {
	f := setupFixture(t)
	h := newTestReportHandler(f, time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC))
	c := testutil.CreateTestCitizen(t, f.store, f.tecnico, "Maria Aparecida", "55555555555", true)
	testutil.InsertTestAtendimentoAt(t, f.store.DB(), f.tecnico, c.ID, models.DemandaBPC, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	testutil.InsertTestAtendimentoAt(t, f.store.DB(), f.tecnico, c.ID, models.DemandaBolsaFamilia, time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC))

	w := f.as(t, f.gestor, h.RMA, httptest.NewRequest("GET", "/reports/rma?mes=3&ano=2025", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var r models.RMAReport
	testutil.AssertJSON(t, w, &r)
	assert.Equal(t, 2, r.TotalAtendimentos)
	assert.Equal(t, 1, r.TotalIndividuosAtendidos)
	assert.Equal(t, 1, r.TotalFamiliasAtendidas)
	assert.Equal(t, []models.DayCount{{Dia: 5, Count: 2}}, r.AtendimentosPorDia)

	tests := []struct {
		name  string
		query string
	}{
		{"missing", ""},
		{"month 13", "mes=13&ano=2025"},
		{"month 0", "mes=0&ano=2025"},
		{"year too old", "mes=1&ano=1999"},
		{"future month", "mes=5&ano=2025"},
		{"not a number", "mes=marco&ano=2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.as(t, f.gestor, h.RMA, httptest.NewRequest("GET", "/reports/rma?"+tt.query, nil))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestRMADownloads(t *testing.T) {
	f := setupFixture(t)
	h := newTestReportHandler(f, time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC))
	c := testutil.CreateTestCitizen(t, f.store, f.tecnico, "Maria Aparecida", "55555555555", true)
	testutil.InsertTestAtendimentoAt(t, f.store.DB(), f.tecnico, c.ID, models.DemandaBPC, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))

	t.Run("pdf", func(t *testing.T) {
		w := f.as(t, f.gestor, h.RMAPDF, httptest.NewRequest("GET", "/reports/rma/pdf?mes=3&ano=2025", nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "RMA_Mar%C3%A7o_2025.pdf")
		assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
	})

	t.Run("xlsx", func(t *testing.T) {
		w := f.as(t, f.gestor, h.RMAExcel, httptest.NewRequest("GET", "/reports/rma/xlsx?mes=3&ano=2025", nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "RMA_Mar%C3%A7o_2025.xlsx")
		assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
	})

	t.Run("invalid period", func(t *testing.T) {
		w := f.as(t, f.gestor, h.RMAPDF, httptest.NewRequest("GET", "/reports/rma/pdf?mes=3", nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}
