// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aurorasocial/server/cache"
	"github.com/aurorasocial/server/export"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
	"github.com/aurorasocial/server/tenancy"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	store     *store.Store
	dashboard *cache.TTL[models.DashboardMetrics]
	now       func() time.Time
}

func NewReportHandler(s *store.Store, dashboard *cache.TTL[models.DashboardMetrics]) *ReportHandler {
	return &ReportHandler{store: s, dashboard: dashboard, now: func() time.Time { return time.Now().UTC() }}
}

func dashboardKey(tenantID string) string {
	return "dashboard:" + tenantID
}

// Dashboard handles GET /reports/dashboard[?refresh=1]
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sc, _ := tenancy.FromContext(r.Context())
	key := dashboardKey(sc.TenantID)

	if r.URL.Query().Get("refresh") == "1" {
		h.dashboard.Delete(key)
	} else if m, ok := h.dashboard.Get(key); ok {
		middleware.JSONResponse(w, http.StatusOK, m)
		return
	}

	m, err := h.store.Dashboard(r.Context(), h.now())
	if err != nil {
		writeError(w, err, "dashboard")
		return
	}
	h.dashboard.Set(key, m)

	slog.Debug("dashboard computed", "tenant_id", sc.TenantID)
	middleware.JSONResponse(w, http.StatusOK, m)
}

// period validates ?mes=&ano=. It writes the error response itself.
func (h *ReportHandler) period(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	fields := map[string]string{}
	mes, err := strconv.Atoi(r.URL.Query().Get("mes"))
	if err != nil || mes < 1 || mes > 12 {
		fields["mes"] = "Mês deve estar entre 1 e 12"
	}
	ano, err := strconv.Atoi(r.URL.Query().Get("ano"))
	if err != nil || ano < 2000 || ano > 2100 {
		fields["ano"] = "Ano deve estar entre 2000 e 2100"
	}
	if len(fields) == 0 {
		now := h.now()
		if ano*12+mes > now.Year()*12+int(now.Month()) {
			fields["mes"] = "Não é possível gerar relatório para meses futuros"
		}
	}
	if len(fields) > 0 {
		middleware.ValidationResponse(w, &models.ValidationError{Fields: fields})
		return 0, 0, false
	}
	return mes, ano, true
}

func (h *ReportHandler) report(w http.ResponseWriter, r *http.Request) (models.RMAReport, bool) {
	mes, ano, ok := h.period(w, r)
	if !ok {
		return models.RMAReport{}, false
	}
	rep, err := h.store.RMA(r.Context(), mes, ano)
	if err != nil {
		writeError(w, err, "rma")
		return models.RMAReport{}, false
	}
	return rep, true
}

// RMA handles GET /reports/rma?mes=&ano=
func (h *ReportHandler) RMA(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.report(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, rep)
}

// RMAPDF handles GET /reports/rma/pdf?mes=&ano=
func (h *ReportHandler) RMAPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.report(w, r)
	if !ok {
		return
	}
	data, err := export.RMAPDF(rep, h.now())
	if err != nil {
		writeError(w, err, "rma pdf")
		return
	}
	writeDownload(w, "application/pdf", export.Filename(rep.Mes, rep.Ano, "pdf"), data)
}

// RMAExcel handles GET /reports/rma/xlsx?mes=&ano=
func (h *ReportHandler) RMAExcel(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.report(w, r)
	if !ok {
		return
	}
	data, err := export.RMAExcel(rep, h.now())
	if err != nil {
		writeError(w, err, "rma xlsx")
		return
	}
	writeDownload(w, xlsxContentType, export.Filename(rep.Mes, rep.Ano, "xlsx"), data)
}
