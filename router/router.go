// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/aurorasocial/server/blob"
	"github.com/aurorasocial/server/cache"
	"github.com/aurorasocial/server/cliparse"
	"github.com/aurorasocial/server/handlers"
	"github.com/aurorasocial/server/mailer"
	"github.com/aurorasocial/server/middleware"
	"github.com/aurorasocial/server/models"
	"github.com/aurorasocial/server/store"
)

// Deps are the services the routes are built from.
type Deps struct {
	Store  *store.Store
	Blobs  blob.Store
	Mailer mailer.Mailer
	Config cliparse.Config
}

func NewRouter(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	cfg := d.Config

	authn := middleware.NewAuthenticator(d.Store, cfg.SessionSecret)

	// public wraps a handler with logging only
	public := middleware.WithLogging
	// member requires a session of any role
	member := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(authn.RequireSession(h))
	}
	// gestor requires a GESTOR session
	gestor := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(authn.RequireSession(middleware.RequireGestor(h)))
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(d.Store.DB())
	authHandler := handlers.NewAuthHandler(d.Store, d.Mailer, cfg)
	userHandler := handlers.NewUserHandler(d.Store, d.Mailer, cfg)
	citizenHandler := handlers.NewCitizenHandler(d.Store, cfg)
	attachmentHandler := handlers.NewAttachmentHandler(d.Store, d.Blobs, cfg)
	importHandler := handlers.NewImportHandler(d.Store)
	reportHandler := handlers.NewReportHandler(d.Store, cache.NewTTL[models.DashboardMetrics](cfg.DashboardCacheTTL))

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Login
	mux.HandleFunc("POST /auth/magic-link", public(authHandler.RequestMagicLink))
	mux.HandleFunc("GET /auth/verify", public(authHandler.Verify))
	mux.HandleFunc("GET /auth/session", member(authHandler.Session))
	mux.HandleFunc("POST /auth/logout", member(authHandler.Logout))

	// Signed downloads (local storage)
	mux.HandleFunc("GET /files/{key...}", public(attachmentHandler.Download))

	// Citizens and atendimentos
	mux.HandleFunc("GET /citizens", member(citizenHandler.SearchCitizens))
	mux.HandleFunc("POST /citizens", member(citizenHandler.CreateCitizen))
	mux.HandleFunc("GET /citizens/{id}", member(citizenHandler.GetCitizen))
	mux.HandleFunc("PUT /citizens/{id}", member(citizenHandler.UpdateCitizen))
	mux.HandleFunc("POST /citizens/{id}/atendimentos", member(citizenHandler.CreateAtendimento))

	// Attachments
	mux.HandleFunc("POST /attachments", member(attachmentHandler.Upload))
	mux.HandleFunc("DELETE /attachments/{id}", member(attachmentHandler.Delete))
	mux.HandleFunc("GET /attachments/{id}/url", member(attachmentHandler.URL))

	// User management
	mux.HandleFunc("GET /users", gestor(userHandler.ListUsers))
	mux.HandleFunc("POST /users/invite", gestor(userHandler.InviteUser))
	mux.HandleFunc("POST /users/{id}/deactivate", gestor(userHandler.DeactivateUser))
	mux.HandleFunc("POST /users/{id}/reactivate", gestor(userHandler.ReactivateUser))

	// CSV import
	mux.HandleFunc("GET /import/template", gestor(importHandler.Template))
	mux.HandleFunc("POST /import/citizens", gestor(importHandler.ImportCitizens))

	// Reports
	mux.HandleFunc("GET /reports/dashboard", gestor(reportHandler.Dashboard))
	mux.HandleFunc("GET /reports/rma", gestor(reportHandler.RMA))
	mux.HandleFunc("GET /reports/rma/pdf", gestor(reportHandler.RMAPDF))
	mux.HandleFunc("GET /reports/rma/xlsx", gestor(reportHandler.RMAExcel))

	// Root endpoint
	mux.HandleFunc("GET /{$}", healthHandler.Root)

	return mux
}
