package handler

import (
	"net/http"
)

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Health  *HealthHandler
	Catalog *CatalogHandler
	Auth    *AuthHandler
	Admin   *AdminHandler
}

// Guards wrap routes that need an identity
type Guards struct {
	RequireAuth  func(http.HandlerFunc) http.HandlerFunc
	RequireAdmin func(http.HandlerFunc) http.HandlerFunc
}

// RegisterRoutes mounts the API on mux (Go 1.22+ patterns)
func RegisterRoutes(mux *http.ServeMux, h Handlers, g Guards) {
	// Health check
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Public catalog
	mux.HandleFunc("GET /api/catalog", h.Catalog.ListCourses)
	mux.HandleFunc("GET /api/catalog/view", h.Catalog.GetView)
	mux.HandleFunc("POST /api/catalog/view/toggle", h.Catalog.ToggleExpand)
	mux.HandleFunc("PUT /api/catalog/view/query", h.Catalog.SetQuery)
	mux.HandleFunc("POST /api/catalog/refresh", h.Catalog.Refresh)
	mux.HandleFunc("GET /api/catalog/courses/{id}", h.Catalog.GetCourse)
	mux.HandleFunc("POST /api/catalog/courses/{id}/toggle", h.Catalog.ToggleCourseBatch)

	// Identity
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/signup", h.Auth.SignUp)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", g.RequireAuth(h.Auth.Logout))
	mux.HandleFunc("GET /api/auth/me", g.RequireAuth(h.Auth.Me))

	// Admin manager
	mux.HandleFunc("GET /api/admin/state", g.RequireAdmin(h.Admin.GetState))
	mux.HandleFunc("POST /api/admin/select", g.RequireAdmin(h.Admin.Select))
	mux.HandleFunc("POST /api/admin/refetch", g.RequireAdmin(h.Admin.Refetch))
	mux.HandleFunc("POST /api/admin/{kind}", g.RequireAdmin(h.Admin.Create))
	mux.HandleFunc("PATCH /api/admin/{kind}/{id}", g.RequireAdmin(h.Admin.Update))
	mux.HandleFunc("DELETE /api/admin/{kind}/{id}", g.RequireAdmin(h.Admin.Delete))
}
