package handler

import (
	"log/slog"
	"net/http"
)

// RouteLister returns every registered "METHOD /path".
type RouteLister interface {
	Routes() ([]string, error)
}

type RoutesHandler struct {
	routes RouteLister
	logger *slog.Logger
}

func NewRoutesHandler(routes RouteLister, logger *slog.Logger) *RoutesHandler {
	return &RoutesHandler{routes: routes, logger: logger}
}

// HandleRoutes lists the registered routes and also writes them to the log,
// one line per route.
//
// HTTP: GET /routes
// RESPONSE: 200 ["POST /user/add", "POST /user/verify", ...]
func (h *RoutesHandler) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.routes.Routes()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	for _, route := range routes {
		h.logger.InfoContext(r.Context(), "route registered", slog.String("route", route))
	}
	if routes == nil {
		routes = []string{}
	}
	writeJSON(w, http.StatusOK, routes)
}
