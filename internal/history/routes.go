package history

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/awylder/switchsync/internal/server"
	"go.uber.org/zap"
)

// Routes implements server.RouteProvider.
func (m *Module) Routes() []server.Route {
	return []server.Route{
		{Method: "GET", Path: "/events", Handler: m.handleListEvents},
		{Method: "DELETE", Path: "/events", Handler: m.handlePurge},
	}
}

// handleListEvents returns recorded change events, newest first. Filters:
// host, entity_type, change_kind, since, until (RFC 3339), limit.
func (m *Module) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := EventFilters{
		Host:       q.Get("host"),
		EntityType: q.Get("entity_type"),
		ChangeKind: q.Get("change_kind"),
	}
	if s := q.Get("since"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			server.BadRequest(w, "since must be RFC 3339", r.URL.Path)
			return
		}
		filters.Since = ts
	}
	if s := q.Get("until"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			server.BadRequest(w, "until must be RFC 3339", r.URL.Path)
			return
		}
		filters.Until = ts
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			server.BadRequest(w, "limit must be a positive integer", r.URL.Path)
			return
		}
		filters.Limit = n
	}

	events, err := m.store.List(r.Context(), filters)
	if err != nil {
		m.logger.Warn("list history events failed", zap.Error(err))
		server.InternalError(w, "failed to list events", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

// handlePurge deletes events older than the required `before` timestamp.
func (m *Module) handlePurge(w http.ResponseWriter, r *http.Request) {
	before := r.URL.Query().Get("before")
	if before == "" {
		server.BadRequest(w, "before is required", r.URL.Path)
		return
	}
	cutoff, err := time.Parse(time.RFC3339, before)
	if err != nil {
		server.BadRequest(w, "before must be RFC 3339", r.URL.Path)
		return
	}

	n, err := m.store.Purge(r.Context(), cutoff)
	if err != nil {
		m.logger.Warn("purge history events failed", zap.Error(err))
		server.InternalError(w, "failed to purge events", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{"purged": n})
}
