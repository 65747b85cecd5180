package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/nyrahul/shellsight/internal/audit"
)

// GetLoginAudit returns paginated login events.
// Admin-only endpoint.
//
// Query parameters:
//
//	username - filter by username
//	since    - RFC3339 timestamp, only entries after this time
//	until    - RFC3339 timestamp, only entries before this time
//	limit    - max entries to return (default 50, max 1000)
//	offset   - pagination offset
func GetLoginAudit(w http.ResponseWriter, r *http.Request) {
	if Auditor == nil {
		writeError(w, http.StatusServiceUnavailable, "Audit system not initialized")
		return
	}

	opts := audit.QueryOptions{Username: r.URL.Query().Get("username")}

	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid since timestamp (use RFC3339)")
			return
		}
		opts.Since = &t
	}
	if v := r.URL.Query().Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid until timestamp (use RFC3339)")
			return
		}
		opts.Until = &t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		opts.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		opts.Offset = n
	}

	result, err := Auditor.Query(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query login audit")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PurgeLoginAudit deletes login events past retention.
// Admin-only endpoint.
//
// Query parameters:
//
//	days - number of days to retain (uses configured default if omitted)
func PurgeLoginAudit(w http.ResponseWriter, r *http.Request) {
	if Auditor == nil {
		writeError(w, http.StatusServiceUnavailable, "Audit system not initialized")
		return
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = n
	}

	deleted, err := Auditor.PurgeOlderThan(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to purge login audit")
		return
	}
	if days == 0 {
		days = Auditor.RetentionDays()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":        deleted,
		"retention_days": days,
	})
}

// SyncLoginAudit uploads a snapshot of the login database to the object
// store immediately.
func SyncLoginAudit(w http.ResponseWriter, r *http.Request) {
	if AuditSyncer == nil {
		writeError(w, http.StatusServiceUnavailable, "Audit sync not configured")
		return
	}
	if err := AuditSyncer.Sync(r.Context()); err != nil {
		log.Printf("[audit] manual sync failed: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to sync login audit")
		return
	}
	synced, _ := AuditSyncer.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":       AuditSyncer.Key(),
		"synced_at": synced,
	})
}
