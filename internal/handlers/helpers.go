package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nyrahul/shellsight/internal/audit"
	"github.com/nyrahul/shellsight/internal/catalog"
	"github.com/nyrahul/shellsight/internal/replay"
	"github.com/nyrahul/shellsight/internal/storage"
)

// Collaborators, set from main.go during startup.
var (
	Catalog     *catalog.Catalog
	Store       storage.Store
	Auditor     *audit.Auditor
	AuditSyncer *audit.Syncer

	// ReplayClock schedules replay batches. nil means the real clock.
	ReplayClock replay.Clock
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
