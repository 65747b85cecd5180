package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/nyrahul/shellsight/internal/catalog"
	"github.com/nyrahul/shellsight/internal/config"
	"github.com/nyrahul/shellsight/internal/middleware"
	"github.com/nyrahul/shellsight/internal/storage"
	"github.com/stretchr/testify/require"
)

const (
	testFolder     = "web_1700000000"
	testTiming     = "0.001 5\n0.001 6\n"
	testTypescript = "Script started on 2024-01-01\nhello world"
)

// setupTestEnv wires the package collaborators to an in-memory store holding
// one recording and returns a router with the API routes mounted.
func setupTestEnv(t *testing.T) (*storage.MemoryStore, http.Handler) {
	t.Helper()

	origCfg := config.Cfg
	config.Cfg = config.Settings{
		AuthDisabled:   true,
		IdentityHeader: "X-Forwarded-User",
		DefaultSpeed:   1,
		MaxSpeed:       64,
	}

	store := storage.NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, store.PutObject(ctx, testFolder+"/timing", []byte(testTiming)))
	require.NoError(t, store.PutObject(ctx, testFolder+"/typescript", []byte(testTypescript)))
	require.NoError(t, store.PutObject(ctx, "partial_1600000000/timing", []byte("0.1 1\n")))

	Store = store
	Catalog = catalog.New(store, "", 4)
	t.Cleanup(func() {
		config.Cfg = origCfg
		Store = nil
		Catalog = nil
		Auditor = nil
		AuditSyncer = nil
		ReplayClock = nil
	})

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity(nil))
		r.Get("/api/v1/recordings", ListRecordings)
		r.Get("/api/v1/recordings/{folder}", GetRecording)
		r.Get("/api/v1/recordings/{folder}/replay", ReplayWS)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/api/v1/audit/logins", GetLoginAudit)
			r.Delete("/api/v1/audit/logins", PurgeLoginAudit)
			r.Post("/api/v1/audit/sync", SyncLoginAudit)
			r.Get("/api/v1/server-logs", GetServerLogs)
			r.Delete("/api/v1/server-logs", ClearServerLogs)
		})
	})
	return store, r
}

func doRequest(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}
