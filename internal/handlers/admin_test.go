package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/nyrahul/shellsight/internal/audit"
	"github.com/nyrahul/shellsight/internal/database"
	"github.com/nyrahul/shellsight/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func setupAudit(t *testing.T) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "audit.db"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	Auditor = audit.NewAuditor(db, 30)
	AuditSyncer = audit.NewSyncer(Auditor, Store, "")
}

func TestHealthCheck(t *testing.T) {
	_, h := setupTestEnv(t)

	w := doRequest(t, h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "connected", body["store"])

	setupAudit(t)
	w = doRequest(t, h, http.MethodGet, "/health")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestLoginAudit(t *testing.T) {
	_, h := setupTestEnv(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/audit/logins")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	setupAudit(t)
	require.NoError(t, Auditor.LogLogin(audit.LoginEntry{Username: "alice", SessionID: "s1"}))
	require.NoError(t, Auditor.LogLogin(audit.LoginEntry{Username: "bob", SessionID: "s2"}))

	w = doRequest(t, h, http.MethodGet, "/api/v1/audit/logins?username=alice")
	require.Equal(t, http.StatusOK, w.Code)
	var res audit.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "alice", res.Entries[0].Username)

	for _, q := range []string{"since=yesterday", "until=1", "limit=0", "offset=-1"} {
		w = doRequest(t, h, http.MethodGet, "/api/v1/audit/logins?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w = doRequest(t, h, http.MethodDelete, "/api/v1/audit/logins?days=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(t, h, http.MethodDelete, "/api/v1/audit/logins")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":0,"retention_days":30}`, w.Body.String())
}

func TestSyncLoginAudit(t *testing.T) {
	store, h := setupTestEnv(t)

	w := doRequest(t, h, http.MethodPost, "/api/v1/audit/sync")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	setupAudit(t)
	before := store.Len()
	w = doRequest(t, h, http.MethodPost, "/api/v1/audit/sync")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"_audit/logins.db"`)
	assert.Equal(t, before+1, store.Len())

	// The snapshot folder never shows up as a recording.
	w = doRequest(t, h, http.MethodGet, "/api/v1/recordings")
	assert.NotContains(t, w.Body.String(), "_audit")
}

func TestServerLogs(t *testing.T) {
	_, h := setupTestEnv(t)
	logging.Init(filepath.Join(t.TempDir(), "server.log"))
	t.Cleanup(func() { logging.Close() })

	w := doRequest(t, h, http.MethodGet, "/api/v1/server-logs?lines=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logging to file")

	w = doRequest(t, h, http.MethodDelete, "/api/v1/server-logs")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/v1/server-logs")
	assert.JSONEq(t, `{"logs":""}`, w.Body.String())
}
