package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/nyrahul/shellsight/internal/catalog"
	"github.com/nyrahul/shellsight/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRecordings(t *testing.T) {
	_, h := setupTestEnv(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/recordings")
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, testFolder, got[0]["folder"])
	assert.Equal(t, "web", got[0]["workload"])
	assert.Equal(t, "2023-11-14T22:13:20Z", got[0]["started_at"])
}

func TestListRecordings_Empty(t *testing.T) {
	_, h := setupTestEnv(t)
	Catalog = catalog.New(storage.NewMemoryStore(0), "", 4)

	w := doRequest(t, h, http.MethodGet, "/api/v1/recordings")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListRecordings_StoreFailure(t *testing.T) {
	store, h := setupTestEnv(t)
	store.Fail = func(op, key string) error { return errors.New("connection reset") }

	w := doRequest(t, h, http.MethodGet, "/api/v1/recordings")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to list recordings")
}

func TestGetRecording(t *testing.T) {
	_, h := setupTestEnv(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/recordings/"+testFolder)
	require.Equal(t, http.StatusOK, w.Code)

	var got recordingDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, testFolder, got.Folder)
	assert.Equal(t, 2, got.Entries)
	assert.InDelta(t, 0.002, got.DurationSeconds, 1e-9)
	assert.Equal(t, len("hello world"), got.Bytes)
}

func TestGetRecording_NotFound(t *testing.T) {
	_, h := setupTestEnv(t)

	for _, folder := range []string{"missing", "partial_1600000000"} {
		w := doRequest(t, h, http.MethodGet, "/api/v1/recordings/"+folder)
		assert.Equal(t, http.StatusNotFound, w.Code, folder)
		assert.Contains(t, w.Body.String(), "Recording not found")
	}
}

func TestGetRecording_InvalidFolder(t *testing.T) {
	_, h := setupTestEnv(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/recordings/..")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
