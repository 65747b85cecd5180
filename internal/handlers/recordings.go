package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nyrahul/shellsight/internal/catalog"
	"github.com/nyrahul/shellsight/internal/logutil"
	"github.com/nyrahul/shellsight/internal/middleware"
	"github.com/nyrahul/shellsight/internal/recording"
)

type recordingDetail struct {
	Folder          string     `json:"folder"`
	Workload        string     `json:"workload,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	Entries         int        `json:"entries"`
	DurationSeconds float64    `json:"duration_seconds"`
	Bytes           int        `json:"bytes"`
}

func ListRecordings(w http.ResponseWriter, r *http.Request) {
	folders, err := Catalog.ListRecordings(r.Context(), middleware.Namespace(r))
	if err != nil {
		log.Printf("[recordings] list failed: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to list recordings")
		return
	}
	if folders == nil {
		folders = []recording.FolderInfo{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func GetRecording(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	rec, err := Catalog.Load(r.Context(), middleware.Namespace(r), folder)
	if err != nil {
		writeLoadError(w, folder, err)
		return
	}

	info := recording.ParseFolderName(rec.Folder)
	writeJSON(w, http.StatusOK, recordingDetail{
		Folder:          rec.Folder,
		Workload:        info.Workload,
		StartedAt:       info.StartedAt,
		Entries:         len(rec.Timing),
		DurationSeconds: rec.Duration(),
		Bytes:           rec.Output.Playable(),
	})
}

func writeLoadError(w http.ResponseWriter, folder string, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidFolder):
		writeError(w, http.StatusBadRequest, "Invalid recording folder")
	case errors.Is(err, catalog.ErrRecordingNotFound):
		writeError(w, http.StatusNotFound, "Recording not found")
	default:
		log.Printf("[recordings] load %s failed: %v", logutil.SanitizeForLog(folder), err)
		writeError(w, http.StatusBadGateway, "Failed to load recording")
	}
}
