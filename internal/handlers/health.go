package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nyrahul/shellsight/internal/database"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disconnected"
	if database.Ping(database.DB) == nil {
		dbStatus = "connected"
	}

	storeStatus := "disconnected"
	if Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if Store.Ping(ctx) == nil {
			storeStatus = "connected"
		}
	}

	status := "healthy"
	if dbStatus != "connected" || storeStatus != "connected" {
		status = "unhealthy"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"database": dbStatus,
		"store":    storeStatus,
	})
}
