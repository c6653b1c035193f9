package handler

import (
	"net/http"

	"cspnonce/internal/core"
)

// Health — healthcheck (OWASP A09).
func Health(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
