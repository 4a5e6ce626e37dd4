package handlers

import "net/http"

// Healthz is a plain liveness probe.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Msg: "ok"})
}
