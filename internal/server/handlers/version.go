package handlers

import "net/http"

// VersionResponse is the /version payload.
type VersionResponse struct {
	Version string `json:"version"`
}

// VersionHandler serves GET /version.
func VersionHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{Version: version})
	}
}
