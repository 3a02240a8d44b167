// helpers.go — response helpers for the playback service.
//
// The playback endpoints keep the wire shape their players already depend on:
// a bare top-level {"error": "..."} string, plus "video_path" on storage
// not-found so a client can report which key it asked about.
package playback

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAccessError writes the user-visible form of a flow failure.
func writeAccessError(w http.ResponseWriter, e *accessError) {
	body := map[string]string{"error": e.message}
	if e.path != "" && e.status == http.StatusNotFound {
		body["video_path"] = e.path
	}
	writeJSON(w, e.status, body)
}
