// Package httpapi holds the JSON response helpers shared by the catalog,
// billing, and creators services. The playback service keeps its own flat
// error shape for player compatibility and does not use this package.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// BearerToken extracts the credential from a request's Authorization header.
// The "Bearer " prefix is required and case-sensitive.
func BearerToken(r *http.Request) (string, bool) {
	v := r.Header.Get("Authorization")
	tok, found := strings.CutPrefix(v, "Bearer ")
	if !found || tok == "" {
		return "", false
	}
	return tok, true
}

// WriteError writes the standard error envelope:
//
//	{"error":{"code":"...","message":"..."}}
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%q,"message":%q}}`, code, message)
}
