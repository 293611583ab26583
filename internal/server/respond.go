package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// respondJSON writes payload as a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("msg=encode_response err=%v", err)
	}
}

// respondError writes the {"error": ...} payload used by every failure
// branch of the API.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
