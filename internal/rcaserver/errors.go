package rcaserver

import (
	"fmt"
	"net/http"
)

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = WriteJSON(w, map[string]string{
		"error":   "METHOD_NOT_ALLOWED",
		"message": fmt.Sprintf("method %s not allowed for %s", r.Method, r.URL.Path),
	})
}

func (s *Server) handleBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = WriteJSON(w, map[string]string{"error": "BAD_REQUEST", "message": message})
}
