package auth

import (
	"encoding/json"
	"net/http"

	"github.com/antibyte/minilang/pkg/logger"
)

// SessionResponse is the reply of HandleCreateSession.
type SessionResponse struct {
	Success  bool   `json:"success"`
	ClientID string `json:"clientId,omitempty"`
	Token    string `json:"token,omitempty"`
	Message  string `json:"message"`
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")
}

// HandleCreateSession creates a new client id and returns it with a signed token.
func HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		logger.AuthWarn("Invalid method for session creation: %s", r.Method)
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientID := NewClientID()
	token, err := GenerateClientToken(clientID)
	if err != nil {
		logger.AuthError("Failed to generate token for %s: %v", clientID, err)
		respondWithError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	logger.AuthInfo("New scan session %s for %s", clientID, getClientIP(r))
	json.NewEncoder(w).Encode(SessionResponse{
		Success:  true,
		ClientID: clientID,
		Token:    token,
		Message:  "Session created successfully",
	})
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SessionResponse{
		Success: false,
		Message: message,
	})
}
