package transporthttp

import (
	"encoding/json"
	"net/http"
)

// RegistrationData is the data block of a registration response.
type RegistrationData struct {
	RegistrationID string `json:"registrationId"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
}

// Envelope is the JSON body of every registration and diagnostic response.
// Details carries raw error text and is only filled outside production.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Error   string              `json:"error,omitempty"`
	ID      string              `json:"id,omitempty"`
	Data    *RegistrationData   `json:"data,omitempty"`
	Details string              `json:"details,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Config  any                 `json:"config,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteFailure(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, Envelope{Message: message, Error: code})
}
