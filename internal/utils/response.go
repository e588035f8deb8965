package utils

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteJSONError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Success: false, Message: message, Code: code})
}
