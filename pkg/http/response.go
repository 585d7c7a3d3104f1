package http

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response body shape: status is "success" for
// 2xx, "fail" for 4xx and "error" for 5xx.
type Envelope struct {
	Status  string      `json:"status"`
	Token   string      `json:"token,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Log-free best effort: an encode failure here has nowhere to go.
	_ = json.NewEncoder(w).Encode(env)
}

// WriteSuccess writes a success envelope with optional data.
func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, Envelope{Status: "success", Data: data})
}

// WriteSuccessMessage writes a success envelope carrying only a message.
func WriteSuccessMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Envelope{Status: "success", Message: message})
}

// WriteSuccessWithMessage writes a success envelope carrying both a
// message and data.
func WriteSuccessWithMessage(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, Envelope{Status: "success", Message: message, Data: data})
}

// WriteToken writes a success envelope carrying a bearer token alongside data.
func WriteToken(w http.ResponseWriter, statusCode int, token string, data interface{}) {
	writeJSON(w, statusCode, Envelope{Status: "success", Token: token, Data: data})
}

// WriteError writes a fail/error envelope for the given status code.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	status := "fail"
	if statusCode >= http.StatusInternalServerError {
		status = "error"
	}
	writeJSON(w, statusCode, Envelope{Status: status, Message: message})
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
