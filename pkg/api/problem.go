package api

import (
	"encoding/json"
	"net/http"

	"github.com/marmos91/propstream/pkg/storeerr"
)

// Problem is an RFC 7807 "problem details" response.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// WriteStoreError maps a domain error into the appropriate RFC 7807
// response. Errors that are not a *storeerr.StoreError are treated as
// internal errors.
func WriteStoreError(w http.ResponseWriter, err error) {
	se, ok := err.(*storeerr.StoreError)
	if !ok {
		WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	switch se.Code {
	case storeerr.ErrInvalidProperty, storeerr.ErrPropertyTooLarge, storeerr.ErrUnterminatedProperty:
		WriteProblem(w, http.StatusBadRequest, "Bad Request", se.Message)
	case storeerr.ErrVersionConflict:
		WriteProblem(w, http.StatusConflict, "Conflict", se.Message)
	case storeerr.ErrBusy:
		WriteProblem(w, http.StatusConflict, "Conflict", se.Message)
	case storeerr.ErrNotFound:
		WriteProblem(w, http.StatusNotFound, "Not Found", se.Message)
	default:
		WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", se.Message)
	}
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
