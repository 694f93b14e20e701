package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/services"
	"budgetwise/internal/storage"
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// validationMessages maps input errors onto the messages the front end shows.
var validationMessages = []struct {
	err error
	msg string
}{
	{core.ErrMissingFields, "Missing required fields"},
	{core.ErrInvalidEmail, "Invalid email address"},
	{core.ErrInvalidAmount, "Invalid amount"},
	{core.ErrInvalidDate, "Invalid date, expected YYYY-MM-DD"},
	{core.ErrDateOutOfRange, "Transaction date must be between 1900-01-01 and 10 years from today"},
	{core.ErrEmptyDescription, "Description is required"},
	{core.ErrDescriptionTooLong, "Description too long (max 200 characters)"},
	{core.ErrEmptyName, "Name is required"},
	{core.ErrEmptyCategory, "Category is required"},
	{core.ErrInvalidPeriod, "Period must be weekly, monthly or yearly"},
	{services.ErrUserExists, "Username or email already exists"},
	{services.ErrPasswordTooLong, "Password too long (max 72 bytes)"},
	{services.ErrEmptyQuery, "Query is required"},
	{services.ErrInvalidWindow, "days must be between 1 and 3650"},
	{errMalformedBody, "Invalid request body"},
	{errInvalidID, "Invalid id"},
	{errInvalidDays, "days must be between 1 and 3650"},
}

// writeServiceError answers with 400 for known input errors, 404 for
// missing records, and 500 with a generic message for everything else.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	for _, v := range validationMessages {
		if errors.Is(err, v.err) {
			writeError(w, http.StatusBadRequest, v.msg)
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
