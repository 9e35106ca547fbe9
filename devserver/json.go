package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-visitas/internal/errors"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "read body")
	}
	if len(body) == 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "empty body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "malformed JSON")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(errors.ErrInvalidRequest, "invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidCredentials),
		errors.Is(err, errors.ErrInvalidToken),
		errors.Is(err, errors.ErrTokenExpired),
		errors.Is(err, errors.ErrInvalidRefreshToken),
		errors.Is(err, errors.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrUserNotFound), errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrUserExists),
		errors.Is(err, errors.ErrEmailExists),
		errors.Is(err, errors.ErrWeakPassword),
		errors.Is(err, errors.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrMissingField):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure writes err with the status statusFor picks. Internal errors
// are not echoed to the client.
func writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
