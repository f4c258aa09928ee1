package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	app_service "crypto-bubble-map-explorer/internal/application/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes body before writing the header so an unencodable body
// becomes a 500 instead of a truncated response.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	if body == nil {
		w.WriteHeader(status)
		return
	}
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		data, _ = json.Marshal(errorResponse{Error: fmt.Sprintf("failed to encode response: %v", err)})
	} else {
		w.WriteHeader(status)
	}
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps application errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, app_service.ErrViewNotFound), errors.Is(err, app_service.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, app_service.ErrAddInFlight):
		return http.StatusConflict
	case errors.Is(err, app_service.ErrResolveFailed):
		return http.StatusBadGateway
	case errors.Is(err, app_service.ErrEmptyAddress), errors.Is(err, app_service.ErrInvalidPosition), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, app_service.ErrTooManyViews):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest(err)
	}
	return nil
}
