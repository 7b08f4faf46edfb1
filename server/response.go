package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/spektr-org/nexus/datasource"
	"github.com/spektr-org/nexus/engine"
	"github.com/spektr-org/nexus/ingest"
	"github.com/spektr-org/nexus/logging"
	"github.com/spektr-org/nexus/validation"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadBody     = errors.New("invalid request body")
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondOK(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, &Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := &Response{Success: false, Error: err.Error()}
	var verr *validation.Error
	if errors.As(err, &verr) {
		resp.Details = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
	}
	respondJSON(w, status, resp)
}

// statusFor maps package errors to HTTP status codes.
func statusFor(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, errBadBody),
		errors.Is(err, datasource.ErrEmptyQuery),
		errors.Is(err, datasource.ErrUnsupportedType),
		errors.Is(err, ingest.ErrNoColumns),
		errors.Is(err, ingest.ErrQueryFailed):
		return http.StatusBadRequest
	case errors.Is(err, datasource.ErrUnknownDatasource),
		errors.Is(err, engine.ErrUnsupportedPanel):
		return http.StatusNotFound
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// decodeBody reads a JSON body of at most limit bytes into v and validates it.
func decodeBody(r *http.Request, limit int64, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if int64(len(body)) > limit {
		return fmt.Errorf("%w: body exceeds %d bytes", errBadBody, limit)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return validation.Struct(v)
}

// readBody reads a raw body of at most limit bytes.
func readBody(r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errBadBody, limit)
	}
	return body, nil
}
