package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"vocabtalk/internal/domain"
	"vocabtalk/internal/events"
	"vocabtalk/internal/usecase"
)

const maxRequestBody = 1 << 20

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Code    domain.ErrorCode    `json:"code"`
	Message string              `json:"message"`
	Detail  string              `json:"detail,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

var errMalformedBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	if errors.Is(err, errMalformedBody) {
		code = domain.ErrorCodeValidation
	}
	body := errorBody{
		Code:    code,
		Message: events.ErrorMessage(code, err.Error()),
		Detail:  err.Error(),
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		body.Fields = validationErr.Fields
	}
	writeJSON(w, statusFor(err, code), body)
}

func statusFor(err error, code domain.ErrorCode) int {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrRecordingTooLarge):
		return http.StatusRequestEntityTooLarge
	}

	switch code {
	case domain.ErrorCodeValidation, domain.ErrorCodeTranscription:
		return http.StatusUnprocessableEntity
	case domain.ErrorCodeBusy, domain.ErrorCodeConflict:
		return http.StatusConflict
	case domain.ErrorCodePermissionDenied:
		return http.StatusForbidden
	case domain.ErrorCodeNotFound:
		return http.StatusNotFound
	case domain.ErrorCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}
