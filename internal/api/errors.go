package api

import (
	"encoding/json"
	"net/http"
	"sort"
)

const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeAuthRequired     = "AUTHENTICATION_REQUIRED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// builder pattern
type ErrorBuilder struct {
	Code    string
	Message string
	Details []ErrorDetail
}

func NewError(code, message string) *ErrorBuilder {
	return &ErrorBuilder{Code: code, Message: message}
}

func (e *ErrorBuilder) WithDetails(details []ErrorDetail) *ErrorBuilder {
	e.Details = details
	return e
}

type errorBody struct {
	Error struct {
		Code    string        `json:"code"`
		Message string        `json:"message"`
		Details []ErrorDetail `json:"details,omitempty"`
	} `json:"error"`
}

func (e *ErrorBuilder) Create() errorBody {
	var body errorBody
	body.Error.Code = e.Code
	body.Error.Message = e.Message
	body.Error.Details = e.Details
	return body
}

// builder pattern extensions

func Unauthorized(msg string) *ErrorBuilder {
	return NewError(CodeAuthRequired, msg)
}

func PermissionDenied(msg string) *ErrorBuilder {
	return NewError(CodePermissionDenied, msg)
}

func NotFound(resource string) *ErrorBuilder {
	return NewError(CodeResourceNotFound, resource+" not found")
}

func ValidationErr(msg string, details []ErrorDetail) *ErrorBuilder {
	return NewError(CodeValidationError, msg).WithDetails(details)
}

func UpstreamErr(msg string) *ErrorBuilder {
	return NewError(CodeUpstreamError, msg)
}

func InternalError(msg string) *ErrorBuilder {
	return NewError(CodeInternalError, msg)
}

// fieldDetails flattens a field -> messages map into sorted detail entries.
func fieldDetails(fields map[string][]string) []ErrorDetail {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	details := make([]ErrorDetail, 0, len(fields))
	for _, name := range names {
		for _, msg := range fields[name] {
			details = append(details, ErrorDetail{Field: name, Message: msg})
		}
	}
	return details
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, e *ErrorBuilder) {
	writeJSON(w, status, e.Create())
}
