package tools

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bedquiltdb/bedquilt/bedqerr"
)

// APIError is the structured error body returned to HTTP clients. Code
// is a stable identifier for SDK/client error handling; Message
// describes what went wrong; Hint offers actionable guidance, mirroring
// the teacher's own APIError shape (atomicbase api/tools/errors.go).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// RespErr writes a structured error response to w, deriving the HTTP
// status and body from err via BuildAPIError.
func RespErr(w http.ResponseWriter, err error) {
	status, apiErr := BuildAPIError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiErr)
}

// RespJSON writes v as a JSON response body with the given status code.
func RespJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// BuildAPIError maps a bedqerr sentinel error to an HTTP status code and
// a structured APIError with an actionable hint, following the teacher's
// own switch-on-errors.Is dispatch (atomicbase api/tools/response.go
// BuildAPIError).
func BuildAPIError(err error) (int, APIError) {
	switch {
	case errors.Is(err, bedqerr.ErrDuplicateKey):
		return http.StatusConflict, APIError{
			Code:    bedqerr.CodeDuplicateKey,
			Message: err.Error(),
			Hint:    "Choose a different _id, or use the save operation to upsert instead of insert.",
		}
	case errors.Is(err, bedqerr.ErrConstraintViolation):
		return http.StatusUnprocessableEntity, APIError{
			Code:    bedqerr.CodeConstraintViolation,
			Message: err.Error(),
			Hint:    "The document does not satisfy a declared constraint on this collection. Use GET .../constraints to list them.",
		}
	case errors.Is(err, bedqerr.ErrInvalidIdentifier):
		return http.StatusBadRequest, APIError{
			Code:    bedqerr.CodeInvalidIdentifier,
			Message: err.Error(),
			Hint:    "Collection names must start with a lowercase letter or underscore and contain only lowercase letters, digits, and underscores.",
		}
	case errors.Is(err, bedqerr.ErrType):
		return http.StatusBadRequest, APIError{
			Code:    bedqerr.CodeTypeError,
			Message: err.Error(),
			Hint:    "Check that the request body has the expected shape: an object for documents and queries, a string for _id.",
		}
	case errors.Is(err, bedqerr.ErrCompile):
		return http.StatusBadRequest, APIError{
			Code:    bedqerr.CodeCompileError,
			Message: err.Error(),
			Hint:    "Check the query/sort/constraint document for unknown operators or malformed operator arguments.",
		}
	case errors.Is(err, bedqerr.ErrMissingWhereClause):
		return http.StatusBadRequest, APIError{
			Code:    "QUERY_REQUIRED",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, APIError{
			Code:    bedqerr.CodeSubstrateError,
			Message: "internal error",
		}
	}
}
