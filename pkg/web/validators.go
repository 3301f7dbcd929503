package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

// Between returns a ParamValidator accepting values in [lo, hi].
func Between(lo, hi int64) ParamValidator {
	return func(v int64) bool {
		return v >= lo && v <= hi
	}
}

// AtLeast returns a ParamValidator accepting values >= lo.
func AtLeast(lo int64) ParamValidator {
	return func(v int64) bool {
		return v >= lo
	}
}

// QueryInt32 reads an optional integer query parameter. A missing parameter yields def.
// On a malformed or rejected value a 400 response is written and ok is false.
func QueryInt32(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string, def int32, pValidator ParamValidator) (int32, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int32(intValue), true
}
