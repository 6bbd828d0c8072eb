package validation

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
)

// QueryParams returns middleware checking URL query parameters against
// validator tag rules, e.g. {"rate_ms": "omitempty,number"}. Failures
// answer 400 with a JSON list of ValidationError.
func QueryParams(paramRules map[string]string) func(http.Handler) http.Handler {
	params := make([]string, 0, len(paramRules))
	for param := range paramRules {
		params = append(params, param)
	}
	sort.Strings(params)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			var errs ValidationErrors

			for _, param := range params {
				value := query.Get(param)
				if err := Validate.Var(value, paramRules[param]); err != nil {
					errs = append(errs, ValidationError{
						Field:   param,
						Value:   value,
						Message: varMessage(err),
					})
				}
			}

			if len(errs) > 0 {
				writeErrorResponse(w, http.StatusBadRequest, errs)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func varMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		return getErrorMessage(fieldErrors[0])
	}
	return err.Error()
}

// writeErrorResponse writes validation errors as JSON response
func writeErrorResponse(w http.ResponseWriter, statusCode int, errs ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{"errors": errs})
}
