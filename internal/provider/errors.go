package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a provider failure carrying enough structure for callers to
// branch programmatically: HTTP status plus the provider's machine-readable
// type/detail fields when present.
type APIError struct {
	Op     string
	Status int
	Kind   string
	Detail string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: provider returned %d (%s): %s", e.Op, e.Status, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: provider returned %d", e.Op, e.Status)
}

// IsAuth reports whether the failure is an authentication problem, which
// callers surface distinctly and never retry.
func (e *APIError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
