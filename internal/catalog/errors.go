package catalog

import "fmt"

// AuthError reports a failed client-credentials exchange. It is safe
// to retry after backoff; it is never retried synchronously.
type AuthError struct {
	Code        string // upstream error code, e.g. "invalid_client"
	Description string
	Err         error // underlying transport error, if any
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog authentication failed: %v", e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("catalog authentication failed: %s: %s", e.Code, e.Description)
	}
	return "catalog authentication failed: " + e.Description
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError reports a connection or timeout failure. Callers may
// retry with backoff.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError reports a structured error returned by the catalog.
// Retryable only for transient statuses (429, 5xx).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog error %d: %s", e.Status, e.Message)
}

// Transient reports whether the error is worth retrying at a higher layer.
func (e *APIError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}
