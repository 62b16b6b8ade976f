package source

import (
	"errors"
	"fmt"
)

// AuthError indicates that the mail API identity could not be
// established: a required secret is missing, or the token endpoint
// rejected the client credentials. Fatal to an ingestion run.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// TransportError indicates a non-success HTTP response from the mail
// API. The status and body are carried verbatim for diagnostics; no
// retry is attempted at this layer.
type TransportError struct {
	Op     string
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

// IsTransportError reports whether err (or any error in its chain) is a
// TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
