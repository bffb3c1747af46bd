package service

import "errors"

// Error kinds returned by the services. Callers match them with errors.Is;
// the wrapped text adds detail for logs and validation messages.
var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrFileTooLarge         = errors.New("file too large")
	ErrServiceMisconfigured = errors.New("service misconfigured")
	ErrUpstreamFetch        = errors.New("failed to fetch image")
	ErrUpstreamStorage      = errors.New("storage unavailable")
	ErrClassification       = errors.New("classification service error")
	ErrIdentityProvider     = errors.New("identity provider error")
)

// requireOwner fails with ErrForbidden unless the caller owns the resource.
func requireOwner(callerID, ownerID string) error {
	if callerID == "" || callerID != ownerID {
		return ErrForbidden
	}
	return nil
}
