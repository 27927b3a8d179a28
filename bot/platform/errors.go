package platform

import (
	"errors"
	"fmt"
)

// Error kinds shared by every catalog. Check them with errors.Is.
var (
	ErrNotFound     = errors.New("platform: resource not found")
	ErrRateLimited  = errors.New("platform: rate limit exceeded")
	ErrUnavailable  = errors.New("platform: catalog unavailable")
	ErrUnsupported  = errors.New("platform: feature not supported")
	ErrAuthRequired = errors.New("platform: authentication required")
)

// PlatformError ties an error kind to the catalog call that produced it.
type PlatformError struct {
	Platform string
	// Resource is track, album, playlist, search or api.
	Resource string
	ID       string
	Err      error
}

func (e *PlatformError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Platform, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Resource, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

func newError(platform, resource, id string, kind error, detail string) error {
	err := kind
	if detail != "" {
		err = fmt.Errorf("%w: %s", kind, detail)
	}
	return &PlatformError{Platform: platform, Resource: resource, ID: id, Err: err}
}

func NewNotFoundError(platform, resource, id string) error {
	return newError(platform, resource, id, ErrNotFound, "")
}

func NewRateLimitedError(platform string) error {
	return newError(platform, "api", "", ErrRateLimited, "")
}

// NewUnavailableError reports a catalog that cannot be reached right now, for
// example while its circuit breaker is open.
func NewUnavailableError(platform, resource, id, detail string) error {
	return newError(platform, resource, id, ErrUnavailable, detail)
}

func NewUnsupportedError(platform, feature string) error {
	return newError(platform, feature, "", ErrUnsupported, "")
}

// NewAuthRequiredError reports missing credentials.
func NewAuthRequiredError(platform string) error {
	return newError(platform, "api", "", ErrAuthRequired, "")
}

// NewAuthRejectedError reports credentials the catalog refused for one call.
func NewAuthRejectedError(platform, resource, id, detail string) error {
	return newError(platform, resource, id, ErrAuthRequired, detail)
}

// Wrap attaches catalog context to an arbitrary error. A nil err stays nil and
// errors that already carry context are returned unchanged.
func Wrap(platform, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	var perr *PlatformError
	if errors.As(err, &perr) {
		return err
	}
	return &PlatformError{Platform: platform, Resource: resource, ID: id, Err: err}
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
