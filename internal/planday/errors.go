package planday

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

// AuthError is returned when the refresh-token exchange is rejected.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("planday token refresh failed (%d): %s", e.Status, e.Body)
}

// UpstreamError is a non-2xx response from the scheduling API.
type UpstreamError struct {
	Status int
	Path   string
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Planday API %d: %s", e.Status, e.Body)
}

var badRequestMessage = regexp.MustCompile(`Planday API 400\b`)

// IsBadRequest reports whether err means the request shape itself was
// rejected. Those errors drive format fallback; everything else is fatal.
func IsBadRequest(err error) bool {
	if err == nil {
		return false
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Status == http.StatusBadRequest
	}
	return badRequestMessage.MatchString(err.Error())
}
