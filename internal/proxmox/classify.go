package proxmox

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
)

// existsMarkers are the response body fragments that indicate a resource is
// already present. The API returns varying HTTP status codes for this case
// across versions, so the body text is the reliable signal.
var existsMarkers = []string{
	"already exists",
	"already active",
	"already configured",
	"already registered",
	"already defined",
}

// isExistsMarker reports whether a response body indicates the resource
// already exists server-side.
func isExistsMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range existsMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// classifyStatus maps a non-2xx HTTP status to the error taxonomy.
func classifyStatus(status int, body string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Unauthorized(strings.TrimSpace(body))
	default:
		return errors.Wrap(errors.ErrCodeInternal, "unexpected response",
			&statusError{status: status, body: strings.TrimSpace(body)})
	}
}

// classifyCreate is the single classification point shared by the account and
// plugin stages. It maps a create response to nil (created),
// errors.ErrAlreadyExists (idempotent success), or a fatal error.
func classifyCreate(resource string, status int, body string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if isExistsMarker(body) {
		return errors.AlreadyExists(resource)
	}
	return classifyStatus(status, body)
}

// statusError carries a raw status code and body for diagnosis.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("status %d", e.status)
	}
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}
