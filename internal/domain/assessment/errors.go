package assessment

import (
	"errors"
	"fmt"
)

// ErrConfig marks invalid or missing configuration, raised before any
// network call is attempted.
var ErrConfig = errors.New("invalid configuration")

// ErrExpiredOrInvalidCredential indicates the token endpoint rejected the
// service principal (HTTP 400/401/403).
var ErrExpiredOrInvalidCredential = errors.New("could not fetch access token: credentials expired or invalid")

// ErrTokenAcquisitionFailed indicates the token endpoint failed for any
// other reason after transport retries were exhausted.
var ErrTokenAcquisitionFailed = errors.New("could not fetch access token")

// RemoteWriteError is a failed metadata or assessment upsert. Body carries
// the raw response for diagnostics.
type RemoteWriteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}
