package mirror

import (
	"errors"
	"fmt"
)

// ErrMaxDepth is returned when the remote tree is nested deeper than
// Config.MaxDepth.
var ErrMaxDepth = errors.New("remote tree exceeds maximum depth")

// ListingError is returned when the contents API answers a listing request
// with anything other than 200 OK.
type ListingError struct {
	Path       string
	Body       string
	StatusCode int
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing %q: API error: %d - %s", e.Path, e.StatusCode, e.Body)
}

// DownloadError is returned when a file download answers with a non-2xx
// status.
type DownloadError struct {
	URL        string
	StatusCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: status %d", e.URL, e.StatusCode)
}
