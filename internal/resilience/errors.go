package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// Transient wraps an upstream adapter error that is safe to retry, such
// as a rate limit or a 5xx from a search API.
type Transient struct {
	Err        error
	StatusCode int
}

func (e *Transient) Error() string {
	return e.Err.Error()
}

func (e *Transient) Unwrap() error {
	return e.Err
}

// MarkTransient tags an adapter error as retryable, carrying the HTTP
// status when one exists (0 for transport-level failures).
func MarkTransient(err error, statusCode int) *Transient {
	return &Transient{Err: err, StatusCode: statusCode}
}

// IsTransient reports whether the error chain carries a Transient marker
// or matches a known transient network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *Transient
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped HTTP client errors lose their type; fall back to the
	// well-known message fragments.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// RetryableStatus reports whether an HTTP status from a search upstream
// is worth retrying. Client errors other than timeouts and rate limits
// are permanent: a bad API key stays bad.
func RetryableStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
