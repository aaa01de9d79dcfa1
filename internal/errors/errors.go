// Package errors provides error types and handling for the crawl engine.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Network represents network-related errors (DNS, connection).
	Network
	// Timeout represents timeout errors.
	Timeout
	// MalformedContent represents unparseable HTML or script bodies.
	MalformedContent
	// InvalidURL represents scope or scheme rejections. These are filtered
	// before use and never surfaced as crawl failures.
	InvalidURL
	// Cancelled represents context cancellation.
	Cancelled
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Network:
		return "network"
	case Timeout:
		return "timeout"
	case MalformedContent:
		return "malformed_content"
	case InvalidURL:
		return "invalid_url"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsFatal reports whether errors of this type may abort the crawl loop.
// Only cancellation unwinds the run; everything else abandons the one URL.
func (t ErrorType) IsFatal() bool {
	return t == Cancelled
}

// CrawlError represents a categorized crawl error.
type CrawlError struct {
	Type      ErrorType
	URL       string
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *CrawlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.URL, e.Message)
}

// Unwrap returns the underlying error.
func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *CrawlError) Is(target error) bool {
	t, ok := target.(*CrawlError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewCrawlError creates a new CrawlError.
func NewCrawlError(errType ErrorType, url, operation, message string, cause error) *CrawlError {
	return &CrawlError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(url, operation string, cause error) *CrawlError {
	return NewCrawlError(Network, url, operation, "network failure", cause)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(url, operation string, cause error) *CrawlError {
	return NewCrawlError(Timeout, url, operation, "request timed out", cause)
}

// NewMalformedContentError creates a malformed content error.
func NewMalformedContentError(url, operation string, cause error) *CrawlError {
	return NewCrawlError(MalformedContent, url, operation, "content could not be parsed", cause)
}

// NewInvalidURLError creates an invalid URL error.
func NewInvalidURLError(url, reason string) *CrawlError {
	return NewCrawlError(InvalidURL, url, "scope_check", reason, nil)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(url, operation string) *CrawlError {
	return NewCrawlError(Cancelled, url, operation, "operation cancelled", nil)
}

// Categorize determines the error type from a generic error.
func Categorize(err error, url string) *CrawlError {
	if err == nil {
		return nil
	}

	// Already a CrawlError
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError(url, "request")
	}

	if isTimeout(err) {
		return NewTimeoutError(url, "request", err)
	}

	if isNetworkError(err) {
		return NewNetworkError(url, "request", err)
	}

	return NewCrawlError(Unknown, url, "request", err.Error(), err)
}

// isTimeout checks if an error is a timeout.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if an error is network-related.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp")
}

// IsCancelled checks if an error represents cooperative cancellation.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Type == Cancelled
	}
	return false
}

// IsInvalidURL checks if an error is a scope or scheme rejection.
func IsInvalidURL(err error) bool {
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Type == InvalidURL
	}
	return false
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var crawlErr *CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr.Type
	}
	return Unknown
}
