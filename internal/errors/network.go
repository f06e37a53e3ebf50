// This file contains registry and network-related errors.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// Registry-related error constructors.

// RegistryLookup creates an error for a lookup that failed for a reason
// other than the crate being absent.
func RegistryLookup(name string, cause error) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrRegistry,
		Message: fmt.Sprintf("Failed to fetch the versions of `%s` from the registry", name),
		Cause:   cause,
		Details: map[string]string{"crate": name},
		Suggestion: `Check that the registry index is reachable:
  curl -I https://index.crates.io/config.json

To work offline, point cargo-upgrade at a local index copy:
  cargo upgrade --registry-dir /path/to/index`,
	}
}

// CrateNotFound creates an error for a crate the registry does not know.
func CrateNotFound(name string) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("crate `%s` was not found in the registry", name),
		Details: map[string]string{"crate": name},
	}
}

// NetworkUnavailable creates an error for network connectivity issues.
func NetworkUnavailable(host string, cause error) *UpgradeError {
	err := &UpgradeError{
		Kind:    ErrNetwork,
		Message: "network unavailable",
		Cause:   cause,
		Suggestion: `Check your network connection:

  1. Verify internet connectivity
  2. Check if VPN or firewall is blocking access

If you're behind a proxy:
  export HTTP_PROXY=http://proxy:port
  export HTTPS_PROXY=http://proxy:port`,
	}
	if host != "" {
		err.Details = map[string]string{"host": host}
	}
	return err
}

// UnexpectedStatus creates an error for a registry response that is
// neither a success nor a missing crate. Server errors are network errors
// and may be retried; other statuses are registry errors.
func UnexpectedStatus(url string, status int) *UpgradeError {
	kind := ErrRegistry
	if status >= 500 {
		kind = ErrNetwork
	}
	return &UpgradeError{
		Kind:    kind,
		Message: fmt.Sprintf("registry returned %d %s", status, http.StatusText(status)),
		Details: map[string]string{"url": url},
	}
}

// RateLimited creates an error for registry rate limiting.
func RateLimited(retryAfter time.Duration) *UpgradeError {
	suggestion := "Wait before retrying."
	if retryAfter > 0 {
		suggestion = fmt.Sprintf("Wait %v before retrying.", retryAfter.Round(time.Second))
	}
	return &UpgradeError{
		Kind:       ErrNetwork,
		Message:    "rate limit exceeded",
		Suggestion: suggestion,
	}
}

// Helper functions for error detection.

// IsRetryable returns true if the error is likely transient and retrying may succeed.
func IsRetryable(err error) bool {
	if re, ok := err.(*UpgradeError); ok {
		return re.Kind == ErrNetwork
	}
	return false
}
