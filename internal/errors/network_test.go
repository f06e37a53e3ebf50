package errors

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRegistryLookup(t *testing.T) {
	cause := errors.New("connection reset")
	err := RegistryLookup("serde", cause)

	if !errors.Is(err, ErrRegistry) {
		t.Error("RegistryLookup should return ErrRegistry")
	}
	if !errors.Is(err, cause) {
		t.Error("Should wrap the cause")
	}
	if !strings.Contains(err.Message, "`serde`") {
		t.Error("Message should name the crate")
	}
	if !strings.Contains(err.Suggestion, "--registry-dir") {
		t.Error("Suggestion should mention the offline index")
	}
}

func TestCrateNotFound(t *testing.T) {
	err := CrateNotFound("nope")

	if !errors.Is(err, ErrNotFound) {
		t.Error("CrateNotFound should return ErrNotFound")
	}
	if IsRetryable(err) {
		t.Error("a missing crate is not retryable")
	}
}

func TestNetworkUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	err := NetworkUnavailable("index.crates.io", cause)

	if !errors.Is(err, ErrNetwork) {
		t.Error("NetworkUnavailable should return ErrNetwork")
	}
	if !errors.Is(err.Cause, cause) {
		t.Error("Should wrap the cause")
	}
	if err.Details["host"] != "index.crates.io" {
		t.Error("Should include host in details")
	}
	if !strings.Contains(err.Suggestion, "VPN") {
		t.Error("Suggestion should mention common network issues")
	}
}

func TestNetworkUnavailable_NoHost(t *testing.T) {
	err := NetworkUnavailable("", nil)

	if err.Details != nil {
		t.Error("Should not include details when host is empty")
	}
}

func TestUnexpectedStatus(t *testing.T) {
	err := UnexpectedStatus("https://index.crates.io/se/rd/serde", 503)

	if err.Message != "registry returned 503 Service Unavailable" {
		t.Errorf("Message = %q", err.Message)
	}
	if !IsRetryable(err) {
		t.Error("a server error should be retryable")
	}
	if IsRetryable(UnexpectedStatus("https://index.crates.io/se/rd/serde", 403)) {
		t.Error("a client error should not be retryable")
	}
}

func TestRateLimited(t *testing.T) {
	err := RateLimited(30 * time.Second)

	if !errors.Is(err, ErrNetwork) {
		t.Error("RateLimited should return ErrNetwork")
	}
	if !strings.Contains(err.Suggestion, "30s") {
		t.Error("Suggestion should include retry time")
	}
	if !strings.Contains(RateLimited(0).Suggestion, "Wait before retrying") {
		t.Error("Should provide generic wait message")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("x"), false},
		{"network", NetworkUnavailable("", nil), true},
		{"registry", RegistryLookup("a", nil), false},
		{"rate limited", RateLimited(time.Second), true},
		{"parse", ManifestParse("p", errors.New("x")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
