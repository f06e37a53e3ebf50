// Package errors provides the error types used by cargo-upgrade. Errors carry
// a category, an optional cause and, where the user can act on them, a
// suggestion.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors for use with errors.Is().
var (
	// ErrParse indicates a manifest that is not valid TOML.
	ErrParse = errors.New("parse error")
	// ErrVirtualManifest indicates an operation that needs a package ran
	// against a workspace-only manifest.
	ErrVirtualManifest = errors.New("virtual manifest")
	// ErrMemberLoad indicates a workspace member that could not be loaded.
	ErrMemberLoad = errors.New("workspace member error")
	// ErrDependencyNotFound indicates a requested dependency that no
	// manifest declares.
	ErrDependencyNotFound = errors.New("dependency not found")
	// ErrRegistry indicates a failed registry lookup.
	ErrRegistry = errors.New("registry error")
	// ErrConfig indicates a configuration error.
	ErrConfig = errors.New("configuration error")
	// ErrNetwork indicates a network-related error.
	ErrNetwork = errors.New("network error")
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")
	// ErrIO indicates a failure reading or writing a file.
	ErrIO = errors.New("i/o error")
)

// UnhandledPrefix starts every fatal error report printed by the CLI.
const UnhandledPrefix = "Command failed due to unhandled error: "

// UpgradeError is the base error type for cargo-upgrade errors.
type UpgradeError struct {
	// Kind is the category of error (e.g., ErrParse, ErrRegistry).
	Kind error
	// Message is the human-readable error message.
	Message string
	// Suggestion provides actionable advice for resolving the error.
	Suggestion string
	// Cause is the underlying error that caused this error.
	Cause error
	// Details provides additional context (e.g., manifest path, crate name).
	Details map[string]string
}

// Error implements the error interface.
func (e *UpgradeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *UpgradeError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.Kind
}

// Is reports whether the error's kind matches the target.
func (e *UpgradeError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// WithDetails adds details to the error.
func (e *UpgradeError) WithDetails(key, value string) *UpgradeError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause of the error.
func (e *UpgradeError) WithCause(cause error) *UpgradeError {
	e.Cause = cause
	return e
}

// New creates a new UpgradeError with the given kind and message.
func New(kind error, message string) *UpgradeError {
	return &UpgradeError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, kind error, message string) *UpgradeError {
	return &UpgradeError{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// WithSuggestion creates a new error with a suggestion.
func WithSuggestion(kind error, message, suggestion string) *UpgradeError {
	return &UpgradeError{
		Kind:       kind,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Chain returns the message of err followed by the message of each cause,
// outermost first. Messages of wrapping errors are stripped of the text
// their cause already contributes.
func Chain(err error) []string {
	var out []string
	for err != nil {
		var next error
		msg := err.Error()
		if ue, ok := err.(*UpgradeError); ok {
			msg, next = ue.Message, ue.Cause
		} else if next = errors.Unwrap(err); next != nil {
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}
		out = append(out, msg)
		err = next
	}
	return out
}

// Report renders err with its cause chain:
//
//	Command failed due to unhandled error: Unable to parse Cargo.toml
//
//	Caused by: Manifest not valid TOML
//	Caused by: TOML parse error at line 1, column 6
func Report(err error) string {
	chain := Chain(err)
	if len(chain) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(UnhandledPrefix)
	sb.WriteString(chain[0])
	if len(chain) > 1 {
		sb.WriteString("\n")
		for _, c := range chain[1:] {
			sb.WriteString("\nCaused by: ")
			sb.WriteString(c)
		}
	}
	return sb.String()
}

// Render returns Report(err) followed by the suggestion of the first
// *UpgradeError in the chain that carries one.
func Render(err error) string {
	out := Report(err)
	for e := err; e != nil; {
		ue, ok := e.(*UpgradeError)
		if !ok {
			e = errors.Unwrap(e)
			continue
		}
		if ue.Suggestion != "" {
			return out + "\n\nSuggestion: " + ue.Suggestion
		}
		e = ue.Cause
	}
	return out
}
