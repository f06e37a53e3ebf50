// This file contains configuration and manifest-related errors.
package errors

import (
	"fmt"
	"strings"
)

// Configuration-related error constructors.

// ConfigParseError creates an error for YAML parsing failures.
func ConfigParseError(configPath string, parseErr error) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrConfig,
		Message: fmt.Sprintf("failed to parse configuration: %s", configPath),
		Cause:   parseErr,
		Details: map[string]string{
			"path": configPath,
		},
		Suggestion: `Check the configuration file for syntax errors:
  1. Ensure proper YAML indentation (use spaces, not tabs)
  2. Check for missing colons or quotes`,
	}
}

// ConfigValidationError creates an error for invalid configuration values.
func ConfigValidationError(field, message string, validOptions []string) *UpgradeError {
	suggestion := fmt.Sprintf("Fix the %q setting in .cargo-upgrade.yaml or on the command line.", field)
	if len(validOptions) > 0 {
		suggestion += fmt.Sprintf("\n  Valid options: %s", strings.Join(validOptions, ", "))
	}

	return &UpgradeError{
		Kind:    ErrConfig,
		Message: fmt.Sprintf("invalid configuration: %s", message),
		Details: map[string]string{
			"field": field,
		},
		Suggestion: suggestion,
	}
}

// Manifest-related error constructors.

// ManifestNotFound creates an error when no Cargo.toml can be located.
func ManifestNotFound(dir string) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("could not find `Cargo.toml` in `%s` or any parent directory", dir),
		Details: map[string]string{
			"directory": dir,
		},
		Suggestion: "Run the command inside a Cargo package or pass --manifest-path.",
	}
}

// ManifestRead creates an error for a manifest that cannot be read.
func ManifestRead(path string, cause error) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrIO,
		Message: "Unable to read Cargo.toml",
		Cause:   cause,
		Details: map[string]string{"path": path},
	}
}

// ManifestParse creates an error for a manifest that is not valid TOML.
// The cause is expected to describe the offending line and column.
func ManifestParse(path string, cause error) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrParse,
		Message: "Unable to parse Cargo.toml",
		Cause:   Wrap(cause, ErrParse, "Manifest not valid TOML"),
		Details: map[string]string{"path": path},
	}
}

// virtualManifestMessage matches the wording cargo-edit prints.
const virtualManifestMessage = "Found virtual manifest, but this command requires running " +
	"against an actual package in this workspace."

// VirtualManifest creates an error for an attempt to edit the dependencies
// of a workspace-only manifest.
func VirtualManifest(path string) *UpgradeError {
	return &UpgradeError{
		Kind:       ErrVirtualManifest,
		Message:    "Failed to write new manifest contents",
		Cause:      New(ErrVirtualManifest, virtualManifestMessage),
		Details:    map[string]string{"path": path},
		Suggestion: "Pass --all to upgrade every workspace member, or point --manifest-path at a member's Cargo.toml.",
	}
}

// MemberLoad creates an error for a workspace member that failed to load.
func MemberLoad(path string, cause error) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrMemberLoad,
		Message: fmt.Sprintf("Failed to load workspace member `%s`", path),
		Cause:   cause,
		Details: map[string]string{"path": path},
	}
}

// DependencyNotFound creates the warning reported for a requested
// dependency that none of the processed manifests declares. where names
// the manifest, or the workspace, that was searched.
func DependencyNotFound(name, where string) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrDependencyNotFound,
		Message: fmt.Sprintf("dependency `%s` is not declared in %s", name, where),
		Details: map[string]string{"dependency": name},
	}
}

// ManifestWrite creates an error for a manifest that could not be saved.
func ManifestWrite(path string, cause error) *UpgradeError {
	return &UpgradeError{
		Kind:    ErrIO,
		Message: "Failed to write new manifest contents",
		Cause:   cause,
		Details: map[string]string{"path": path},
	}
}
