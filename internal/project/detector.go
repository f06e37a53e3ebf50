// Package project locates the Cargo package a command runs against.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
)

// ManifestName is the file that marks a package directory.
const ManifestName = "Cargo.toml"

// ProjectInfo contains information about a detected package directory.
type ProjectInfo struct {
	// Path is the absolute path to the package directory.
	Path string `json:"path"`
	// ManifestPath is the absolute path to its Cargo.toml.
	ManifestPath string `json:"manifest_path"`
}

// Detector finds package directories.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectProject reports the package rooted at dir, or nil when dir holds
// no Cargo.toml.
func (d *Detector) DetectProject(dir string) (*ProjectInfo, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", absPath)
	}

	manifest := filepath.Join(absPath, ManifestName)
	if info, err := os.Stat(manifest); err != nil || info.IsDir() {
		return nil, nil
	}
	return &ProjectInfo{Path: absPath, ManifestPath: manifest}, nil
}

// FindProject returns the nearest package at or above dir.
func (d *Detector) FindProject(dir string) (*ProjectInfo, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for cur := absDir; ; cur = filepath.Dir(cur) {
		project, err := d.DetectProject(cur)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if project != nil {
			return project, nil
		}
		if IsRootDirectory(cur) || filepath.Dir(cur) == cur {
			return nil, uperrors.ManifestNotFound(absDir)
		}
	}
}

// ManifestPath resolves the manifest a command should use. An explicit
// path is returned as given (a directory is completed with Cargo.toml);
// otherwise the nearest Cargo.toml at or above dir is used.
func ManifestPath(explicit, dir string) (string, error) {
	if explicit != "" {
		if info, err := os.Stat(explicit); err == nil && info.IsDir() {
			return filepath.Join(explicit, ManifestName), nil
		}
		return explicit, nil
	}
	project, err := NewDetector().FindProject(dir)
	if err != nil {
		return "", err
	}
	return project.ManifestPath, nil
}

// IsRootDirectory returns true if the directory is the root directory.
func IsRootDirectory(dir string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return absDir == "/" || absDir == filepath.VolumeName(absDir)+"\\"
}
