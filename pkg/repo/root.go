// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repo

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// ErrNotFound means no root marker exists between the start directory and
// the filesystem root.
var ErrNotFound = errors.New("repo: no repository root found")

// rootMarkers identify a multi-package repository root when present as a
// directory entry. Checked in order.
var rootMarkers = []string{"go.work", "pnpm-workspace.yaml", ".git"}

// 🔍 FindRoot walks up from start until it finds a directory holding a root
// marker: a workspace file, a .git directory, a go.mod, or a package.json
// that declares workspaces.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Errorf("resolving start path: %w", err)
	}
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if isRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Errorf("%w (searched up from %s)", ErrNotFound, start)
		}
		dir = parent
	}
}

func isRoot(dir string) bool {
	for _, marker := range rootMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	return hasWorkspaces(filepath.Join(dir, "package.json"))
}

// hasWorkspaces reports whether a package.json declares a workspaces field.
// A plain package.json is not a root marker: every package in a
// multi-package repo has one.
func hasWorkspaces(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc struct {
		Workspaces json.RawMessage `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	return len(doc.Workspaces) > 0
}

// 📐 Rel returns path relative to root, falling back to the absolute path
// when they do not share a prefix.
func Rel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
