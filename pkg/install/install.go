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

package install

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/devrig/pkg/proc"
	"gitlab.com/tozd/go/errors"
)

// 📦 Manager identifies a package manager.
type Manager string

const (
	Npm  Manager = "npm"
	Pnpm Manager = "pnpm"
	Yarn Manager = "yarn"
)

// lockfiles maps the lockfile that pins a directory to its manager.
// Checked in order of specificity.
var lockfiles = []struct {
	file    string
	manager Manager
}{
	{"pnpm-lock.yaml", Pnpm},
	{"yarn.lock", Yarn},
	{"package-lock.json", Npm},
}

// 🔍 Detect picks the package manager for dir from its lockfile, defaulting
// to npm when no lockfile exists yet.
func Detect(dir string) Manager {
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			return lf.manager
		}
	}
	return Npm
}

// 📥 Install runs the directory's package manager to install the named
// packages (or everything in package.json when pkgs is empty). Used to
// prepare integration-test sandboxes. On a non-zero exit the returned error
// carries the collected output.
func Install(ctx context.Context, dir string, pkgs ...string) error {
	logger := zerolog.Ctx(ctx)
	pm := Detect(dir)

	args := []string{"install"}
	args = append(args, pkgs...)
	logger.Debug().Str("manager", string(pm)).Str("dir", dir).Strs("packages", pkgs).Msg("installing packages")

	output, code, err := proc.Run(ctx, proc.Options{
		Name: string(pm),
		Args: args,
		Dir:  dir,
	})
	if err != nil {
		return errors.Errorf("running %s install: %w", pm, err)
	}
	if code != 0 {
		return errors.Errorf("%s install exited with code %d:\n%s", pm, code, output)
	}
	return nil
}
