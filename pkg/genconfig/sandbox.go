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

package genconfig

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/devrig/pkg/filter"
	"github.com/walteh/devrig/pkg/rewrite"
	"gitlab.com/tozd/go/errors"
)

// 🏖️ MaterializeSandbox copies a template tree into destDir, then rewrites
// every copied file in place, replacing each __KEY__ placeholder with its
// value from vars.
//
// The rewrite runs in place, so a value substantially longer than its
// placeholder is subject to the in-place growth limitation described on
// rewrite.Rewriter.
func MaterializeSandbox(ctx context.Context, templateDir, destDir string, vars map[string]string) error {
	logger := zerolog.Ctx(ctx)

	if len(vars) == 0 {
		return errors.New("genconfig: at least one template variable is required")
	}

	if err := copyTree(templateDir, destDir); err != nil {
		return err
	}

	// Sorted so rule priority is deterministic across runs.
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rules := make([]filter.Rule, 0, len(vars))
	for _, k := range keys {
		rules = append(rules, filter.Rule{Old: "__" + k + "__", New: vars[k]})
	}
	spec, err := filter.Compile(rules)
	if err != nil {
		return err
	}

	rw, err := rewrite.New(spec, func(res rewrite.FileResult) {
		if res.Err == nil && res.Matches > 0 {
			logger.Debug().Str("path", res.Path).Int("replacements", res.Matches).Msg("materialized template file")
		}
	})
	if err != nil {
		return err
	}
	return rw.Run(ctx, filepath.Join(destDir, "**", "*"))
}

// copyTree copies every regular file under src to the same relative path
// under dst, creating directories as needed.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("walking template dir: %w", err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("resolving template path: %w", err)
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Errorf("creating sandbox dir: %w", err)
			}
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening template file: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Errorf("creating sandbox file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Errorf("copying template file: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing sandbox file: %w", err)
	}
	return nil
}
