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

package rewrite

import (
	"context"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/devrig/pkg/filter"
	"github.com/walteh/devrig/pkg/stream"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// chunkSize is the read granularity. Chunk boundaries carry no meaning for
// matching; this only tunes syscall count.
const chunkSize = 32 * 1024

// 📄 FileResult reports the outcome of one file's pipeline.
type FileResult struct {
	Path    string
	Matches int
	Err     error
}

// 🔄 Rewriter streams every file matched by a set of glob patterns through
// its own accumulator, writing the transformed text back into the same file
// in place.
//
// In-place rewriting relies on the write cursor never overtaking unread
// bytes, which holds only while replacement text is no longer than the text
// it replaces. Growing replacements can corrupt not-yet-read bytes of the
// same file; callers needing growth must rewrite through a copy themselves.
type Rewriter struct {
	spec     *filter.Spec
	onResult func(FileResult)
}

// 🏗️ New creates a rewriter over a compiled filter spec. onResult
// (optional) is invoked once per settled file pipeline, in no particular
// order across files.
func New(spec *filter.Spec, onResult func(FileResult)) (*Rewriter, error) {
	if spec == nil {
		return nil, errors.New("rewrite: compiled filter spec is required")
	}
	return &Rewriter{spec: spec, onResult: onResult}, nil
}

// 🏃 Run enumerates the glob patterns and rewrites every matched file, all
// pipelines concurrent. It waits for every pipeline to settle even when
// some fail, then returns the first failure.
func (r *Rewriter) Run(ctx context.Context, patterns ...string) error {
	logger := zerolog.Ctx(ctx)

	paths, err := enumerate(patterns)
	if err != nil {
		return err
	}
	logger.Debug().Int("files", len(paths)).Msg("rewriting files")

	// A bare Group rather than WithContext: a failed pipeline must not
	// cancel its siblings, and Wait already surfaces the first error
	// only after every goroutine has settled.
	var g errgroup.Group
	for _, path := range paths {
		path := path
		g.Go(func() error {
			matches, err := r.rewriteFile(path)
			if r.onResult != nil {
				r.onResult(FileResult{Path: path, Matches: matches, Err: err})
			}
			if err != nil {
				logger.Debug().Str("path", path).Err(err).Msg("pipeline failed")
				return errors.Errorf("rewriting %s: %w", path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// enumerate expands glob patterns into a de-duplicated file list.
func enumerate(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string
	for _, pattern := range patterns {
		matched, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding glob %q: %w", pattern, err)
		}
		for _, m := range matched {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

// rewriteFile runs one file through a fresh accumulator, reading and
// writing on the same descriptor at independent offsets.
func (r *Rewriter) rewriteFile(path string) (int, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return 0, errors.Errorf("opening file: %w", err)
	}
	defer f.Close()

	w := &offsetWriter{f: f}
	matches := 0
	acc, err := stream.New(r.spec, w, func(ev stream.Event) {
		if ev.Kind == stream.EventMatch {
			matches++
		}
	}, stream.DrainAll)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, chunkSize)
	var readOffset int64
	for {
		n, err := f.ReadAt(buf, readOffset)
		if n > 0 {
			readOffset += int64(n)
			if _, werr := acc.Write(buf[:n]); werr != nil {
				return matches, werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return matches, errors.Errorf("reading file: %w", err)
		}
	}

	if err := acc.Flush(); err != nil {
		return matches, err
	}
	if err := f.Truncate(w.offset); err != nil {
		return matches, errors.Errorf("truncating file: %w", err)
	}
	return matches, nil
}

// offsetWriter writes sequentially at its own cursor via WriteAt, keeping
// the write position independent of the read position on the shared fd.
type offsetWriter struct {
	f      *os.File
	offset int64
}

func (w *offsetWriter) Write(p []byte) (int, error) {
	n, err := w.f.WriteAt(p, w.offset)
	w.offset += int64(n)
	return n, err
}
