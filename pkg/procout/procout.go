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

package procout

import (
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ansiEscape matches CSI and two-byte escape sequences emitted by most
// tools for color and cursor control.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b[@-_]`)

// 🧹 Normalize strips ANSI escape sequences and converts CRLF line endings
// to LF, so watchers match against what a human reads, not raw terminal
// bytes.
func Normalize(s string) string {
	s = ansiEscape.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// 📢 Output is the shared, merged standard-output/error text source of one
// spawned process. Multiple logical consumers may attach over its lifetime:
// live watchers subscribe for chunks, snapshot readers take the full
// accumulated text. While paused, chunks queue up and are replayed in order
// on resume.
//
// Output implements io.Writer; the process's stdout and stderr are both
// pointed at it.
type Output struct {
	mu        sync.Mutex
	listeners map[int]func(string)
	nextID    int
	paused    bool
	pending   []string
	snapshot  strings.Builder
	logger    zerolog.Logger
}

// 🏗️ NewOutput creates an empty, flowing output source.
func NewOutput(logger zerolog.Logger) *Output {
	return &Output{
		listeners: map[int]func(string){},
		logger:    logger,
	}
}

// 📥 Write normalizes and records a chunk, then dispatches it to the
// current listeners (or queues it while paused).
func (o *Output) Write(p []byte) (int, error) {
	chunk := Normalize(string(p))

	o.mu.Lock()
	o.snapshot.WriteString(chunk)
	if o.paused {
		o.pending = append(o.pending, chunk)
		o.mu.Unlock()
		return len(p), nil
	}
	fns := o.listenerSnapshot()
	o.mu.Unlock()

	o.dispatch(fns, chunk)
	return len(p), nil
}

// 🔔 Subscribe registers a chunk listener and returns its id. The listener
// only sees chunks arriving after registration; use Snapshot for history.
func (o *Output) Subscribe(fn func(string)) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	return id
}

// 🔕 Unsubscribe removes a listener. Safe to call more than once.
func (o *Output) Unsubscribe(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.listeners, id)
}

// ⏸️ Pause stops dispatching; chunks queue until Resume.
func (o *Output) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused = true
}

// ▶️ Resume re-enables dispatching and replays queued chunks in order.
func (o *Output) Resume() {
	o.mu.Lock()
	if !o.paused {
		o.mu.Unlock()
		return
	}
	o.paused = false
	queued := o.pending
	o.pending = nil
	fns := o.listenerSnapshot()
	o.mu.Unlock()

	for _, chunk := range queued {
		o.dispatch(fns, chunk)
	}
}

// Paused reports the current flow state.
func (o *Output) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

// 📸 Snapshot returns everything observed so far, including queued chunks.
func (o *Output) Snapshot() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot.String()
}

func (o *Output) listenerSnapshot() []func(string) {
	fns := make([]func(string), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	return fns
}

// dispatch delivers a chunk to each listener, containing any panic so one
// broken consumer cannot take down the others.
func (o *Output) dispatch(fns []func(string), chunk string) {
	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error().Interface("panic", r).Msg("output listener failed")
				}
			}()
			fn(chunk)
		}()
	}
}
