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

package stream

import (
	"io"

	"github.com/walteh/devrig/pkg/filter"
	"gitlab.com/tozd/go/errors"
)

// 🎛️ Policy selects what happens after a match is found.
type Policy int

const (
	// DrainAll keeps extracting matches and forwarding output until the
	// stream ends. Used for file rewriting.
	DrainAll Policy = iota

	// StopAfterFirstMatch halts the accumulator permanently on the first
	// match. Used for watching live process output.
	StopAfterFirstMatch
)

// 📨 EventKind discriminates accumulator events.
type EventKind int

const (
	EventMatch EventKind = iota
	EventFlush
)

// 📨 Event is emitted once per match and once at end of stream. Positions
// are absolute, derived from the total consumed so far.
type Event struct {
	Kind      EventKind
	Position  int // match events: absolute position of the match
	Length    int // match events: length of the matched text
	TotalRead int // flush events: total consumed at end of stream
}

// 📦 Accumulator buffers incoming chunks, drains every fully-visible match
// through a compiled filter spec, and keeps its retained tail bounded so a
// match-free stream of any length runs in constant memory.
//
// An Accumulator belongs to exactly one stream: one file pipeline or one
// watch call. It is not safe for concurrent use.
type Accumulator struct {
	spec    *filter.Spec
	sink    io.Writer
	onEvent func(Event)
	policy  Policy

	buffer        string
	totalConsumed int
	stopped       bool
}

// 🏗️ New creates an accumulator over a compiled spec. The sink receives the
// transformed text; onEvent (optional) receives match events and one
// terminal flush event.
func New(spec *filter.Spec, sink io.Writer, onEvent func(Event), policy Policy) (*Accumulator, error) {
	if spec == nil {
		return nil, errors.New("stream: compiled filter spec is required")
	}
	if sink == nil {
		sink = io.Discard
	}
	return &Accumulator{
		spec:    spec,
		sink:    sink,
		onEvent: onEvent,
		policy:  policy,
	}, nil
}

// Stopped reports whether a StopAfterFirstMatch accumulator has matched and
// shut itself down.
func (a *Accumulator) Stopped() bool {
	return a.stopped
}

// 📥 Write appends a chunk and processes whatever is now fully visible.
// Chunk boundaries carry no meaning: a match split across any number of
// chunks is found once its last byte arrives.
func (a *Accumulator) Write(p []byte) (int, error) {
	if a.stopped {
		return len(p), nil
	}
	a.buffer += string(p)

	// A buffer shorter than the maximum match length cannot distinguish
	// "no match" from "match not fully arrived yet", so matching waits
	// for more input.
	if len(a.buffer) < a.spec.MaxMatchLength() {
		return len(p), nil
	}

	if err := a.drain(); err != nil {
		return 0, err
	}
	if a.stopped {
		return len(p), nil
	}
	if err := a.trim(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// 🏁 Flush drains any remaining matches (the minimum-context gate does not
// apply at end of stream), forwards the leftover buffer, and emits the
// terminal flush event.
func (a *Accumulator) Flush() error {
	if !a.stopped {
		if err := a.drain(); err != nil {
			return err
		}
		if a.buffer != "" {
			if err := a.forward(a.buffer); err != nil {
				return err
			}
			a.buffer = ""
		}
	}
	a.emit(Event{Kind: EventFlush, TotalRead: a.totalConsumed})
	return nil
}

// drain repeatedly extracts the highest-priority match until none remains.
// After each replacement, scanning resumes strictly from the start of the
// remaining text, so a second match can never begin inside text already
// replaced in this cycle.
func (a *Accumulator) drain() error {
	for {
		m := a.spec.Find(a.buffer)
		if m == nil {
			return nil
		}

		a.emit(Event{
			Kind:     EventMatch,
			Position: a.totalConsumed + m.Offset,
			Length:   m.Length,
		})
		if err := a.forward(m.Before + m.Replacement()); err != nil {
			return err
		}

		// Advance by the full pre-match buffer length. Downstream
		// consumers depend on exactly this accounting for absolute
		// positions.
		a.totalConsumed += len(a.buffer)
		a.buffer = m.After

		if a.policy == StopAfterFirstMatch {
			a.stopped = true
			return nil
		}
	}
}

// trim bounds the retained tail. Keeping maxMatchLength bytes guarantees a
// match beginning anywhere in the retained tail is never missed.
func (a *Accumulator) trim() error {
	maxLen := a.spec.MaxMatchLength()
	if len(a.buffer) <= 2*maxLen {
		return nil
	}
	cut := len(a.buffer) - maxLen
	if err := a.forward(a.buffer[:cut]); err != nil {
		return err
	}
	a.buffer = a.buffer[cut:]
	a.totalConsumed += cut
	return nil
}

func (a *Accumulator) forward(s string) error {
	if s == "" {
		return nil
	}
	if _, err := io.WriteString(a.sink, s); err != nil {
		return errors.Errorf("forwarding output: %w", err)
	}
	return nil
}

func (a *Accumulator) emit(ev Event) {
	if a.onEvent != nil {
		a.onEvent(ev)
	}
}
