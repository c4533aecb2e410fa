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

package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/devrig/pkg/filter"
	"github.com/walteh/devrig/pkg/procout"
	"github.com/walteh/devrig/pkg/stream"
	"gitlab.com/tozd/go/errors"
)

const (
	// DefaultTimeout applies when the caller passes a zero duration.
	DefaultTimeout = 30 * time.Second

	// NoTimeout disables the timer entirely; the watch waits until a
	// match or context cancellation.
	NoTimeout time.Duration = -1
)

// ⏰ TimeoutError is the expected outcome of a watch whose pattern never
// appeared in time. It carries the observed output for diagnostics.
type TimeoutError struct {
	Sought   string
	Observed string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("watch: timed out waiting for %q; output so far:\n%s", e.Sought, e.Observed)
}

// 👀 Wait blocks until the spec matches the live output, the timeout
// expires, or ctx is cancelled, whichever happens first. Each call uses a
// fresh accumulator; watches never share match state.
//
// The output source is resumed before waiting and restored to the
// paused/flowing state it had on entry, regardless of outcome. Settlement
// is exactly once: whichever of {match, timer, cancellation} wins, the
// losers' resources are released and a late match cannot alter the result.
func Wait(ctx context.Context, out *procout.Output, spec *filter.Spec, timeout time.Duration) error {
	logger := zerolog.Ctx(ctx)

	acc, err := stream.New(spec, nil, nil, stream.StopAfterFirstMatch)
	if err != nil {
		return err
	}

	var (
		once    sync.Once
		matched = make(chan struct{})
	)

	var mu sync.Mutex // accumulator is single-owner; chunks arrive from writer goroutines
	id := out.Subscribe(func(chunk string) {
		mu.Lock()
		_, werr := acc.Write([]byte(chunk))
		stopped := acc.Stopped()
		mu.Unlock()
		if werr != nil {
			logger.Debug().Err(werr).Msg("watch accumulator write failed")
			return
		}
		if stopped {
			once.Do(func() { close(matched) })
		}
	})
	// A separately-captured snapshot may have paused the source between
	// watch calls; flow must be on while we listen, and the prior state
	// must be restored however the watch concludes. Subscribing first
	// means a queued backlog is replayed into this watcher on resume.
	wasPaused := out.Paused()
	out.Resume()
	defer func() {
		out.Unsubscribe(id)
		if wasPaused {
			out.Pause()
		}
	}()

	if timeout == 0 {
		timeout = DefaultTimeout
	}
	var timerC <-chan time.Time
	if timeout != NoTimeout {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case <-matched:
		logger.Debug().Str("sought", spec.Describe()).Msg("watch matched")
		return nil
	case <-timerC:
		return &TimeoutError{Sought: spec.Describe(), Observed: out.Snapshot()}
	case <-ctx.Done():
		return errors.Errorf("watch cancelled: %w", ctx.Err())
	}
}

// 👀 WaitFor is a convenience for the common case of watching for one
// literal substring.
func WaitFor(ctx context.Context, out *procout.Output, text string, timeout time.Duration) error {
	spec, err := filter.Compile([]filter.Rule{{Old: text, New: text}})
	if err != nil {
		return err
	}
	return Wait(ctx, out, spec, timeout)
}
