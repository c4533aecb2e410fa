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

package proc

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/devrig/pkg/procout"
	"gitlab.com/tozd/go/errors"
)

// stopGrace is how long Stop waits after an interrupt before killing.
const stopGrace = 5 * time.Second

// ⚙️ Options configures a spawned process.
type Options struct {
	Name string   // executable
	Args []string // arguments
	Dir  string   // working directory; empty means inherit
	Env  []string // extra environment entries, appended to the parent's
}

// 🏃 Process is a spawned child whose merged stdout/stderr feeds a shared
// Output source that watchers and snapshot readers consume.
type Process struct {
	cmd  *exec.Cmd
	out  *procout.Output
	done chan struct{}

	mu       sync.Mutex
	exitCode int
	waitErr  error
}

// 🚀 Spawn starts the process with both output streams merged into a fresh
// Output source.
func Spawn(ctx context.Context, opts Options) (*Process, error) {
	logger := zerolog.Ctx(ctx)

	out := procout.NewOutput(*logger)
	cmd := exec.Command(opts.Name, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, errors.Errorf("starting %s: %w", opts.Name, err)
	}
	logger.Debug().Str("name", opts.Name).Strs("args", opts.Args).Int("pid", cmd.Process.Pid).Msg("spawned process")

	p := &Process{cmd: cmd, out: out, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.exitCode = cmd.ProcessState.ExitCode()
		p.mu.Unlock()
		close(p.done)
	}()
	return p, nil
}

// 📢 Output returns the shared merged-output source.
func (p *Process) Output() *procout.Output {
	return p.out
}

// ⏳ Wait blocks until the process exits or ctx is cancelled, returning the
// exit code.
func (p *Process) Wait(ctx context.Context) (int, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return -1, errors.Errorf("waiting for process: %w", ctx.Err())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waitErr != nil {
		if _, ok := p.waitErr.(*exec.ExitError); ok {
			return p.exitCode, nil
		}
		return p.exitCode, errors.Errorf("waiting for process: %w", p.waitErr)
	}
	return p.exitCode, nil
}

// 🛑 Stop interrupts the process and kills it if it does not exit within a
// short grace period.
func (p *Process) Stop() error {
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		return errors.Errorf("interrupting process: %w", err)
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(stopGrace):
	}
	if err := p.cmd.Process.Kill(); err != nil {
		return errors.Errorf("killing process: %w", err)
	}
	<-p.done
	return nil
}

// 🏃 Run spawns, waits for exit, and returns the collected output and exit
// code. For short-lived commands.
func Run(ctx context.Context, opts Options) (string, int, error) {
	p, err := Spawn(ctx, opts)
	if err != nil {
		return "", -1, err
	}
	code, err := p.Wait(ctx)
	if err != nil {
		return p.out.Snapshot(), code, err
	}
	return p.out.Snapshot(), code, nil
}
