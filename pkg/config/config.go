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

package config

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/devrig/pkg/filter"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔄 Rule is one match rule of a rewrite job: a literal substring swap, or
// a pattern with a replacement template ($1..$9 refer to capture groups).
type Rule struct {
	Old      string `json:"old,omitempty" yaml:"old,omitempty" toml:"old,omitempty"`
	New      string `json:"new,omitempty" yaml:"new,omitempty" toml:"new,omitempty"`
	Pattern  string `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	Template string `json:"template,omitempty" yaml:"template,omitempty" toml:"template,omitempty"`
}

// 🔧 RewriteJob is one named batch of in-place file rewrites.
type RewriteJob struct {
	Name           string   `json:"name" yaml:"name" toml:"name"`
	Globs          []string `json:"globs" yaml:"globs" toml:"globs"`
	MaxMatchLength int      `json:"max_match_length,omitempty" yaml:"max_match_length,omitempty" toml:"max_match_length,omitempty"`
	Rules          []Rule   `json:"rules" yaml:"rules" toml:"rules"`
}

// ⏰ WatchArgs holds watch-mode defaults.
type WatchArgs struct {
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"` // duration string, or "none"
}

// 📦 InstallArgs configures package installation for integration tests.
type InstallArgs struct {
	Dir      string   `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty" toml:"packages,omitempty"`
}

// 📚 Config represents the complete toolkit configuration
type Config struct {
	Rewrites []RewriteJob `json:"rewrites,omitempty" yaml:"rewrites,omitempty" toml:"rewrites,omitempty"`
	Watch    *WatchArgs   `json:"watch,omitempty" yaml:"watch,omitempty" toml:"watch,omitempty"`
	Install  *InstallArgs `json:"install,omitempty" yaml:"install,omitempty" toml:"install,omitempty"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// ✅ Validate checks the configuration for errors
func (c *Config) Validate() error {
	for i, job := range c.Rewrites {
		if job.Name == "" {
			return errors.Errorf("rewrite %d: name is required", i)
		}
		if len(job.Globs) == 0 {
			return errors.Errorf("rewrite %q: at least one glob is required", job.Name)
		}
		if _, err := job.CompileSpec(); err != nil {
			return errors.Errorf("rewrite %q: %w", job.Name, err)
		}
	}
	if c.Watch != nil && c.Watch.Timeout != "" && c.Watch.Timeout != "none" {
		if _, err := time.ParseDuration(c.Watch.Timeout); err != nil {
			return errors.Errorf("watch timeout: %w", err)
		}
	}
	return nil
}

// WatchTimeout resolves the configured watch timeout; zero means "use the
// default", negative means "no timeout".
func (c *Config) WatchTimeout() (time.Duration, error) {
	if c.Watch == nil || c.Watch.Timeout == "" {
		return 0, nil
	}
	if c.Watch.Timeout == "none" {
		return -1, nil
	}
	d, err := time.ParseDuration(c.Watch.Timeout)
	if err != nil {
		return 0, errors.Errorf("watch timeout: %w", err)
	}
	return d, nil
}

// groupRef matches $N capture-group references in replacement templates.
var groupRef = regexp.MustCompile(`\$(\d)`)

// 🏗️ CompileSpec compiles a job's rules into an immutable filter spec.
func (j *RewriteJob) CompileSpec() (*filter.Spec, error) {
	rules := make([]filter.Rule, 0, len(j.Rules))
	for i, r := range j.Rules {
		switch {
		case r.Pattern != "":
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, errors.Errorf("rule %d: compiling pattern: %w", i, err)
			}
			rules = append(rules, filter.Rule{
				Pattern: re,
				Replace: templateReplacer(r.Template),
			})
		default:
			rules = append(rules, filter.Rule{Old: r.Old, New: r.New})
		}
	}

	var opts []filter.Option
	if j.MaxMatchLength > 0 {
		opts = append(opts, filter.WithMaxMatchLength(j.MaxMatchLength))
	}
	return filter.Compile(rules, opts...)
}

// templateReplacer expands $N references against the match's groups.
func templateReplacer(template string) func([]string) string {
	return func(groups []string) string {
		return groupRef.ReplaceAllStringFunc(template, func(ref string) string {
			n, err := strconv.Atoi(ref[1:])
			if err != nil || n >= len(groups) {
				return ""
			}
			return groups[n]
		})
	}
}
