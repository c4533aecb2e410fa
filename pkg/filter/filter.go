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

package filter

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🚨 Configuration errors, raised at compile time and never retried
var (
	ErrNoRules          = errors.New("filter: at least one rule is required")
	ErrEmptyLiteral     = errors.New("filter: literal rule requires a non-empty substring")
	ErrNoMaxMatchLength = errors.New("filter: max match length is required when pattern rules are present")
	ErrBadMaxLength     = errors.New("filter: max match length must be positive")
)

// 🔄 Rule is a single match rule: either a literal substring swap or a
// compiled pattern with a replacement function. Exactly one of the two
// forms must be set.
type Rule struct {
	Old string // literal substring to find
	New string // literal replacement

	Pattern *regexp.Regexp               // pattern form
	Replace func(groups []string) string // receives the full match at index 0, submatches after
}

// 🔍 isPattern reports which form the rule takes.
func (r Rule) isPattern() bool {
	return r.Pattern != nil
}

// 🎯 Match describes one located match inside a buffer. Replacement is a
// thunk so the replacement text is only computed when a consumer actually
// wants it.
type Match struct {
	Offset      int
	Length      int
	Before      string // buffer content preceding the match
	After       string // buffer content following the match
	Replacement func() string
}

// matcher locates a rule's match in a buffer, or returns nil. Matchers are
// pure: every call scans the whole buffer from the start, so a compiled
// pattern can never carry a cursor from a previous buffer into this one.
type matcher func(buffer string) *Match

// 📚 Spec is a compiled, immutable rule set. Rule order is a priority
// order: Find tries rules in order and the first rule that matches anywhere
// wins, even when a later rule would match earlier in the text.
type Spec struct {
	matchers []matcher
	descs    []string
	maxLen   int
}

// Option adjusts compilation.
type Option func(*compileOpts)

type compileOpts struct {
	maxLen int
}

// 📏 WithMaxMatchLength bounds the length of any single match. Required
// whenever a pattern rule is present; optional for pure-literal specs,
// where it defaults to the sum of the literal lengths.
func WithMaxMatchLength(n int) Option {
	return func(o *compileOpts) {
		o.maxLen = n
	}
}

// 🏗️ Compile validates the rules and returns an immutable Spec.
func Compile(rules []Rule, opts ...Option) (*Spec, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}

	var o compileOpts
	for _, opt := range opts {
		opt(&o)
	}

	literalSum := 0
	hasPattern := false
	for i, rule := range rules {
		if rule.isPattern() {
			hasPattern = true
			continue
		}
		if rule.Old == "" {
			return nil, errors.Errorf("rule %d: %w", i, ErrEmptyLiteral)
		}
		literalSum += len(rule.Old)
	}

	maxLen := o.maxLen
	if maxLen == 0 {
		if hasPattern {
			return nil, ErrNoMaxMatchLength
		}
		maxLen = literalSum
	}
	if maxLen <= 0 {
		return nil, ErrBadMaxLength
	}

	matchers := make([]matcher, 0, len(rules))
	descs := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule.isPattern() {
			matchers = append(matchers, patternMatcher(rule.Pattern, rule.Replace))
			descs = append(descs, rule.Pattern.String())
		} else {
			matchers = append(matchers, literalMatcher(rule.Old, rule.New))
			descs = append(descs, rule.Old)
		}
	}

	return &Spec{matchers: matchers, descs: descs, maxLen: maxLen}, nil
}

// 🏷️ Describe returns the sought texts, one per rule: the literal substring
// or the pattern source. Used in user-facing messages.
func (s *Spec) Describe() string {
	return strings.Join(s.descs, ", ")
}

// 📏 MaxMatchLength returns the compiled bound on a single match's length.
func (s *Spec) MaxMatchLength() int {
	return s.maxLen
}

// 🔍 Find tries the compiled matchers in rule order and returns the first
// rule's match, or nil when no rule matches. Priority order wins over
// textual earliness: a first-listed rule matching at offset 10 beats a
// second-listed rule matching at offset 2.
func (s *Spec) Find(buffer string) *Match {
	for _, m := range s.matchers {
		if found := m(buffer); found != nil {
			return found
		}
	}
	return nil
}

// literalMatcher matches an exact substring.
func literalMatcher(old, new string) matcher {
	return func(buffer string) *Match {
		idx := strings.Index(buffer, old)
		if idx < 0 {
			return nil
		}
		return &Match{
			Offset:      idx,
			Length:      len(old),
			Before:      buffer[:idx],
			After:       buffer[idx+len(old):],
			Replacement: func() string { return new },
		}
	}
}

// patternMatcher matches a compiled pattern against the whole buffer.
func patternMatcher(re *regexp.Regexp, replace func([]string) string) matcher {
	return func(buffer string) *Match {
		loc := re.FindStringSubmatchIndex(buffer)
		if loc == nil {
			return nil
		}
		start, end := loc[0], loc[1]
		// A zero-length match would leave the remaining text unchanged
		// and stall the drain loop.
		if start == end {
			return nil
		}
		return &Match{
			Offset: start,
			Length: end - start,
			Before: buffer[:start],
			After:  buffer[end:],
			Replacement: func() string {
				groups := make([]string, 0, len(loc)/2)
				for i := 0; i < len(loc); i += 2 {
					if loc[i] < 0 {
						groups = append(groups, "")
						continue
					}
					groups = append(groups, buffer[loc[i]:loc[i+1]])
				}
				return replace(groups)
			},
		}
	}
}
