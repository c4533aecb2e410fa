package filter

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule
		opts    []Option
		wantErr error
	}{
		{
			name:    "empty_rule_list",
			rules:   nil,
			wantErr: ErrNoRules,
		},
		{
			name:    "empty_literal_substring",
			rules:   []Rule{{Old: "", New: "x"}},
			wantErr: ErrEmptyLiteral,
		},
		{
			name:    "pattern_without_max_match_length",
			rules:   []Rule{{Pattern: regexp.MustCompile(`\d+`), Replace: func(g []string) string { return g[0] }}},
			wantErr: ErrNoMaxMatchLength,
		},
		{
			name:    "negative_max_match_length",
			rules:   []Rule{{Old: "a", New: "b"}},
			opts:    []Option{WithMaxMatchLength(-1)},
			wantErr: ErrBadMaxLength,
		},
		{
			name:  "pure_literals_need_no_bound",
			rules: []Rule{{Old: "foo", New: "bar"}},
		},
		{
			name:  "pattern_with_bound",
			rules: []Rule{{Pattern: regexp.MustCompile(`\d+`), Replace: func(g []string) string { return g[0] }}},
			opts:  []Option{WithMaxMatchLength(10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Compile(tt.rules, tt.opts...)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, spec)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, spec)
		})
	}
}

func TestCompile_DerivesLiteralBound(t *testing.T) {
	spec, err := Compile([]Rule{
		{Old: "foo", New: "bar"},
		{Old: "quux", New: "q"},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, spec.MaxMatchLength(), "pure-literal bound is the sum of substring lengths")
}

func TestFind_PriorityBeatsEarliness(t *testing.T) {
	// The second-listed rule matches earlier in the text, but the
	// first-listed rule wins anyway.
	spec, err := Compile([]Rule{
		{Old: "zz", New: "Z"},
		{Old: "aa", New: "A"},
	})
	require.NoError(t, err)

	m := spec.Find("aa zz")
	require.NotNil(t, m)
	assert.Equal(t, 3, m.Offset)
	assert.Equal(t, 2, m.Length)
	assert.Equal(t, "aa ", m.Before)
	assert.Equal(t, "", m.After)
	assert.Equal(t, "Z", m.Replacement())
}

func TestFind_LiteralMatch(t *testing.T) {
	spec, err := Compile([]Rule{{Old: "foo", New: "bar"}})
	require.NoError(t, err)

	tests := []struct {
		name       string
		buffer     string
		wantOffset int
		wantBefore string
		wantAfter  string
	}{
		{name: "at_start", buffer: "foo baz", wantOffset: 0, wantBefore: "", wantAfter: " baz"},
		{name: "in_middle", buffer: "a foo b", wantOffset: 2, wantBefore: "a ", wantAfter: " b"},
		{name: "at_end", buffer: "ab foo", wantOffset: 3, wantBefore: "ab ", wantAfter: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := spec.Find(tt.buffer)
			require.NotNil(t, m)
			assert.Equal(t, tt.wantOffset, m.Offset)
			assert.Equal(t, 3, m.Length)
			assert.Equal(t, tt.wantBefore, m.Before)
			assert.Equal(t, tt.wantAfter, m.After)
			assert.Equal(t, "bar", m.Replacement())
		})
	}

	assert.Nil(t, spec.Find("no match here"))
}

func TestFind_PatternGroups(t *testing.T) {
	spec, err := Compile([]Rule{{
		Pattern: regexp.MustCompile(`id=(\d+)`),
		Replace: func(groups []string) string {
			n, _ := strconv.Atoi(groups[1])
			return "id=" + strconv.Itoa(n+1)
		},
	}}, WithMaxMatchLength(20))
	require.NoError(t, err)

	m := spec.Find("id=41 end")
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Offset)
	assert.Equal(t, 5, m.Length)
	assert.Equal(t, " end", m.After)
	assert.Equal(t, "id=42", m.Replacement())
}

func TestFind_PatternIsStateless(t *testing.T) {
	// The same compiled spec must give identical results for repeated
	// calls and for unrelated buffers; no cursor may survive a call.
	spec, err := Compile([]Rule{{
		Pattern: regexp.MustCompile(`\d+`),
		Replace: func(groups []string) string { return "N" },
	}}, WithMaxMatchLength(10))
	require.NoError(t, err)

	first := spec.Find("a 12 b")
	require.NotNil(t, first)
	second := spec.Find("a 12 b")
	require.NotNil(t, second)
	assert.Equal(t, first.Offset, second.Offset)

	other := spec.Find("9")
	require.NotNil(t, other)
	assert.Equal(t, 0, other.Offset)
}

func TestFind_LazyReplacement(t *testing.T) {
	calls := 0
	spec, err := Compile([]Rule{{
		Pattern: regexp.MustCompile(`x`),
		Replace: func(groups []string) string {
			calls++
			return "y"
		},
	}}, WithMaxMatchLength(1))
	require.NoError(t, err)

	m := spec.Find("x")
	require.NotNil(t, m)
	assert.Equal(t, 0, calls, "replacement must not run until consumed")
	assert.Equal(t, "y", m.Replacement())
	assert.Equal(t, 1, calls)
}

func TestDescribe(t *testing.T) {
	spec, err := Compile([]Rule{
		{Old: "ready", New: "ready"},
		{Pattern: regexp.MustCompile(`port \d+`), Replace: func(g []string) string { return g[0] }},
	}, WithMaxMatchLength(16))
	require.NoError(t, err)
	assert.Equal(t, `ready, port \d+`, spec.Describe())
}
