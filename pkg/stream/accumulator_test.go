package stream

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/devrig/pkg/filter"
)

func mustSpec(t *testing.T, rules []filter.Rule, opts ...filter.Option) *filter.Spec {
	t.Helper()
	spec, err := filter.Compile(rules, opts...)
	require.NoError(t, err)
	return spec
}

// feed writes the input split into the given chunks, then flushes.
func feed(t *testing.T, acc *Accumulator, chunks []string) {
	t.Helper()
	for _, c := range chunks {
		_, err := acc.Write([]byte(c))
		require.NoError(t, err)
	}
	require.NoError(t, acc.Flush())
}

func TestAccumulator_ScenarioA(t *testing.T) {
	spec := mustSpec(t, []filter.Rule{{Old: "foo", New: "bar"}}, filter.WithMaxMatchLength(3))

	var out strings.Builder
	var events []Event
	acc, err := New(spec, &out, func(ev Event) { events = append(events, ev) }, DrainAll)
	require.NoError(t, err)

	feed(t, acc, []string{"fo", "o baz"})

	assert.Equal(t, "bar baz", out.String())
	require.Len(t, events, 2)
	assert.Equal(t, EventMatch, events[0].Kind)
	assert.Equal(t, 0, events[0].Position)
	assert.Equal(t, 3, events[0].Length)
	assert.Equal(t, EventFlush, events[1].Kind)
	assert.Equal(t, 7, events[1].TotalRead)
}

func TestAccumulator_ScenarioB(t *testing.T) {
	spec := mustSpec(t, []filter.Rule{{
		Pattern: regexp.MustCompile(`id=(\d+)`),
		Replace: func(groups []string) string {
			n, _ := strconv.Atoi(groups[1])
			return "id=" + strconv.Itoa(n+1)
		},
	}}, filter.WithMaxMatchLength(20))

	var out strings.Builder
	acc, err := New(spec, &out, nil, DrainAll)
	require.NoError(t, err)

	feed(t, acc, []string{"id=41 end"})

	assert.Equal(t, "id=42 end", out.String())
}

// splitEvery cuts s into chunks of at most n bytes.
func splitEvery(s string, n int) []string {
	var chunks []string
	for len(s) > n {
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return append(chunks, s)
}

func TestAccumulator_ChunkSizeInvariance(t *testing.T) {
	input := "one foo two foo three " + strings.Repeat("filler ", 40) + "foo four id=7 end"
	rules := []filter.Rule{
		{Old: "foo", New: "BAR"},
		{Pattern: regexp.MustCompile(`id=(\d+)`), Replace: func(g []string) string { return "id=" + g[1] + "0" }},
	}

	run := func(chunks []string) string {
		spec := mustSpec(t, rules, filter.WithMaxMatchLength(12))
		var out strings.Builder
		acc, err := New(spec, &out, nil, DrainAll)
		require.NoError(t, err)
		feed(t, acc, chunks)
		return out.String()
	}

	want := run([]string{input})
	for _, size := range []int{1, 2, 3, 5, 7, 64, 1024} {
		got := run(splitEvery(input, size))
		assert.Equal(t, want, got, "chunk size %d changed the output", size)
	}
}

func TestAccumulator_NoOpIdempotence(t *testing.T) {
	input := "alpha beta alpha gamma alpha"
	spec := mustSpec(t, []filter.Rule{{Old: "alpha", New: "alpha"}})

	for _, size := range []int{1, 4, len(input)} {
		var out strings.Builder
		acc, err := New(spec, &out, nil, DrainAll)
		require.NoError(t, err)
		feed(t, acc, splitEvery(input, size))
		assert.Equal(t, input, out.String(), "chunk size %d", size)
	}
}

func TestAccumulator_BoundarySpanningMatch(t *testing.T) {
	// The match is split across three chunks; it must be found exactly
	// once and replaced correctly.
	spec := mustSpec(t, []filter.Rule{{Old: "needle", New: "FOUND"}}, filter.WithMaxMatchLength(6))

	var out strings.Builder
	matchEvents := 0
	acc, err := New(spec, &out, func(ev Event) {
		if ev.Kind == EventMatch {
			matchEvents++
		}
	}, DrainAll)
	require.NoError(t, err)

	feed(t, acc, []string{"hay nee", "dl", "e stack"})

	assert.Equal(t, "hay FOUND stack", out.String())
	assert.Equal(t, 1, matchEvents)
}

func TestAccumulator_PriorityOverEarliness(t *testing.T) {
	// The second-listed rule occurs earlier in the text; the first-listed
	// rule's later match must be the one replaced.
	spec := mustSpec(t, []filter.Rule{
		{Old: "zz", New: "Z!"},
		{Old: "aa", New: "A!"},
	})

	var out strings.Builder
	acc, err := New(spec, &out, nil, DrainAll)
	require.NoError(t, err)
	feed(t, acc, []string{"aa zz"})

	assert.Equal(t, "aa Z!", out.String(), "leftmost-match semantics would have produced \"A! zz\" first")
}

func TestAccumulator_BoundedBuffer(t *testing.T) {
	const maxLen = 8
	spec := mustSpec(t, []filter.Rule{{Old: "never-present-in-input-stream", New: "x"}}, filter.WithMaxMatchLength(maxLen))

	var out strings.Builder
	acc, err := New(spec, &out, nil, DrainAll)
	require.NoError(t, err)

	input := strings.Repeat("abcdefghij", 100)
	for _, c := range splitEvery(input, 13) {
		_, err := acc.Write([]byte(c))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(acc.buffer), 2*maxLen, "retained buffer exceeded the bound")
	}
	require.NoError(t, acc.Flush())
	assert.Equal(t, input, out.String())
}

func TestAccumulator_DrainsAllVisibleMatches(t *testing.T) {
	spec := mustSpec(t, []filter.Rule{{Old: "ab", New: "X"}})

	var out strings.Builder
	matchEvents := 0
	acc, err := New(spec, &out, func(ev Event) {
		if ev.Kind == EventMatch {
			matchEvents++
		}
	}, DrainAll)
	require.NoError(t, err)

	feed(t, acc, []string{"ab ab ab"})

	assert.Equal(t, "X X X", out.String())
	assert.Equal(t, 3, matchEvents)
}

func TestAccumulator_ReplacementNotRescanned(t *testing.T) {
	// The replacement text itself contains the sought substring; scanning
	// resumes after the match, so it must not be replaced again.
	spec := mustSpec(t, []filter.Rule{{Old: "ab", New: "ab!"}})

	var out strings.Builder
	acc, err := New(spec, &out, nil, DrainAll)
	require.NoError(t, err)
	feed(t, acc, []string{"ab cd"})

	assert.Equal(t, "ab! cd", out.String())
}

func TestAccumulator_StopAfterFirstMatch(t *testing.T) {
	spec := mustSpec(t, []filter.Rule{{Old: "ready", New: "ready"}})

	var out strings.Builder
	matchEvents := 0
	acc, err := New(spec, &out, func(ev Event) {
		if ev.Kind == EventMatch {
			matchEvents++
		}
	}, StopAfterFirstMatch)
	require.NoError(t, err)

	_, err = acc.Write([]byte("boot ready steady ready go"))
	require.NoError(t, err)
	assert.True(t, acc.Stopped())
	assert.Equal(t, 1, matchEvents)

	// Further input is ignored once stopped.
	_, err = acc.Write([]byte(" ready again"))
	require.NoError(t, err)
	assert.Equal(t, 1, matchEvents)
}

func TestAccumulator_FlushEmptyStream(t *testing.T) {
	spec := mustSpec(t, []filter.Rule{{Old: "x", New: "y"}})

	var out strings.Builder
	var events []Event
	acc, err := New(spec, &out, func(ev Event) { events = append(events, ev) }, DrainAll)
	require.NoError(t, err)
	require.NoError(t, acc.Flush())

	assert.Equal(t, "", out.String())
	require.Len(t, events, 1)
	assert.Equal(t, EventFlush, events[0].Kind)
	assert.Equal(t, 0, events[0].TotalRead)
}
