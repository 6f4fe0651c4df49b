package biz

import (
	"os"
	"testing"
	"time"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func testRegistry() *BreakerRegistry {
	return NewBreakerRegistry(&conf.Breaker{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenDuration:     durationpb.New(30 * time.Second),
		Timeout:          durationpb.New(5 * time.Second),
	}, log.NewStdLogger(os.Stdout))
}

func TestRegistry_CapabilityKeysShareOneProviderBreaker(t *testing.T) {
	r := testRegistry()

	stream := r.Get("stream-gemini")
	supervisor := r.Get("supervisor-gemini")
	bare := r.Get("gemini")

	assert.Same(t, stream, supervisor)
	assert.Same(t, stream, bare)

	// Failures from both call sites accumulate in the shared detector.
	_ = failOnce(stream)
	_ = failOnce(supervisor)
	_ = failOnce(bare)
	assert.Equal(t, model.CircuitOpen, stream.Stats().State)
}

func TestRegistry_DistinctProvidersGetDistinctBreakers(t *testing.T) {
	r := testRegistry()

	assert.NotSame(t, r.Get("stream-gemini"), r.Get("stream-claude"))
	assert.NotSame(t, r.Get("gemini"), r.Get("openrouter"))
}

func TestRegistry_UnknownSuffixKeepsItsOwnBreaker(t *testing.T) {
	r := testRegistry()

	custom := r.Get("batch-embedder")
	assert.NotSame(t, custom, r.Get("gemini"))
	assert.Same(t, custom, r.Get("batch-embedder"))
}

func TestNormalizeBreakerName(t *testing.T) {
	cases := map[string]string{
		"gemini":             "gemini",
		"stream-gemini":      "gemini",
		"Supervisor-Claude":  "claude",
		"advisor-openrouter": "openrouter",
		"  tavily ":          "tavily",
		"batch-embedder":     "batch-embedder",
		"gemini-extra":       "gemini-extra",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeBreakerName(in), "input %q", in)
	}
}

func TestRegistry_AllStatsSortedByName(t *testing.T) {
	r := testRegistry()
	r.Get("stream-gemini")
	r.Get("advisor-claude")
	r.Get("openrouter")

	stats := r.AllStats()
	require.Len(t, stats, 3)
	assert.Equal(t, "claude", stats[0].Name)
	assert.Equal(t, "gemini", stats[1].Name)
	assert.Equal(t, "openrouter", stats[2].Name)
}

func TestRegistry_ResetAllClosesEverything(t *testing.T) {
	r := testRegistry()
	gemini := r.Get("gemini")
	claude := r.Get("claude")
	for i := 0; i < 3; i++ {
		_ = failOnce(gemini)
		_ = failOnce(claude)
	}

	assert.Equal(t, 2, r.ResetAll())
	assert.Equal(t, model.CircuitClosed, gemini.Stats().State)
	assert.Equal(t, model.CircuitClosed, claude.Stats().State)
}
