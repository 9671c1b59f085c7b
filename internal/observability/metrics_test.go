package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFragment(t *testing.T) {
	m := NewMetrics()
	m.RecordFragment("openai", 2)
	m.RecordFragment("openai", 1)
	m.RecordFragment("anthropic", 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fragments.WithLabelValues("openai")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.responseBytes.WithLabelValues("openai")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.responseBytes.WithLabelValues("anthropic")))
}

func TestRecordInvocation(t *testing.T) {
	m := NewMetrics()
	m.RecordInvocation("openai", "pass", 150*time.Millisecond)
	m.RecordInvocation("openai", "fail", time.Second)
	m.RecordInvocation("openai", "pass", 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invocations.WithLabelValues("openai", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("openai", "fail")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetricsAreIsolated(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.RecordFragment("openai", 1)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.fragments.WithLabelValues("openai")))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordFragment("openai", 3)
	m.RecordFragment("openai", 4)
	m.RecordInvocation("openai", "pass", time.Second)

	path := filepath.Join(t.TempDir(), "pipellm.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	for _, want := range []string{
		`pipellm_fragments_total{provider="openai"} 2`,
		`pipellm_response_bytes_total{provider="openai"} 7`,
		`pipellm_invocations_total{outcome="pass",provider="openai"} 1`,
		`pipellm_invocation_duration_seconds_count{provider="openai"} 1`,
	} {
		assert.True(t, strings.Contains(text, want), "missing %q in:\n%s", want, text)
	}
}
