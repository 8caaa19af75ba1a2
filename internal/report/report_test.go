package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendKeepsPreviousSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")

	first := FullReport{SessionTime: "a", Benchmarks: []BenchmarkResult{{Implementation: "x", NumMessages: 1}}}
	second := FullReport{SessionTime: "b"}

	require.NoError(t, Append(path, first))
	require.NoError(t, Append(path, second))

	sessions, err := Load(path)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].SessionTime)
	assert.Equal(t, "x", sessions[0].Benchmarks[0].Implementation)
	assert.Equal(t, "b", sessions[1].SessionTime)
}

func TestAppendRefusesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Error(t, Append(path, FullReport{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "corrupt file must be left alone")
}

func TestDropRate(t *testing.T) {
	assert.Zero(t, BenchmarkResult{}.DropRate())
	assert.InDelta(t, 0.25, BenchmarkResult{NumMessages: 3, NumMessagesDropped: 1}.DropRate(), 1e-9)
}

func TestCPUs(t *testing.T) {
	assert.Equal(t, 4, SystemInfo{NumCPU: 4}.CPUs())
	assert.Equal(t, 2, SystemInfo{NumCPU: 4, SimulatedCPUCount: 2}.CPUs())
}
