// Package report holds the JSON schema shared by the bench, which writes
// sessions, and buildGraph, which plots them.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// BenchmarkResult holds results for one test run.
type BenchmarkResult struct {
	Implementation      string  `json:"implementation"`
	NumProducers        int     `json:"num_producers"`
	NumConsumers        int     `json:"num_consumers"`
	MaxBatch            int     `json:"max_batch"`
	Capacity            uint64  `json:"capacity"`
	NumMessages         int64   `json:"num_messages"`          // accepted by Enqueue
	NumMessagesConsumed int64   `json:"num_messages_consumed"` // returned by Dequeue
	NumMessagesDropped  int64   `json:"num_messages_dropped"`  // refused because the buffer was full
	TestDuration        string  `json:"test_duration"`         // e.g. "10s"
	ActualElapsed       string  `json:"actual_elapsed"`        // measured time
	Throughput          float64 `json:"throughput_msgs_sec"`   // based on consumed count
	Verified            bool    `json:"verified,omitempty"`    // counted integrity run passed
	Timestamp           int64   `json:"timestamp"`
	GoVersion           string  `json:"go_version"`
}

// DropRate is the share of offered elements that were refused.
func (b BenchmarkResult) DropRate() float64 {
	offered := b.NumMessages + b.NumMessagesDropped
	if offered == 0 {
		return 0
	}
	return float64(b.NumMessagesDropped) / float64(offered)
}

// SystemInfo holds system information.
type SystemInfo struct {
	NumCPU            int     `json:"num_cpu"`
	TrueCPU           int     `json:"true_cpu,omitempty"`
	SimulatedCPUCount int     `json:"simulated_cpu_count,omitempty"`
	CPUModel          string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz       float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH            string  `json:"go_arch"`
	TotalMemory       uint64  `json:"total_memory_bytes,omitempty"`
}

// CPUs is the GOMAXPROCS value the session ran with.
func (s SystemInfo) CPUs() int {
	if s.SimulatedCPUCount != 0 {
		return s.SimulatedCPUCount
	}
	return s.NumCPU
}

// FullReport represents a complete test session.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// Load reads every session stored in path.
func Load(path string) ([]FullReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: reading %q: %w", path, err)
	}
	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("report: unmarshalling %q: %w", path, err)
	}
	return sessions, nil
}

// Append adds sessions to the ones already stored in path, creating the file
// if it does not exist yet.
func Append(path string, sessions ...FullReport) error {
	previous, err := Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	data, err := json.MarshalIndent(append(previous, sessions...), "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshalling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: writing %q: %w", path, err)
	}
	return nil
}
