// Package config loads the bench plan: which buffer capacity to test, for how
// long, and under which producer/consumer mixes.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/i5heu/GoRingBuffer/internal/pow2"
	"github.com/i5heu/GoRingBuffer/internal/testbench"
	"gopkg.in/yaml.v3"
)

// Config is an alias for testbench.Config. This allows other programs to import
// the concurrency configuration without pulling in the entire testbench package.
type Config = testbench.Config

var ErrInvalidPlan = errors.New("config: invalid bench plan")

// Plan is the full bench configuration. A YAML file only needs the fields it
// wants to change; the rest keep the values from Default.
type Plan struct {
	Capacity    uint64        `yaml:"capacity"`
	Duration    time.Duration `yaml:"duration"`
	Iterations  int           `yaml:"iterations"`
	VerifyItems int           `yaml:"verify_items"`
	Concurrency []Config      `yaml:"concurrency"`
}

// Default returns the plan used when no file is given.
func Default() Plan {
	return Plan{
		Capacity:    1024,
		Duration:    5 * time.Second,
		Iterations:  5,
		VerifyItems: 100000,
		Concurrency: []Config{
			{NumProducers: 1, NumConsumers: 1, MaxBatch: 64},
			{NumProducers: 2, NumConsumers: 2, MaxBatch: 32},
			{NumProducers: 10, NumConsumers: 10, MaxBatch: 16},
			{NumProducers: 50, NumConsumers: 50, MaxBatch: 8},
		},
	}
}

// HighConcurrency is appended to the plan by the bench's -high-concurrency flag.
func HighConcurrency() []Config {
	return []Config{
		{NumProducers: 100, NumConsumers: 100, MaxBatch: 8},
		{NumProducers: 250, NumConsumers: 250, MaxBatch: 4},
		{NumProducers: 500, NumConsumers: 500, MaxBatch: 1},
	}
}

// Load reads a YAML plan from path on top of Default and validates it.
func Load(path string) (Plan, error) {
	plan := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("config: reading %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return plan, err
	}
	return plan, nil
}

// Validate reports the first problem that would make the plan unusable.
func (p Plan) Validate() error {
	if p.Capacity < 2 || !pow2.IsPowerOfTwo(p.Capacity) {
		return fmt.Errorf("%w: capacity %d is not a power of two >= 2", ErrInvalidPlan, p.Capacity)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidPlan, p.Duration)
	}
	if p.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidPlan, p.Iterations)
	}
	if p.VerifyItems < 0 {
		return fmt.Errorf("%w: verify_items must not be negative, got %d", ErrInvalidPlan, p.VerifyItems)
	}
	if len(p.Concurrency) == 0 {
		return fmt.Errorf("%w: no concurrency configurations", ErrInvalidPlan)
	}
	for i, c := range p.Concurrency {
		if c.NumProducers < 1 || c.NumConsumers < 1 || c.MaxBatch < 1 {
			return fmt.Errorf("%w: concurrency[%d] needs positive producers, consumers and max_batch: %+v",
				ErrInvalidPlan, i, c)
		}
	}
	return nil
}
