package agent

import (
	"io"
	"log/slog"

	"github.com/martinemde/orchid/llmwire"
)

// Config carries tunable agent settings. Zero fields fall back to the
// defaults in DefaultConfig.
type Config struct {
	// MaxSteps bounds model calls per run. A run that reaches the bound
	// without a final answer ends with a terminal error chunk.
	MaxSteps int

	// Temperature, TopP and MaxTokens are forwarded to the provider when
	// set.
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	// ReasoningEffort requests a reasoning budget ("low", "medium",
	// "high") on providers that support it.
	ReasoningEffort string

	// ChunkBuffer is the capacity of each run's chunk channel.
	ChunkBuffer int

	// Logger receives structured diagnostics. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	temp := 0.2
	return Config{
		MaxSteps:    30,
		Temperature: &temp,
		ChunkBuffer: 64,
		Logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxSteps <= 0 {
		c.MaxSteps = d.MaxSteps
	}
	if c.ChunkBuffer <= 0 {
		c.ChunkBuffer = d.ChunkBuffer
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

// RunOption adjusts a single run without touching agent configuration.
type RunOption func(*runOptions)

type runOptions struct {
	history  []llmwire.Message
	dep      any
	maxSteps int
}

// WithHistory seeds the run's conversation with prior non-system messages,
// enabling multi-turn continuity across runs.
func WithHistory(messages []llmwire.Message) RunOption {
	return func(o *runOptions) {
		o.history = append(o.history, messages...)
	}
}

// WithContextValue supplies the opaque value injected into tools and hooks
// that declare the ctx parameter.
func WithContextValue(dep any) RunOption {
	return func(o *runOptions) {
		o.dep = dep
	}
}

// WithMaxSteps overrides the agent's step bound for this run.
func WithMaxSteps(n int) RunOption {
	return func(o *runOptions) {
		o.maxSteps = n
	}
}
