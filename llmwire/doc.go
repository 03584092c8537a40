// Package llmwire is the transport boundary between the agent engine and
// language-model providers. It defines the wire-level message model, a
// provider-agnostic streaming client, and adapters for concrete backends.
//
// The package deals only in streams: a provider call yields a channel of
// StreamEvent values tagged as reasoning text, response text, or partial
// tool-call data, terminated by a finish or error event. Reassembling
// tool-call fragments and interpreting the stream is the engine's job;
// llmwire guarantees only that fragments for one call carry a stable key
// (item ID or index) and arrive in provider order.
//
// # Adapters
//
//   - OpenAIStreamer: true incremental streaming over the OpenAI
//     Responses API (also serves OpenAI-compatible endpoints via base URL).
//   - GollmStreamer: wraps a gollm.LLM; providers without token streaming
//     fall back to a single-delta stream built from a blocking completion.
//
// Retry with exponential backoff applies to establishing a stream, never to
// a stream already in progress.
package llmwire
