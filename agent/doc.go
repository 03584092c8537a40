// Package agent implements a streaming tool-calling agent loop.
//
// An Agent pairs a language model with a registry of callable tools and a set
// of lifecycle hooks. Each run drives the turn loop: compose the system
// prompt, call the model, interpret the streamed response, dispatch any
// requested tools, feed results back, and repeat until the model answers
// without tool calls or the step bound is reached. Output is delivered as a
// lazy channel of typed chunks (reasoning, response, tool_call, tool_result,
// error) in provider order.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Agent: process-lifetime configuration (tools, hooks, skills, prompt,
//     and the llmwire client). Immutable once runs are in flight.
//   - Run: one execution of the loop, owning its conversation and step
//     counter. Independent runs may execute concurrently.
//   - Registry: tool registration, schema derivation from parameter
//     manifests, and dispatch with textual error conversion.
//   - Binding / dependency resolution: handlers declare their parameters by
//     name; each invocation receives exactly the declared subset of the
//     available named values (parsed arguments, the caller's context value,
//     event metadata).
//   - Hooks: ordered listeners on fixed lifecycle events; system-prompt
//     hooks contribute prompt fragments, all others are side-effect only.
//   - Skills: named instruction packages surfaced to the model through one
//     synthetic "skill" tool.
//
// # Quick Start
//
//	a := agent.New("researcher", "gpt-4o-mini", "You are terse.", nil)
//	a.SetClient(llmwire.NewClientFromEnv())
//	if err := a.RegisterTool(weatherTool); err != nil {
//	    log.Fatal(err)
//	}
//
//	run := a.RunStream(ctx, "What's the weather in Lisbon?")
//	for chunk := range run.Chunks() {
//	    fmt.Print(chunk.Content)
//	}
package agent
