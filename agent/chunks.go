package agent

// ChunkType classifies a unit of run output.
type ChunkType string

const (
	// ChunkReasoning carries an increment of model reasoning text.
	ChunkReasoning ChunkType = "reasoning"

	// ChunkResponse carries an increment of the model's answer text.
	ChunkResponse ChunkType = "response"

	// ChunkToolCall announces a tool invocation about to be dispatched.
	ChunkToolCall ChunkType = "tool_call"

	// ChunkToolResult carries the textual outcome of a tool invocation.
	ChunkToolResult ChunkType = "tool_result"

	// ChunkError reports a failure. Terminal when the run aborted;
	// hook failures produce non-terminal error chunks.
	ChunkError ChunkType = "error"
)

// Chunk is one unit of streamed run output. Chunks arrive in the order the
// underlying events occurred.
type Chunk struct {
	Type     ChunkType
	Origin   string
	Content  string
	Metadata map[string]any
}
