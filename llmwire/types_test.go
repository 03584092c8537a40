package llmwire

import "testing"

func TestMessageConstructors(t *testing.T) {
	m := ToolResultMessage("call_1", "get_weather", "sunny")
	if m.Role != RoleTool || m.ToolCallID != "call_1" || m.Name != "get_weather" || m.Content != "sunny" {
		t.Errorf("unexpected tool result message: %+v", m)
	}

	if SystemMessage("s").Role != RoleSystem {
		t.Error("expected system role")
	}
	if UserMessage("u").Role != RoleUser {
		t.Error("expected user role")
	}
	if AssistantMessage("a").Role != RoleAssistant {
		t.Error("expected assistant role")
	}
}

func TestFragmentKey(t *testing.T) {
	withID := ToolCallFragment{Index: 2, ID: "call_abc"}
	if withID.Key() != "call_abc" {
		t.Errorf("expected ID key, got %q", withID.Key())
	}

	withoutID := ToolCallFragment{Index: 2}
	if withoutID.Key() != "idx_2" {
		t.Errorf("expected index key, got %q", withoutID.Key())
	}
}

func TestParseEmbeddedToolCalls(t *testing.T) {
	text := `Let me check. [{"name": "get_weather", "arguments": {"city": "Lisbon"}}]`

	calls := parseEmbeddedToolCalls(text)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Name != "get_weather" {
		t.Errorf("expected get_weather, got %q", calls[0].Name)
	}
	if calls[0].ID == "" {
		t.Error("expected generated call ID")
	}

	cleaned := stripEmbeddedToolCalls(text, calls)
	if cleaned != "Let me check." {
		t.Errorf("unexpected cleaned text: %q", cleaned)
	}

	if got := parseEmbeddedToolCalls("no calls here"); got != nil {
		t.Errorf("expected nil for plain text, got %v", got)
	}
}
