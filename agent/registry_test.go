package agent

import (
	"errors"
	"strings"
	"testing"
)

func weatherTool() Tool {
	return Tool{
		Name:        "get_weather",
		Description: "Look up current weather for a city.",
		Params: []Param{
			{Name: "city", Type: TypeString, Description: "City name."},
			{Name: "units", Type: TypeString, Description: "metric or imperial.", Optional: true},
		},
		Fn: func(city, units string) string {
			if units == "" {
				units = "metric"
			}
			return "weather in " + city + " (" + units + "): sunny"
		},
	}
}

func TestRegisterAndDefinitions(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(weatherTool()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(Tool{
		Name:        "get_time",
		Description: "Current time.",
		Fn:          func() string { return "12:00" },
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "get_weather" || defs[1].Name != "get_time" {
		t.Errorf("expected registration order, got %s then %s", defs[0].Name, defs[1].Name)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(weatherTool()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.Register(weatherTool())
	var dup *DuplicateToolNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateToolNameError, got %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("expected registry unchanged, got %d tools", r.Count())
	}
}

func TestRegisterInvalidHandler(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Tool{
		Name:   "bad",
		Params: []Param{{Name: "a"}, {Name: "b"}},
		Fn:     func(a string) {},
	})
	if err == nil {
		t.Fatal("expected error for manifest/signature mismatch")
	}
	if r.Has("bad") {
		t.Error("failed registration must not add the tool")
	}
}

func TestSchemaDerivation(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Tool{
		Name:        "search",
		Description: "Search the corpus.\nLonger help text.",
		Params: []Param{
			{Name: "ctx"},
			{Name: "query", Type: TypeString, Description: "Search query."},
			{Name: "limit", Type: TypeInteger, Optional: true},
			{Name: "tags", Type: TypeArray, Optional: true},
			{Name: "exotic", Type: ParamType("uuid")},
		},
		Fn: func(ctx any, query string, limit int, tags []string, exotic string) string { return "" },
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	schema, ok := r.SchemaFor("search")
	if !ok {
		t.Fatal("expected schema for registered tool")
	}
	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}

	props := schema["properties"].(map[string]any)
	if _, ok := props["ctx"]; ok {
		t.Error("ctx must not appear in the schema")
	}
	if len(props) != 4 {
		t.Errorf("expected 4 properties, got %d", len(props))
	}

	query := props["query"].(map[string]any)
	if query["type"] != "string" || query["description"] != "Search query." {
		t.Errorf("unexpected query property: %v", query)
	}

	limit := props["limit"].(map[string]any)
	if limit["type"] != "integer" {
		t.Errorf("expected integer type, got %v", limit["type"])
	}
	// Params without their own description fall back to the tool summary.
	if limit["description"] != "Search the corpus." {
		t.Errorf("unexpected fallback description: %v", limit["description"])
	}

	if exotic := props["exotic"].(map[string]any); exotic["type"] != "string" {
		t.Errorf("unknown types must degrade to string, got %v", exotic["type"])
	}

	tags := props["tags"].(map[string]any)
	if tags["type"] != "array" {
		t.Errorf("expected array type, got %v", tags["type"])
	}

	required := schema["required"].([]string)
	if len(required) != 2 || required[0] != "query" || required[1] != "exotic" {
		t.Errorf("expected required [query exotic], got %v", required)
	}
}

func TestDispatch(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(weatherTool()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := r.Dispatch("get_weather", `{"city":"Lisbon"}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "weather in Lisbon (metric): sunny" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestDispatchNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch("missing", "{}", nil)
	var nf *ToolNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected ToolNotFoundError, got %v", err)
	}
}

func TestDispatchBadArguments(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(weatherTool()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := r.Dispatch("get_weather", `{"city":`, nil)
	var parse *ArgumentParseError
	if !errors.As(err, &parse) {
		t.Fatalf("expected ArgumentParseError, got %v", err)
	}
}

func TestDispatchEmptyArguments(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Tool{
		Name: "ping",
		Fn:   func() string { return "pong" },
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Providers sometimes send an empty payload for zero-arg tools.
	result, err := r.Dispatch("ping", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "pong" {
		t.Errorf("expected pong, got %q", result)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("backend unavailable")
	if err := r.Register(Tool{
		Name: "flaky",
		Fn:   func() (string, error) { return "", boom },
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := r.Dispatch("flaky", "{}", nil)
	var exec *ToolExecutionError
	if !errors.As(err, &exec) {
		t.Fatalf("expected ToolExecutionError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("expected wrapped handler error")
	}
}

func TestDispatchContextInjection(t *testing.T) {
	type deps struct{ userID string }
	r := NewRegistry()
	if err := r.Register(Tool{
		Name:   "whoami",
		Params: []Param{{Name: "ctx"}},
		Fn: func(ctx *deps) string {
			if ctx == nil {
				return "anonymous"
			}
			return ctx.userID
		},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := r.Dispatch("whoami", "{}", &deps{userID: "u-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "u-1" {
		t.Errorf("expected u-1, got %q", result)
	}

	// No context value supplied: ctx arrives as its zero value.
	result, err = r.Dispatch("whoami", "{}", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "anonymous" {
		t.Errorf("expected anonymous, got %q", result)
	}
}

func TestStringifyResult(t *testing.T) {
	if got := stringifyResult("plain"); got != "plain" {
		t.Errorf("expected plain, got %q", got)
	}
	if got := stringifyResult(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	got := stringifyResult(map[string]any{"count": 3})
	if !strings.Contains(got, `"count":3`) {
		t.Errorf("expected JSON encoding, got %q", got)
	}
}
