package agent

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/martinemde/orchid/llmwire"
)

// Agent is the process-lifetime configuration for a tool-calling loop: a
// model, a tool registry, hooks, skills, and the wire client. Configure it
// fully before starting runs; runs themselves are independent and may
// execute concurrently.
type Agent struct {
	name         string
	model        string
	provider     string
	systemPrompt string

	registry *Registry
	hooks    *hookSet
	client   *llmwire.Client
	config   Config
	logger   *slog.Logger

	mu     sync.RWMutex
	skills map[string]Skill
}

// New creates an agent. name labels chunk origins, model is the provider
// model identifier, systemPrompt is the static base of every run's system
// message. Pass nil config for defaults.
func New(name, model, systemPrompt string, config *Config) *Agent {
	cfg := DefaultConfig()
	if config != nil {
		cfg = config.withDefaults()
	}
	return &Agent{
		name:         name,
		model:        model,
		systemPrompt: systemPrompt,
		registry:     NewRegistry(),
		hooks:        newHookSet(),
		config:       cfg,
		logger:       cfg.Logger.With("agent", name),
		skills:       make(map[string]Skill),
	}
}

// Name returns the agent's label.
func (a *Agent) Name() string { return a.name }

// Registry exposes the agent's tool registry.
func (a *Agent) Registry() *Registry { return a.registry }

// SetClient installs the wire client used for model calls.
func (a *Agent) SetClient(c *llmwire.Client) { a.client = c }

// SetProvider pins runs to a named provider instead of the client default.
func (a *Agent) SetProvider(provider string) { a.provider = provider }

// RegisterTool adds a tool to the registry. The synthetic skill tool's name
// is reserved once skills are present.
func (a *Agent) RegisterTool(t Tool) error {
	if t.Name == SkillToolName && a.skillCount() > 0 {
		return &DuplicateToolNameError{Name: t.Name}
	}
	return a.registry.Register(t)
}

// RegisterHook attaches a listener to a lifecycle event. paramNames declares,
// in order, which pool values the listener's parameters receive; the pool
// holds ContextParam and MetadataParam.
func (a *Agent) RegisterHook(kind HookKind, fn any, paramNames ...string) error {
	switch kind {
	case HookPromptSubmitted, HookStepStarted, HookToolCallStarting,
		HookToolCallCompleted, HookFinalAnswer, HookSystemPrompt:
	default:
		return fmt.Errorf("unknown hook kind %q", kind)
	}

	bindings := make([]Binding, len(paramNames))
	for i, name := range paramNames {
		bindings[i] = Binding{Name: name}
	}
	if err := a.hooks.add(kind, fn, bindings); err != nil {
		return fmt.Errorf("hook %s: %w", kind, err)
	}
	return nil
}

// AddSkills adds skills to the catalog. Duplicate skill names fail; the
// first added skill reserves the synthetic tool name.
func (a *Agent) AddSkills(skills ...Skill) error {
	if len(skills) > 0 && a.registry.Has(SkillToolName) {
		return &DuplicateToolNameError{Name: SkillToolName}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range skills {
		if s.Name == "" {
			return fmt.Errorf("skill name must not be empty")
		}
		if _, exists := a.skills[s.Name]; exists {
			return fmt.Errorf("skill %q is already in the catalog", s.Name)
		}
		a.skills[s.Name] = s
	}
	return nil
}

// Skills returns the names of cataloged skills.
func (a *Agent) Skills() []string {
	return skillNames(a.skillCatalog())
}

func (a *Agent) skillCatalog() map[string]Skill {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]Skill, len(a.skills))
	for k, v := range a.skills {
		out[k] = v
	}
	return out
}

func (a *Agent) skillCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.skills)
}

// toolDefinitions returns the registry's definitions plus, when the catalog
// is non-empty, the synthetic skill tool.
func (a *Agent) toolDefinitions() []llmwire.ToolDefinition {
	defs := a.registry.Definitions()
	if catalog := a.skillCatalog(); len(catalog) > 0 {
		t := skillTool(catalog)
		defs = append(defs, llmwire.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schemaFor(t),
		})
	}
	return defs
}

// dispatch routes a model-requested invocation to the registry or the
// synthetic skill tool.
func (a *Agent) dispatch(name, rawArgs string, contextValue any) (string, error) {
	if a.registry.Has(name) {
		return a.registry.Dispatch(name, rawArgs, contextValue)
	}

	if name == SkillToolName {
		if catalog := a.skillCatalog(); len(catalog) > 0 {
			var args struct {
				SkillName string `json:"skill_name"`
			}
			if rawArgs != "" {
				if err := json.UnmarshalFromString(rawArgs, &args); err != nil {
					return "", &ArgumentParseError{Tool: name, Cause: err}
				}
			}
			return loadSkill(catalog, args.SkillName), nil
		}
	}

	return "", &ToolNotFoundError{Name: name}
}
