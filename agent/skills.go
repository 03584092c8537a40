package agent

import (
	"fmt"
	"sort"
	"strings"
)

// Skill is a named package of instructions the model can pull in on demand.
// Skills are advertised through one synthetic tool rather than occupying the
// system prompt.
type Skill struct {
	Name          string
	Description   string
	Body          string
	ResourcePaths []string
}

// SkillToolName is the name of the synthetic tool that loads skills.
const SkillToolName = "skill"

// skillTool builds the synthetic loader tool over a catalog snapshot.
func skillTool(catalog map[string]Skill) Tool {
	return Tool{
		Name: SkillToolName,
		Description: "Load a skill: a package of instructions for handling a " +
			"specific kind of task.\n\n" + skillCatalogSummary(catalog),
		Params: []Param{
			{Name: "skill_name", Type: TypeString, Description: "Name of the skill to load."},
		},
		Fn: func(skillName string) string {
			return loadSkill(catalog, skillName)
		},
	}
}

// loadSkill returns the skill body plus a listing of its resource files, or
// a recoverable not-found message naming the available skills.
func loadSkill(catalog map[string]Skill, name string) string {
	s, ok := catalog[name]
	if !ok {
		return fmt.Sprintf("Skill %q not found. Available skills: %s.",
			name, strings.Join(skillNames(catalog), ", "))
	}

	var b strings.Builder
	b.WriteString(s.Body)
	if len(s.ResourcePaths) > 0 {
		b.WriteString("\n\n## Skill resources\n\n")
		b.WriteString("The following files ship with this skill (paths relative to the skill directory):\n")
		for _, p := range s.ResourcePaths {
			b.WriteString("- ")
			b.WriteString(p)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func skillNames(catalog map[string]Skill) []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func skillCatalogSummary(catalog map[string]Skill) string {
	var b strings.Builder
	b.WriteString("Available skills:\n")
	for _, name := range skillNames(catalog) {
		s := catalog[name]
		b.WriteString("- ")
		b.WriteString(s.Name)
		if s.Description != "" {
			b.WriteString(": ")
			b.WriteString(summaryLine(s.Description))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
