// Package skillfs loads skill definitions from a directory tree.
//
// Each skill lives in its own subdirectory containing a SKILL.md file: YAML
// frontmatter (name, description) between "---" markers, then the markdown
// body with the skill's instructions. Any other files in the subdirectory
// are recorded as resources the model can be pointed at.
package skillfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/orchid/agent"
)

// ManifestName is the file that marks a directory as a skill.
const ManifestName = "SKILL.md"

const frontmatterMarker = "---"

type frontmatter struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Metadata    map[string]string `yaml:"metadata"`
}

// LoadDir scans the immediate subdirectories of root for skills. Directories
// without a manifest are skipped; a malformed manifest fails the whole load
// so broken catalogs are caught at startup.
func LoadDir(root string) ([]agent.Skill, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading skill directory %s: %w", root, err)
	}

	var skills []agent.Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		manifest := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(manifest); err != nil {
			continue
		}

		skill, err := loadSkill(dir, manifest)
		if err != nil {
			return nil, fmt.Errorf("loading skill %s: %w", entry.Name(), err)
		}
		skills = append(skills, skill)
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

func loadSkill(dir, manifest string) (agent.Skill, error) {
	raw, err := os.ReadFile(manifest)
	if err != nil {
		return agent.Skill{}, err
	}

	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return agent.Skill{}, err
	}
	if fm.Name == "" {
		fm.Name = filepath.Base(dir)
	}

	resources, err := collectResources(dir)
	if err != nil {
		return agent.Skill{}, err
	}

	return agent.Skill{
		Name:          fm.Name,
		Description:   fm.Description,
		Body:          strings.TrimSpace(body),
		ResourcePaths: resources,
	}, nil
}

// splitFrontmatter separates the YAML header from the markdown body. The
// manifest must open with a "---" line and carry a matching close.
func splitFrontmatter(content string) (frontmatter, string, error) {
	var fm frontmatter

	rest, ok := strings.CutPrefix(content, frontmatterMarker+"\n")
	if !ok {
		return fm, "", fmt.Errorf("manifest must start with %q frontmatter", frontmatterMarker)
	}

	end := strings.Index(rest, "\n"+frontmatterMarker)
	if end < 0 {
		return fm, "", fmt.Errorf("unterminated frontmatter")
	}

	header := rest[:end]
	body := rest[end+len("\n"+frontmatterMarker):]
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return fm, body, nil
}

// collectResources lists every file under dir except the manifest, as paths
// relative to the skill directory.
func collectResources(dir string) ([]string, error) {
	var resources []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == ManifestName {
			return nil
		}
		resources = append(resources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(resources)
	return resources, nil
}
