package skillfs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSkill(t *testing.T, root, dir, manifest string, resources map[string]string) {
	t.Helper()
	skillDir := filepath.Join(root, dir)
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(skillDir, ManifestName), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range resources {
		path := filepath.Join(skillDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()

	writeSkill(t, root, "report-writing", `---
name: report-writing
description: How to structure research reports.
---

# Report writing

Always lead with the conclusion.
`, map[string]string{
		"templates/outline.md": "## Outline",
		"style.md":             "Use short sentences.",
	})

	writeSkill(t, root, "no-manifest", "", map[string]string{"notes.txt": "ignored"})

	skills, err := LoadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skills) != 1 {
		t.Fatalf("expected 1 skill, got %d", len(skills))
	}

	s := skills[0]
	if s.Name != "report-writing" {
		t.Errorf("expected name report-writing, got %q", s.Name)
	}
	if s.Description != "How to structure research reports." {
		t.Errorf("unexpected description: %q", s.Description)
	}
	if s.Body == "" || s.Body[0] != '#' {
		t.Errorf("expected body to start at the markdown heading, got %q", s.Body)
	}
	if len(s.ResourcePaths) != 2 {
		t.Fatalf("expected 2 resources, got %v", s.ResourcePaths)
	}
	if s.ResourcePaths[0] != "style.md" || s.ResourcePaths[1] != "templates/outline.md" {
		t.Errorf("unexpected resources: %v", s.ResourcePaths)
	}
}

func TestLoadDirNameFallsBackToDirectory(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "fallback", `---
description: No name field.
---
Body text.
`, nil)

	skills, err := LoadDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skills) != 1 || skills[0].Name != "fallback" {
		t.Fatalf("expected skill named fallback, got %+v", skills)
	}
}

func TestLoadDirMalformedFrontmatter(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "broken", "no frontmatter here\n", nil)

	if _, err := LoadDir(root); err == nil {
		t.Fatal("expected error for missing frontmatter")
	}

	root2 := t.TempDir()
	writeSkill(t, root2, "unterminated", "---\nname: x\nbody without close\n", nil)

	if _, err := LoadDir(root2); err == nil {
		t.Fatal("expected error for unterminated frontmatter")
	}
}

func TestLoadDirMissingRoot(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing root")
	}
}
