package scene

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlScenesFile is the top-level YAML structure for scene files.
type yamlScenesFile struct {
	Scenes []yamlScene `yaml:"scenes"`
}

type yamlScene struct {
	Template    string `yaml:"template"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// LoadScenes reads and validates a scene YAML file. Returned scenes have no ID.
//
// Precondition: path must point to a valid YAML scene file.
// Postcondition: Returns validated scenes or a non-nil error.
func LoadScenes(path string) ([]Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file %s: %w", path, err)
	}
	return LoadScenesFromBytes(data)
}

// LoadScenesFromBytes parses and validates scenes from YAML bytes.
//
// Postcondition: Returns an error if any scene is invalid or two scenes share a template.
func LoadScenesFromBytes(data []byte) ([]Scene, error) {
	var file yamlScenesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scene YAML: %w", err)
	}
	seen := make(map[string]bool, len(file.Scenes))
	scenes := make([]Scene, 0, len(file.Scenes))
	for _, ys := range file.Scenes {
		s := Scene{Title: ys.Title, Description: ys.Description, Template: ys.Template}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("validating scene: %w", err)
		}
		if seen[s.Template] {
			return nil, fmt.Errorf("duplicate scene template %q", s.Template)
		}
		seen[s.Template] = true
		scenes = append(scenes, s)
	}
	return scenes, nil
}

// Seed creates every scene whose template is not yet present in repo.
//
// Postcondition: Returns the stored scene for every input template, keyed by template.
func Seed(ctx context.Context, repo Repository, scenes []Scene) (map[string]*Scene, error) {
	out := make(map[string]*Scene, len(scenes))
	for _, s := range scenes {
		existing, err := repo.FindByTemplate(ctx, s.Template)
		switch {
		case err == nil:
			out[s.Template] = existing
			continue
		case !errors.Is(err, ErrSceneNotFound):
			return nil, err
		}
		created := s
		if err := repo.Create(ctx, &created); err != nil {
			return nil, fmt.Errorf("creating scene %q: %w", s.Template, err)
		}
		out[s.Template] = &created
	}
	return out, nil
}
