package loaders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// AnimationDef describes one named animation in the manifest.
type AnimationDef struct {
	Sprites []string `yaml:"sprites"`
	FPS     float32  `yaml:"fps"`
	Speed   float32  `yaml:"speed"`
	Loop    bool     `yaml:"loop"`
	FlipY   bool     `yaml:"flip_y"`
}

type AnimationManifest struct {
	Animations map[string]AnimationDef `yaml:"animations"`
}

type AnimationLoader struct{}

func (al *AnimationLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("animations: load %s: %w", path, err)
	}
	manifest, err := ParseAnimationManifest(data)
	if err != nil {
		return nil, fmt.Errorf("animations: %s: %w", path, err)
	}
	return &metadata.Resource{
		Name:     "animations",
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     manifest,
	}, nil
}

func (al *AnimationLoader) Unload(resource *metadata.Resource) error {
	if resource != nil {
		resource.Data = nil
	}
	return nil
}

// ParseAnimationManifest decodes and validates a manifest. Speed defaults to 1.
func ParseAnimationManifest(data []byte) (*AnimationManifest, error) {
	var manifest AnimationManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if manifest.Animations == nil {
		manifest.Animations = make(map[string]AnimationDef)
	}
	for name, def := range manifest.Animations {
		if len(def.Sprites) == 0 {
			return nil, fmt.Errorf("animation '%s' has no sprites", name)
		}
		if def.FPS <= 0 {
			return nil, fmt.Errorf("animation '%s' needs a positive fps, got %v", name, def.FPS)
		}
		if def.Speed == 0 {
			def.Speed = 1
		}
		if def.Speed < 0 {
			return nil, fmt.Errorf("animation '%s' has a negative speed", name)
		}
		manifest.Animations[name] = def
	}
	return &manifest, nil
}
