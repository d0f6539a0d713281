package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override adjusts a registered provider without touching translation
// logic. Endpoints and model ids are configuration data.
type Override struct {
	BaseURL      string            `yaml:"base_url,omitempty"`
	DefaultModel string            `yaml:"default_model,omitempty"`
	ImageModel   string            `yaml:"image_model,omitempty"`
	Models       map[string]string `yaml:"models,omitempty"`
}

// Overrides is the shape of an optional providers.yaml file.
type Overrides struct {
	Providers map[string]Override `yaml:"providers"`
}

// LoadOverrides reads an override file. A missing file is not an error;
// callers get an empty override set.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return &Overrides{}, nil
		}
		return nil, fmt.Errorf("failed to read provider overrides: %w", err)
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provider overrides: %w", err)
	}
	return &o, nil
}

// Apply merges overrides into the registry. Unknown provider ids are
// rejected rather than silently creating new entries.
func (r *Registry) Apply(o *Overrides) error {
	if o == nil {
		return nil
	}
	for id, ov := range o.Providers {
		p, ok := r.providers[id]
		if !ok {
			return fmt.Errorf("%w: %q in overrides", ErrUnsupportedProvider, id)
		}
		if ov.BaseURL != "" {
			p.BaseURL = ov.BaseURL
		}
		if ov.DefaultModel != "" {
			p.DefaultModel = ov.DefaultModel
		}
		if ov.ImageModel != "" {
			p.ImageModel = ov.ImageModel
		}
		for tier, model := range ov.Models {
			if p.Models == nil {
				p.Models = make(map[string]string)
			}
			p.Models[tier] = model
		}
		r.providers[id] = p
	}
	return nil
}
