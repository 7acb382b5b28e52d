package capabilities

import "gopkg.in/yaml.v3"

// ModelPreset describes one model offered by an endpoint preset
type ModelPreset struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName   string `yaml:"display_name" json:"display_name"`
	Description   string `yaml:"description" json:"description"`
	ContextWindow int    `yaml:"context_window" json:"context_window"`
	MaxOutput     int    `yaml:"max_output" json:"max_output"`
}

// ProviderPreset is a known model endpoint users can pick when they set up
// an AI config. BaseURL and one of Models fill the config's fields.
type ProviderPreset struct {
	Provider    string        `yaml:"provider" json:"provider"`
	DisplayName string        `yaml:"display_name" json:"display_name"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	RequiresKey bool          `yaml:"requires_key" json:"requires_key"`
	Models      []ModelPreset `yaml:"-" json:"models"` // YAML order, filled by UnmarshalYAML
}

// UnmarshalYAML keeps the model order of the YAML file
func (p *ProviderPreset) UnmarshalYAML(node *yaml.Node) error {
	type plain ProviderPreset
	var base plain
	if err := node.Decode(&base); err != nil {
		return err
	}

	type modelsOnly struct {
		Models map[string]ModelPreset `yaml:"models"`
	}
	var m modelsOnly
	if err := node.Decode(&m); err != nil {
		return err
	}

	*p = ProviderPreset(base)
	p.Models = nil

	// Mapping node content alternates key, value
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		for j := 0; j+1 < len(modelsNode.Content); j += 2 {
			modelID := modelsNode.Content[j].Value
			if model, ok := m.Models[modelID]; ok {
				model.ID = modelID
				p.Models = append(p.Models, model)
			}
		}
		break
	}

	return nil
}
