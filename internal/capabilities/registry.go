package capabilities

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// presetOrder is the order presets are listed to clients
var presetOrder = []string{"openai", "openrouter", "anthropic", "deepseek", "lorem"}

// Registry holds the AI endpoint presets embedded in the binary
type Registry struct {
	providers map[string]*ProviderPreset
	mu        sync.RWMutex
}

// NewRegistry loads the embedded preset files
func NewRegistry() (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*ProviderPreset),
	}

	for _, provider := range presetOrder {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("failed to load %s preset: %w", provider, err)
		}
	}

	return r, nil
}

func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var preset ProviderPreset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	r.providers[provider] = &preset
	r.mu.Unlock()

	return nil
}

// Presets returns every preset in display order
func (r *Registry) Presets() []ProviderPreset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderPreset, 0, len(r.providers))
	for _, provider := range presetOrder {
		if p, ok := r.providers[provider]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// GetPreset returns one provider's preset
func (r *Registry) GetPreset(provider string) (*ProviderPreset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return p, nil
}

// GetModel returns a model preset by provider and model id
func (r *Registry) GetModel(provider, model string) (*ModelPreset, error) {
	p, err := r.GetPreset(provider)
	if err != nil {
		return nil, err
	}
	for i := range p.Models {
		if p.Models[i].ID == model {
			return &p.Models[i], nil
		}
	}
	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}
