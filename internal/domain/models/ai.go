package models

import (
	"strings"
)

const (
	DefaultAIBaseURL = "https://api.openai.com/v1"
	DefaultAIModel   = "gpt-4o"
)

// AIModelConfig is one configured model endpoint.
type AIModelConfig struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

// AIPromptTemplate is a reusable system instruction.
type AIPromptTemplate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// AISettings holds the model configs and prompt templates of an account,
// or of the organization when stored as shared settings.
type AISettings struct {
	Configs []AIModelConfig    `json:"configs"`
	Prompts []AIPromptTemplate `json:"prompts"`
}

// ApplyDefaults fills the endpoint and model of configs that left them empty.
func (c *AIModelConfig) ApplyDefaults() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultAIBaseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultAIModel
	}
}

// FindConfig returns the config with the given id.
func (s *AISettings) FindConfig(id string) (*AIModelConfig, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Configs {
		if s.Configs[i].ID == id {
			cfg := s.Configs[i]
			return &cfg, true
		}
	}
	return nil, false
}

// FindPrompt returns the prompt template with the given id.
func (s *AISettings) FindPrompt(id string) (*AIPromptTemplate, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Prompts {
		if s.Prompts[i].ID == id {
			p := s.Prompts[i]
			return &p, true
		}
	}
	return nil, false
}

// Redacted returns a copy with API keys masked, for showing shared settings
// to non-admins.
func (s *AISettings) Redacted() *AISettings {
	out := &AISettings{
		Configs: make([]AIModelConfig, len(s.Configs)),
		Prompts: append([]AIPromptTemplate(nil), s.Prompts...),
	}
	for i, cfg := range s.Configs {
		cfg.APIKey = MaskSecret(cfg.APIKey)
		out.Configs[i] = cfg
	}
	if out.Prompts == nil {
		out.Prompts = []AIPromptTemplate{}
	}
	return out
}

// MaskSecret keeps the last four characters of long secrets.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// TransformRequest asks for one document to be run through a model.
type TransformRequest struct {
	DocumentID string `json:"document_id"`
	ConfigID   string `json:"config_id"`
	PromptID   string `json:"prompt_id"`
}

// Invocation is a single call to a model endpoint.
type Invocation struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	UserContent  string
}
