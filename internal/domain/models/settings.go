package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JSONMap is a type alias for JSONB columns
type JSONMap map[string]interface{}

// Settings namespaces
const (
	NamespaceProfile  = "profile"
	NamespaceBranding = "branding"
	NamespaceAI       = "ai"
)

// UserSettings holds per-account settings in a single namespaced JSONB
// column: {profile, branding, ai}.
type UserSettings struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Settings  JSONMap   `json:"settings" db:"settings"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProfileSettings represents the profile namespace
type ProfileSettings struct {
	Avatar string `json:"avatar"` // emoji
}

// BrandingSettings represents the branding namespace
type BrandingSettings struct {
	SiteName     string `json:"site_name"`
	SiteGradient string `json:"site_gradient"`
}

// SettingsView is the typed form returned to clients.
type SettingsView struct {
	Profile  ProfileSettings  `json:"profile"`
	Branding BrandingSettings `json:"branding"`
	AI       AISettings       `json:"ai"`
}

// UpdateSettingsRequest replaces whole namespaces; nil namespaces are left alone.
type UpdateSettingsRequest struct {
	Profile  *ProfileSettings  `json:"profile"`
	Branding *BrandingSettings `json:"branding"`
	AI       *AISettings       `json:"ai"`
}

func (us *UserSettings) GetProfile() (*ProfileSettings, error) {
	profile := &ProfileSettings{}
	if err := getNamespace(us.Settings, NamespaceProfile, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (us *UserSettings) SetProfile(profile *ProfileSettings) error {
	return us.setNamespace(NamespaceProfile, profile)
}

func (us *UserSettings) GetBranding() (*BrandingSettings, error) {
	branding := &BrandingSettings{}
	if err := getNamespace(us.Settings, NamespaceBranding, branding); err != nil {
		return nil, err
	}
	return branding, nil
}

func (us *UserSettings) SetBranding(branding *BrandingSettings) error {
	return us.setNamespace(NamespaceBranding, branding)
}

// GetAI extracts the ai namespace. Lists are never nil.
func (us *UserSettings) GetAI() (*AISettings, error) {
	return AISettingsFromMap(us.Settings[NamespaceAI])
}

func (us *UserSettings) SetAI(ai *AISettings) error {
	return us.setNamespace(NamespaceAI, ai)
}

// View converts the stored namespaces to their typed form.
func (us *UserSettings) View() (*SettingsView, error) {
	profile, err := us.GetProfile()
	if err != nil {
		return nil, err
	}
	branding, err := us.GetBranding()
	if err != nil {
		return nil, err
	}
	ai, err := us.GetAI()
	if err != nil {
		return nil, err
	}
	return &SettingsView{Profile: *profile, Branding: *branding, AI: *ai}, nil
}

// AISettingsFromMap decodes an ai namespace value (as stored in JSONB).
func AISettingsFromMap(raw interface{}) (*AISettings, error) {
	ai := &AISettings{}
	if raw != nil {
		// Re-marshal to ensure type safety
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, ai); err != nil {
			return nil, err
		}
	}
	if ai.Configs == nil {
		ai.Configs = []AIModelConfig{}
	}
	if ai.Prompts == nil {
		ai.Prompts = []AIPromptTemplate{}
	}
	return ai, nil
}

// ToJSONMap converts a typed namespace value for JSONB storage.
func ToJSONMap(v interface{}) (JSONMap, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m JSONMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func getNamespace(settings JSONMap, namespace string, dest interface{}) error {
	raw, ok := settings[namespace]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (us *UserSettings) setNamespace(namespace string, value interface{}) error {
	if us.Settings == nil {
		us.Settings = JSONMap{}
	}
	m, err := ToJSONMap(value)
	if err != nil {
		return err
	}
	us.Settings[namespace] = map[string]interface{}(m)
	return nil
}
