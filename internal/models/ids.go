package models

import "strings"

// ModelID identifies a (provider, model) pair. It is comparable and used
// as a map key for failure tracking and fallback lookup.
type ModelID struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (m ModelID) String() string {
	return m.Provider + "/" + m.Model
}

func (m ModelID) IsZero() bool {
	return m.Provider == "" && m.Model == ""
}

// ParseModelID parses a "provider/model" string. Model names may contain
// slashes (openrouter style), only the first separator splits.
func ParseModelID(s string) ModelID {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "/"); idx > 0 {
		return ModelID{Provider: s[:idx], Model: s[idx+1:]}
	}
	return ModelID{Model: s}
}

// Provider transport kinds.
const (
	ProviderTypeAPI = "API"
	ProviderTypeCLI = "CLI"
)
