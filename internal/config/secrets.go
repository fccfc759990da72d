package config

import (
	"fmt"
	"os"
)

// Secret environment variable names. Per spec.md §6 the core never reads a
// secret from any other place (no config file, no flag, no hardcoded value).
const (
	EnvLLMAPIKey         = "CAPITOLFLOW_LLM_API_KEY"
	EnvPriceProviderKey   = "CAPITOLFLOW_PRICE_API_KEY"   // optional
	EnvSocialProviderKey  = "CAPITOLFLOW_SOCIAL_API_KEY"  // optional, collaborator surface only
)

// Secrets holds the process's resolved secret material. It is populated once
// at startup and passed by value/pointer to the components that need it;
// nothing downstream re-reads the environment.
type Secrets struct {
	LLMAPIKey        string
	PriceProviderKey string
	SocialProviderKey string
}

// LoadSecrets reads the one required and two optional secret variables.
func LoadSecrets() (*Secrets, error) {
	llmKey := os.Getenv(EnvLLMAPIKey)
	if llmKey == "" {
		return nil, fmt.Errorf("required environment variable %s is not set", EnvLLMAPIKey)
	}
	return &Secrets{
		LLMAPIKey:         llmKey,
		PriceProviderKey:  os.Getenv(EnvPriceProviderKey),
		SocialProviderKey: os.Getenv(EnvSocialProviderKey),
	}, nil
}
