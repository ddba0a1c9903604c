package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"
)

// KeyringService groups the engine's secrets in the OS keychain.
const KeyringService = "vagahunter"

// ErrNotFound means no key is configured anywhere.
var ErrNotFound = errors.New("api key not found")

// providerEnv lists the variables consulted per provider, most specific first.
var providerEnv = map[string][]string{
	"gemini":    {"VAGAHUNTER_AI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"anthropic": {"VAGAHUNTER_AI_API_KEY", "ANTHROPIC_API_KEY"},
}

// Account is the keychain account holding the key for provider.
func Account(provider string) string {
	return "ai:" + strings.ToLower(strings.TrimSpace(provider))
}

func GetAPIKey(provider string) (string, error) {
	if strings.TrimSpace(provider) == "" {
		return "", errors.New("provider is empty")
	}
	key, err := keyring.Get(KeyringService, Account(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrap(err, "secrets: keyring get")
	}
	return key, nil
}

func SetAPIKey(provider, key string) error {
	if strings.TrimSpace(provider) == "" {
		return errors.New("provider is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return eris.Wrap(keyring.Set(KeyringService, Account(provider), strings.TrimSpace(key)), "secrets: keyring set")
}

func DeleteAPIKey(provider string) error {
	if strings.TrimSpace(provider) == "" {
		return errors.New("provider is empty")
	}
	err := keyring.Delete(KeyringService, Account(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return eris.Wrap(err, "secrets: keyring delete")
}

// ResolveAPIKey finds the key for provider: config value, then environment,
// then keychain. Providers that need no key resolve to "".
func ResolveAPIKey(provider, configured string) (string, error) {
	if k := strings.TrimSpace(configured); k != "" {
		return k, nil
	}
	names, ok := providerEnv[provider]
	if !ok {
		return "", nil
	}
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	return GetAPIKey(provider)
}
