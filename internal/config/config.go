package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

const (
	appName               = "complytrain"
	keychainAccount       = "openai_api_key"
	geminiKeychainAccount = "gemini_api_key"
)

type Config struct {
	LLM     LLMConfig
	OpenAI  OpenAIConfig
	Ollama  OllamaConfig
	Gemini  GeminiConfig
	Profile ProfileConfig
	Server  ServerConfig
	Log     LogConfig
}

type LLMConfig struct {
	Provider string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type ProfileConfig struct {
	Path string
}

type ServerConfig struct {
	Port  int
	Token string // optional bearer token for the HTTP surface
}

type LogConfig struct {
	Level string
	File  string
}

func defaults() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "openai",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.2",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Profile: ProfileConfig{
			Path: "user_profile.json",
		},
		Server: ServerConfig{
			Port: 4100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// A .env file in the working directory is loaded into the environment first;
// variables already set win over it.
// On macOS the backend is UserDefaults (domain: com.complytrain.app) and
// secrets fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/complytrain/config.json
// and secrets come from the environment or the local secrets file.
//
// Environment variables (COMPLYTRAIN_*) override backend values on all
// platforms. OPENAI_API_KEY and GEMINI_API_KEY are accepted for the API keys
// as well.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg, err := resolve(b, kc)
	if err != nil {
		return Config{}, err
	}

	switch {
	case cfg.LLM.Provider == "openai" && cfg.OpenAI.APIKey == "":
		msg := "missing required config: OpenAI API key. " +
			"Set it via environment variable COMPLYTRAIN_OPENAI_API_KEY or OPENAI_API_KEY" +
			apiKeyHint() +
			", or switch to a local model with llm.provider=ollama"
		return Config{}, fmt.Errorf("%s", msg)
	case cfg.LLM.Provider == "gemini" && cfg.Gemini.APIKey == "":
		return Config{}, fmt.Errorf("missing required config: Gemini API key. " +
			"Set it via environment variable COMPLYTRAIN_GEMINI_API_KEY or GEMINI_API_KEY, " +
			"or switch to a local model with llm.provider=ollama")
	}

	return cfg, nil
}

// LoadPartial is Load without the API key requirement, for commands that
// only report on or talk to a running server.
func LoadPartial() (Config, error) {
	_ = godotenv.Load()
	return resolve(newPlatformBackend(), keychainReader{})
}

func resolve(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	switch cfg.LLM.Provider {
	case "openai", "ollama", "gemini":
	default:
		return Config{}, fmt.Errorf("invalid llm.provider %q: want openai, ollama or gemini", cfg.LLM.Provider)
	}

	// Try platform keychain for API keys if still empty.
	if cfg.LLM.Provider == "openai" && cfg.OpenAI.APIKey == "" {
		if key, err := kc.Get(appName, keychainAccount); err == nil && key != "" {
			cfg.OpenAI.APIKey = key
		}
	}
	if cfg.LLM.Provider == "gemini" && cfg.Gemini.APIKey == "" {
		if key, err := kc.Get(appName, geminiKeychainAccount); err == nil && key != "" {
			cfg.Gemini.APIKey = key
		}
	}

	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
