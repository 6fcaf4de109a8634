package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/llm"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/natspub"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/tokenstore"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/tts"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/vtubestudio"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/entities"
)

// Provider names accepted in LLM_PROVIDER, TTS_PROVIDER and VTS_TOKEN_STORE
const (
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
	ProviderAzure      = "azure"
	ProviderElevenLabs = "elevenlabs"
	ProviderNone       = "none"
	StoreFile          = "file"
	StoreRedis         = "redis"
)

// GeminiSettings configures text generation
type GeminiSettings struct {
	Provider        string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	APIKey          string        `envconfig:"GEMINI_API_KEY"`
	Model           string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	Temperature     float32       `envconfig:"GEMINI_TEMPERATURE" default:"0.7"`
	TopP            float32       `envconfig:"GEMINI_TOP_P" default:"0.95"`
	TopK            float32       `envconfig:"GEMINI_TOP_K" default:"40"`
	MaxOutputTokens int           `envconfig:"GEMINI_MAX_OUTPUT_TOKENS" default:"512"`
	Timeout         time.Duration `envconfig:"GEMINI_TIMEOUT" default:"30s"`
	SystemPrompt    string        `envconfig:"GEMINI_SYSTEM_PROMPT"`
}

// AvatarSettings configures the avatar host session and its token store
type AvatarSettings struct {
	Host            string        `envconfig:"VTS_HOST" default:"localhost"`
	Port            int           `envconfig:"VTS_PORT" default:"8001"`
	AuthToken       string        `envconfig:"VTS_AUTH_TOKEN"`
	PluginName      string        `envconfig:"VTS_PLUGIN_NAME" default:"Avatar Chatbot"`
	PluginDeveloper string        `envconfig:"VTS_PLUGIN_DEVELOPER" default:"EMPATHY Group"`
	TokenTimeout    time.Duration `envconfig:"VTS_TOKEN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `envconfig:"VTS_REQUEST_TIMEOUT" default:"10s"`
	HotkeyMapFile   string        `envconfig:"VTS_HOTKEY_MAP_FILE"`
	TokenStore      string        `envconfig:"VTS_TOKEN_STORE" default:"file"`
	TokenFile       string        `envconfig:"VTS_TOKEN_FILE" default:".vts_token"`
	RedisURL        string        `envconfig:"REDIS_URL"`
	RedisKey        string        `envconfig:"VTS_TOKEN_REDIS_KEY" default:"empathy:vts:token"`
}

// SpeechSettings configures synthesis and playback
type SpeechSettings struct {
	Provider    string   `envconfig:"TTS_PROVIDER" default:"azure"`
	AzureKey    string   `envconfig:"AZURE_SPEECH_KEY"`
	AzureRegion string   `envconfig:"AZURE_SPEECH_REGION" default:"eastus"`
	AzureVoice  string   `envconfig:"AZURE_TTS_VOICE" default:"en-US-AshleyNeural"`
	AzureRate   string   `envconfig:"AZURE_TTS_RATE" default:"27%"`
	AzurePitch  string   `envconfig:"AZURE_TTS_PITCH" default:"+45Hz"`
	ElevenKey   string   `envconfig:"ELEVEN_LABS_API_KEY"`
	ElevenVoice string   `envconfig:"ELEVEN_LABS_VOICE_ID"`
	ElevenModel string   `envconfig:"ELEVEN_LABS_MODEL_ID"`
	Player      string   `envconfig:"TTS_PLAYER" default:"ffplay"`
	PlayerArgs  []string `envconfig:"TTS_PLAYER_ARGS"`
}

// TurnSettings holds the user-over-reply emotion thresholds
type TurnSettings struct {
	AvatarThreshold float64 `envconfig:"AVATAR_EMOTION_THRESHOLD" default:"0.35"`
	WebThreshold    float64 `envconfig:"WEB_EMOTION_THRESHOLD" default:"0.2"`
}

// ShutdownSettings bounds each teardown step
type ShutdownSettings struct {
	CloseTimeout time.Duration `envconfig:"SHUTDOWN_CLOSE_TIMEOUT" default:"5s"`
	DrainTimeout time.Duration `envconfig:"SHUTDOWN_DRAIN_TIMEOUT" default:"5s"`
}

// WebSettings configures the web front end and its listeners
type WebSettings struct {
	Addr      string `envconfig:"WEB_ADDR" default:":8000"`
	Root      string `envconfig:"WEB_ROOT" default:"web_avatar"`
	JWTSecret string `envconfig:"LISTENER_JWT_SECRET"`
	NATSURL   string `envconfig:"NATS_URL"`
	Subject   string `envconfig:"NATS_SUBJECT" default:"empathy.turns"`
}

// Config holds all application configuration
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Gemini   GeminiSettings
	Avatar   AvatarSettings
	Speech   SpeechSettings
	Turn     TurnSettings
	Shutdown ShutdownSettings
	Web      WebSettings
}

// Load reads the given .env files (default ".env") when present and
// binds the environment into a Config.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether APP_ENV selects production logging
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects values no component could run with
func (c *Config) Validate() error {
	switch c.Gemini.Provider {
	case ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.Gemini.Provider)
	}
	switch c.Speech.Provider {
	case ProviderAzure, ProviderElevenLabs, ProviderMock, ProviderNone:
	default:
		return fmt.Errorf("unknown TTS_PROVIDER %q", c.Speech.Provider)
	}
	switch c.Avatar.TokenStore {
	case ProviderNone, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown VTS_TOKEN_STORE %q", c.Avatar.TokenStore)
	}

	for name, threshold := range map[string]float64{
		"AVATAR_EMOTION_THRESHOLD": c.Turn.AvatarThreshold,
		"WEB_EMOTION_THRESHOLD":    c.Turn.WebThreshold,
	} {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, threshold)
		}
	}

	for name, timeout := range map[string]time.Duration{
		"GEMINI_TIMEOUT":         c.Gemini.Timeout,
		"VTS_TOKEN_TIMEOUT":      c.Avatar.TokenTimeout,
		"VTS_REQUEST_TIMEOUT":    c.Avatar.RequestTimeout,
		"SHUTDOWN_CLOSE_TIMEOUT": c.Shutdown.CloseTimeout,
		"SHUTDOWN_DRAIN_TIMEOUT": c.Shutdown.DrainTimeout,
	} {
		if timeout <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, timeout)
		}
	}

	if c.Avatar.Port <= 0 || c.Avatar.Port > 65535 {
		return fmt.Errorf("VTS_PORT must be between 1 and 65535, got %d", c.Avatar.Port)
	}
	if c.Avatar.TokenStore == StoreRedis && c.Avatar.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when VTS_TOKEN_STORE=redis")
	}
	return nil
}

// LoadHotkeyMap returns the default hotkey map, or the one in path when set.
// The file holds `label: "Hotkey Name"` pairs; unknown labels are an error.
func LoadHotkeyMap(path string) (entities.HotkeyMap, error) {
	if path == "" {
		return entities.DefaultHotkeys(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hotkey map: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse hotkey map %s: %w", path, err)
	}

	hotkeys := make(entities.HotkeyMap, len(raw))
	for label, name := range raw {
		emotion, err := entities.ParseEmotion(label)
		if err != nil {
			return nil, fmt.Errorf("hotkey map %s: %w", path, err)
		}
		if name = strings.TrimSpace(name); name != "" {
			hotkeys[emotion] = name
		}
	}
	return hotkeys, nil
}

// GeminiConfig builds the Gemini adapter config
func (c *Config) GeminiConfig() llm.GeminiConfig {
	return llm.GeminiConfig{
		APIKey:          c.Gemini.APIKey,
		Model:           c.Gemini.Model,
		Temperature:     c.Gemini.Temperature,
		TopP:            c.Gemini.TopP,
		TopK:            c.Gemini.TopK,
		MaxOutputTokens: c.Gemini.MaxOutputTokens,
		TimeoutSeconds:  int(c.Gemini.Timeout / time.Second),
		SystemPrompt:    c.Gemini.SystemPrompt,
	}
}

// AvatarConfig builds the avatar session config with the given hotkey map
func (c *Config) AvatarConfig(hotkeys entities.HotkeyMap) vtubestudio.Config {
	return vtubestudio.Config{
		Host:            c.Avatar.Host,
		Port:            c.Avatar.Port,
		PluginName:      c.Avatar.PluginName,
		PluginDeveloper: c.Avatar.PluginDeveloper,
		AuthToken:       c.Avatar.AuthToken,
		TokenTimeout:    c.Avatar.TokenTimeout,
		RequestTimeout:  c.Avatar.RequestTimeout,
		Hotkeys:         hotkeys,
	}
}

// RedisConfig builds the Redis token store config
func (c *Config) RedisConfig() tokenstore.RedisConfig {
	return tokenstore.RedisConfig{
		URL: c.Avatar.RedisURL,
		Key: c.Avatar.RedisKey,
	}
}

// AzureConfig builds the Azure speech config
func (c *Config) AzureConfig() tts.AzureConfig {
	return tts.AzureConfig{
		APIKey: c.Speech.AzureKey,
		Region: c.Speech.AzureRegion,
		Voice:  c.Speech.AzureVoice,
		Rate:   c.Speech.AzureRate,
		Pitch:  c.Speech.AzurePitch,
	}
}

// ElevenLabsConfig builds the ElevenLabs speech config
func (c *Config) ElevenLabsConfig() tts.ElevenLabsConfig {
	return tts.ElevenLabsConfig{
		APIKey:  c.Speech.ElevenKey,
		VoiceID: c.Speech.ElevenVoice,
		ModelID: c.Speech.ElevenModel,
	}
}

// PlayerConfig builds the external player config
func (c *Config) PlayerConfig() tts.PlayerConfig {
	return tts.PlayerConfig{
		Command: c.Speech.Player,
		Args:    c.Speech.PlayerArgs,
	}
}

// NATSConfig builds the turn publisher config
func (c *Config) NATSConfig() natspub.Config {
	return natspub.Config{
		URL:         c.Web.NATSURL,
		Subject:     c.Web.Subject,
		ServiceName: "empathy-avatar",
	}
}
