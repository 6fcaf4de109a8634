package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.7
	defaultTopP           = 0.95
	defaultTopK           = 40
	defaultMaxTokens      = 512
	defaultTimeoutSeconds = 30
	maxAttempts           = 3
)

// Tried in order after the configured model when a model is not found.
var defaultFallbackModels = []string{"gemini-1.5-flash", "gemini-1.5-pro"}

const defaultSystemPrompt = "You are an empathetic, warm listener. " +
	"Acknowledge feelings with sensitivity, mirror the user's tone, and validate their emotions. " +
	"Use concise, calm language. Offer support before solutions. " +
	"Avoid stating limitations about being an AI; focus on being present and caring."

// GeminiConfig holds configuration for the Gemini adapter
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: model name (default: "gemini-2.0-flash")
// - FallbackModels: models tried when the current one is not found (default: gemini-1.5-flash, gemini-1.5-pro)
// - Temperature, TopP, TopK, MaxOutputTokens: sampling settings
// - TimeoutSeconds: per-message timeout (default: 30)
// - SystemPrompt: persona instruction (default: empathetic listener)
type GeminiConfig struct {
	APIKey          string
	Model           string
	FallbackModels  []string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int
	TimeoutSeconds  int
	SystemPrompt    string
}

// contentGenerator is the part of genai.Models used here
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiLLM implements the LargeLanguageModel interface using Google's Gemini API
type GeminiLLM struct {
	models     contentGenerator
	config     GeminiConfig
	logger     *zap.Logger
	retryDelay time.Duration

	mu    sync.RWMutex
	model string
}

var _ repositories.LargeLanguageModel = (*GeminiLLM)(nil)

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("gemini API key is required")
	}

	// Validate temperature is in the valid range
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", config.Temperature)
	}

	// Validate topP is in the valid range
	if config.TopP != 0 && (config.TopP < 0 || config.TopP > 1) {
		return fmt.Errorf("topP must be between 0 and 1, got %f", config.TopP)
	}

	if config.TopK < 0 {
		return fmt.Errorf("topK must be positive, got %f", config.TopK)
	}

	if config.MaxOutputTokens < 0 {
		return fmt.Errorf("maxOutputTokens must be positive, got %d", config.MaxOutputTokens)
	}

	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// NewGeminiLLM creates a new Gemini LLM instance
func NewGeminiLLM(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGeminiLLM(client.Models, config, logger), nil
}

func newGeminiLLM(models contentGenerator, config GeminiConfig, logger *zap.Logger) *GeminiLLM {
	logger = logger.Named("gemini")

	if config.Model == "" {
		config.Model = defaultModel
		logger.Info("Using default model", zap.String("model", config.Model))
	}
	if config.FallbackModels == nil {
		config.FallbackModels = defaultFallbackModels
	}
	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
		logger.Info("Using default temperature", zap.Float32("temperature", config.Temperature))
	}
	if config.TopP == 0 {
		config.TopP = defaultTopP
		logger.Info("Using default topP", zap.Float32("topP", config.TopP))
	}
	if config.TopK == 0 {
		config.TopK = defaultTopK
		logger.Info("Using default topK", zap.Float32("topK", config.TopK))
	}
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = defaultMaxTokens
		logger.Info("Using default maxOutputTokens", zap.Int("maxOutputTokens", config.MaxOutputTokens))
	}
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = defaultTimeoutSeconds
		logger.Info("Using default timeoutSeconds", zap.Int("timeoutSeconds", config.TimeoutSeconds))
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = defaultSystemPrompt
		logger.Info("Using default system prompt")
	}

	return &GeminiLLM{
		models:     models,
		config:     config,
		logger:     logger,
		retryDelay: time.Second,
		model:      config.Model,
	}
}

// GenerateChat creates a chat session with history
func (g *GeminiLLM) GenerateChat(ctx context.Context, history []repositories.ChatMessage) (repositories.ChatSession, error) {
	return NewGeminiChatSession(g, history), nil
}

// Model returns the model currently in use
func (g *GeminiLLM) Model() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.model
}

func (g *GeminiLLM) generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.config.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.config.Temperature),
		TopP:              genai.Ptr(g.config.TopP),
		TopK:              genai.Ptr(g.config.TopK),
		MaxOutputTokens:   int32(g.config.MaxOutputTokens),
	}
}

// candidates lists the current model followed by unused fallbacks
func (g *GeminiLLM) candidates() []string {
	current := g.Model()
	seen := map[string]bool{current: true}
	models := []string{current}
	for _, m := range append([]string{g.config.Model}, g.config.FallbackModels...) {
		if !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}
	return models
}

// generate walks the model candidates, moving on only when a model is not found
func (g *GeminiLLM) generate(ctx context.Context, contents []*genai.Content) (string, error) {
	config := g.generationConfig()
	candidates := g.candidates()

	var lastErr error
	for _, model := range candidates {
		text, err := g.generateWithRetry(ctx, model, contents, config)
		if err == nil {
			if model != g.Model() {
				g.mu.Lock()
				g.model = model
				g.mu.Unlock()
				g.logger.Warn("Switched Gemini model", zap.String("model", model))
			}
			return text, nil
		}
		if !isModelNotFound(err) {
			return "", err
		}
		g.logger.Warn("Gemini model not available", zap.String("model", model), zap.Error(err))
		lastErr = err
	}
	return "", fmt.Errorf("no Gemini model available, tried %v: %w", candidates, lastErr)
}

func (g *GeminiLLM) generateWithRetry(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var response *genai.GenerateContentResponse
		response, err = g.models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			if text := responseText(response); text != "" {
				return text, nil
			}
			err = errors.New("empty response")
		}
		if isModelNotFound(err) {
			return "", err
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.String("model", model),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < maxAttempts-1 {
			select {
			case <-time.After(time.Duration(attempt+1) * g.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", err
}

func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text += part.Text
		}
	}
	return text
}

func isModelNotFound(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusNotFound
	}
	return false
}
