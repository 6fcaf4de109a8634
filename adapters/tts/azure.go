package tts

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

const (
	defaultAzureRegion       = "eastus"
	defaultAzureVoice        = "en-US-AshleyNeural"
	defaultAzureRate         = "27%"
	defaultAzurePitch        = "+45Hz"
	defaultAzureOutputFormat = "audio-24khz-160kbitrate-mono-mp3"
	azureUserAgent           = "empathy-avatar"
)

// AzureConfig holds configuration for the Azure speech adapter
// Required fields:
// - APIKey: Azure Speech resource key
// Optional fields with defaults:
// - Region: Azure region (default: "eastus")
// - Voice: neural voice name (default: "en-US-AshleyNeural")
// - Rate / Pitch: prosody adjustments (default: "27%" / "+45Hz")
// - Endpoint: overrides the region endpoint
type AzureConfig struct {
	APIKey       string
	Region       string
	Voice        string
	Rate         string
	Pitch        string
	OutputFormat string
	Endpoint     string
}

// AzureTTS implements TextToSpeech over the Azure Speech REST API
type AzureTTS struct {
	apiKey       string
	endpoint     string
	voice        string
	rate         string
	pitch        string
	outputFormat string
	client       *http.Client
	logger       *zap.Logger
}

var _ repositories.TextToSpeech = (*AzureTTS)(nil)

// NewAzureTTS creates a new Azure TTS instance
func NewAzureTTS(config AzureConfig, logger *zap.Logger) (*AzureTTS, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("azure speech key is required")
	}
	logger = logger.Named("azure")

	region := config.Region
	if region == "" {
		region = defaultAzureRegion
		logger.Info("Using default region", zap.String("region", region))
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
	}
	voice := config.Voice
	if voice == "" {
		voice = defaultAzureVoice
		logger.Info("Using default voice", zap.String("voice", voice))
	}
	rate := config.Rate
	if rate == "" {
		rate = defaultAzureRate
	}
	pitch := config.Pitch
	if pitch == "" {
		pitch = defaultAzurePitch
	}
	outputFormat := config.OutputFormat
	if outputFormat == "" {
		outputFormat = defaultAzureOutputFormat
	}

	logger.Info("Azure TTS initialized", zap.String("voice", voice))
	return &AzureTTS{
		apiKey:       config.APIKey,
		endpoint:     endpoint,
		voice:        voice,
		rate:         rate,
		pitch:        pitch,
		outputFormat: outputFormat,
		client:       &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}, nil
}

// ConvertTextToSpeech synthesizes text as MP3 and streams the audio
func (a *AzureTTS) ConvertTextToSpeech(ctx context.Context, text string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	ssml, err := a.SSML(text)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", a.outputFormat)
	httpReq.Header.Set("User-Agent", azureUserAgent)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: azure request: %v", domain.ErrSynthesisFailed, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("%w: azure: %v", domain.ErrSynthesisFailed, err)
	}

	return streamBody(ctx, resp, defaultChunkSize, a.logger), nil
}

// SSML renders the synthesis document with voice and prosody settings
func (a *AzureTTS) SSML(text string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("failed to escape text: %w", err)
	}

	return fmt.Sprintf(
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
			"<voice name='%s'><prosody rate='%s' pitch='%s'>%s</prosody></voice></speak>",
		a.voice, a.rate, a.pitch, escaped.String()), nil
}
