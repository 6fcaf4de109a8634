package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/llm"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/natspub"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/speech"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/tokenstore"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/tts"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/vtubestudio"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/config"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/console"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/usecase"
)

// newGenerator builds the text generator for LLM_PROVIDER
func newGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*usecase.ChatService, error) {
	var model repositories.LargeLanguageModel
	switch cfg.Gemini.Provider {
	case config.ProviderMock:
		logger.Info("Using mock LLM")
		model = llm.NewMockLLM()
	default:
		gemini, err := llm.NewGeminiLLM(ctx, cfg.GeminiConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise Gemini: %w", err)
		}
		model = gemini
	}
	return usecase.NewChatService(model, logger), nil
}

// newSpeaker builds the speaker for TTS_PROVIDER. It returns nil when speech is off.
// A provider that cannot start is reported and speech is disabled.
func newSpeaker(cfg *config.Config, out *console.Console, logger *zap.Logger) repositories.Speaker {
	var synth repositories.TextToSpeech
	var err error

	switch cfg.Speech.Provider {
	case config.ProviderNone:
		return nil
	case config.ProviderMock:
		return speech.NewMockSpeaker(logger)
	case config.ProviderElevenLabs:
		synth, err = tts.NewElevenLabsTTS(cfg.ElevenLabsConfig(), logger)
	default:
		synth, err = tts.NewAzureTTS(cfg.AzureConfig(), logger)
	}
	if err != nil {
		out.Info("TTS unavailable: %v", err)
		return nil
	}

	player, err := tts.NewPlayerSpeaker(synth, cfg.PlayerConfig(), logger)
	if err != nil {
		out.Info("TTS unavailable: %v", err)
		return nil
	}
	out.Info("TTS ready")
	return player
}

// newTokenStore builds the avatar token store for VTS_TOKEN_STORE.
// The returned release func is never nil.
func newTokenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Avatar.TokenStore {
	case config.ProviderNone:
		return nil, noop, nil
	case config.StoreRedis:
		store, err := tokenstore.NewRedisStore(ctx, cfg.RedisConfig(), logger)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return tokenstore.NewFileStore(cfg.Avatar.TokenFile, logger), noop, nil
	}
}

// connectAvatar opens the avatar session. Any failure is reported once and
// leaves the chat running without avatar expressions (nil session).
func connectAvatar(ctx context.Context, cfg *config.Config, tokens repositories.TokenStore, out *console.Console, logger *zap.Logger) *vtubestudio.Session {
	hotkeys, err := config.LoadHotkeyMap(cfg.Avatar.HotkeyMapFile)
	if err != nil {
		out.Warn("Invalid hotkey map: %v", err)
		return nil
	}

	avatarConfig := cfg.AvatarConfig(hotkeys)
	avatarConfig.OnTokenIssued = func(token string) {
		out.Info("Save this token as VTS_AUTH_TOKEN in your .env to skip prompts:\nVTS_AUTH_TOKEN=%s", token)
	}

	session, err := vtubestudio.NewSession(avatarConfig, tokens, logger)
	if err != nil {
		out.Warn("VTube Studio not configured: %v", err)
		return nil
	}

	if err := session.Connect(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthTimeout):
			out.Warn("Timed out waiting for VTS authentication token. Ensure the popup is allowed and try again.")
		case errors.Is(err, domain.ErrAuthRejected):
			out.Warn("VTube Studio rejected authentication: %v", err)
		default:
			out.Warn("VTube Studio not connected: %v", err)
		}
		out.Warn("The chat will continue without avatar expressions.")
		session.Close(context.Background())
		return nil
	}

	out.Info("Connected to VTube Studio. Expressions will follow the chatbot's tone.")
	return session
}

// newNATSPublisher connects the optional NATS turn publisher
func newNATSPublisher(cfg *config.Config, out *console.Console, logger *zap.Logger) *natspub.TurnPublisher {
	if cfg.Web.NATSURL == "" {
		return nil
	}
	publisher, err := natspub.NewTurnPublisher(cfg.NATSConfig(), logger)
	if err != nil {
		out.Warn("NATS broadcast disabled: %v", err)
		return nil
	}
	return publisher
}
