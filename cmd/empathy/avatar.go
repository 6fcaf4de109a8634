package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/emotion"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/console"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/usecase"
)

func newAvatarCommand(opts *rootOptions) *cobra.Command {
	var noSpeech bool

	cmd := &cobra.Command{
		Use:   "avatar",
		Short: "Console chat that drives the VTube Studio avatar and speaks replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			out := console.New(os.Stdin, os.Stdout)

			generator, err := newGenerator(ctx, cfg, logger)
			if err != nil {
				return err
			}

			tokens, releaseTokens, err := newTokenStore(ctx, cfg, logger)
			if err != nil {
				out.Warn("Token store unavailable: %v", err)
			}

			var avatar repositories.AvatarController
			if session := connectAvatar(ctx, cfg, tokens, out, logger); session != nil {
				avatar = session
			}

			var speaker repositories.Speaker
			var queue *usecase.SpeechQueue
			if !noSpeech {
				speaker = newSpeaker(cfg, out, logger)
			}
			if speaker != nil {
				queue = usecase.NewSpeechQueue(speaker, logger)
			}

			coordinator := usecase.NewShutdownCoordinator(avatar, queue, speaker,
				cfg.Shutdown.CloseTimeout, cfg.Shutdown.DrainTimeout, logger)
			coordinator.OnShutdown("token store", releaseTokens)
			defer coordinator.Shutdown(ctx)

			turns, err := usecase.NewTurnService(usecase.TurnConfig{
				Generator:  generator,
				Classifier: emotion.NewClassifier(),
				Avatar:     avatar,
				Speech:     queue,
				Output:     out,
				Threshold:  cfg.Turn.AvatarThreshold,
			}, logger)
			if err != nil {
				return err
			}

			out.Println("Avatar Chatbot ready. Type 'exit' to quit.")
			out.Println("")
			logger.Info("Avatar chat started", zap.Bool("avatar", turns.AvatarReady()), zap.Bool("speech", queue != nil))
			return usecase.NewChatLoop(out, turns, logger).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&noSpeech, "no-speech", false, "do not speak replies")
	return cmd
}

func newChatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Console chat with emoji decoration only, no avatar and no speech",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			out := console.New(os.Stdin, os.Stdout)

			generator, err := newGenerator(ctx, cfg, logger)
			if err != nil {
				return err
			}

			turns, err := usecase.NewTurnService(usecase.TurnConfig{
				Generator:  generator,
				Classifier: emotion.NewClassifier(),
				Output:     out,
				Decorate:   emotion.Decorate,
				Threshold:  cfg.Turn.AvatarThreshold,
			}, logger)
			if err != nil {
				return err
			}

			out.Println("Emoji Chatbot ready. Type 'exit' to quit.")
			out.Println("")
			return usecase.NewChatLoop(out, turns, logger).Run(ctx)
		},
	}
}
