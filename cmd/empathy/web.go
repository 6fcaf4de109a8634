package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/adapters/emotion"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/api"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/console"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/websocket"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/usecase"
)

func newWebCommand(opts *rootOptions) *cobra.Command {
	var noSpeech, emoji bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the web avatar and broadcast every turn to connected listeners",
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

			var speaker repositories.Speaker
			var queue *usecase.SpeechQueue
			if !noSpeech {
				speaker = newSpeaker(cfg, out, logger)
			}
			if speaker != nil {
				queue = usecase.NewSpeechQueue(speaker, logger)
			}

			coordinator := usecase.NewShutdownCoordinator(nil, queue, speaker,
				cfg.Shutdown.CloseTimeout, cfg.Shutdown.DrainTimeout, logger)

			var turns *usecase.TurnService
			hub := websocket.NewHub(func(ctx context.Context, text string) {
				out.User(text)
				if _, err := turns.ProcessTurn(ctx, text); err != nil {
					logger.Warn("Turn failed", zap.Error(err))
					out.Warn("Could not get a reply: %v", err)
				}
			}, logger)

			publishers := []repositories.TurnPublisher{hub}
			if publisher := newNATSPublisher(cfg, out, logger); publisher != nil {
				publishers = append(publishers, publisher)
				coordinator.OnShutdown("nats", publisher.Close)
			}

			var decorate usecase.Decorator
			if emoji {
				decorate = emotion.Decorate
			}

			turns, err = usecase.NewTurnService(usecase.TurnConfig{
				Generator:  generator,
				Classifier: emotion.NewClassifier(),
				Speech:     queue,
				Output:     out,
				Decorate:   decorate,
				Publishers: publishers,
				Threshold:  cfg.Turn.WebThreshold,
			}, logger)
			if err != nil {
				return err
			}

			hubCtx, stopHub := context.WithCancel(ctx)
			defer stopHub()
			go hub.Run(hubCtx)

			e := echo.New()
			e.HideBanner = true
			e.HidePort = true
			e.Use(middleware.Recover())
			e.Use(middleware.CORS())
			e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
				LogURI:    true,
				LogStatus: true,
				LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
					logger.Debug("HTTP request", zap.String("uri", v.URI), zap.Int("status", v.Status))
					return nil
				},
			}))

			api.InitRoutes(e, hub, api.RouteConfig{
				WebRoot:   cfg.Web.Root,
				JWTSecret: []byte(cfg.Web.JWTSecret),
			}, logger)

			errCh := make(chan error, 1)
			go func() {
				if err := e.Start(cfg.Web.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			out.Info("Hosting web avatar at http://%s/", displayAddr(cfg.Web.Addr))
			out.Info("WebSocket for avatar at ws://%s/ws", displayAddr(cfg.Web.Addr))

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
			}

			logger.Info("Server is shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Server forced to shutdown", zap.Error(err))
			}
			stopHub()
			coordinator.Shutdown(shutdownCtx)

			return serveErr
		},
	}

	cmd.Flags().BoolVar(&noSpeech, "no-speech", false, "do not speak replies")
	cmd.Flags().BoolVar(&emoji, "emoji", false, "append the emotion's emoji to printed replies")
	return cmd
}

// displayAddr turns ":8000" into "localhost:8000"
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
