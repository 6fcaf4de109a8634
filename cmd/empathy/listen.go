package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/internal/console"
)

func newListenCommand(opts *rootOptions) *cobra.Command {
	var serverURL, token string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Connect to a running web front end and print every broadcast turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return listen(cmd.Context(), serverURL, token, console.New(os.Stdin, os.Stdout), logger)
		},
	}

	cmd.Flags().StringVar(&serverURL, "url", "ws://localhost:8000/ws", "listener endpoint of the web front end")
	cmd.Flags().StringVar(&token, "token", "", "listener token, required when the server has LISTENER_JWT_SECRET set")
	return cmd
}

func listen(ctx context.Context, serverURL, token string, out *console.Console, logger *zap.Logger) error {
	wsURL, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid listener URL: %w", err)
	}
	if token != "" {
		q := wsURL.Query()
		q.Set("token", token)
		wsURL.RawQuery = q.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("WebSocket connection failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("WebSocket connection failed: %w", err)
	}
	defer conn.Close()

	out.Info("Listening on %s", serverURL)

	// Unblock ReadMessage when the user interrupts
	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read broadcast: %w", err)
		}

		var event domain.TurnEvent
		if err := json.Unmarshal(message, &event); err != nil {
			logger.Warn("Ignoring malformed broadcast", zap.Error(err))
			continue
		}
		out.User(event.User)
		out.Bot(fmt.Sprintf("Bot [%s]: %s", event.Emotion, event.Reply))
	}
}
