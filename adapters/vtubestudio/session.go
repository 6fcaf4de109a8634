package vtubestudio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/entities"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

const (
	defaultHost            = "localhost"
	defaultPort            = 8001
	defaultPluginName      = "Avatar Chatbot"
	defaultPluginDeveloper = "EMPATHY Group"
	defaultTokenTimeout    = 30 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	closeWriteWait         = time.Second
)

// State of an avatar session
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config holds configuration for the avatar session
// Optional fields with defaults:
// - Host: avatar host address (default: "localhost")
// - Port: avatar host API port (default: 8001)
// - PluginName / PluginDeveloper: identity shown in the host's approval prompt
// - TokenTimeout: how long to wait for the user to approve the token request (default: 30s)
// - RequestTimeout: bound on every other request/response pair (default: 10s)
// - Hotkeys: emotion -> hotkey name (default: entities.DefaultHotkeys())
type Config struct {
	Host            string
	Port            int
	PluginName      string
	PluginDeveloper string
	AuthToken       string
	TokenTimeout    time.Duration
	RequestTimeout  time.Duration
	Hotkeys         entities.HotkeyMap

	// OnTokenIssued is called once when the host issues a new token.
	OnTokenIssued func(token string)
}

// ValidateConfig validates the config and applies defaults
func ValidateConfig(cfg *Config, logger *zap.Logger) error {
	if cfg.Host == "" {
		cfg.Host = defaultHost
		logger.Info("Using default avatar host", zap.String("host", cfg.Host))
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
		logger.Info("Using default avatar port", zap.Int("port", cfg.Port))
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("avatar port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.PluginName == "" {
		cfg.PluginName = defaultPluginName
	}
	if cfg.PluginDeveloper == "" {
		cfg.PluginDeveloper = defaultPluginDeveloper
	}
	if cfg.TokenTimeout < 0 || cfg.RequestTimeout < 0 {
		return fmt.Errorf("avatar timeouts must be positive")
	}
	if cfg.TokenTimeout == 0 {
		cfg.TokenTimeout = defaultTokenTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Hotkeys == nil {
		cfg.Hotkeys = entities.DefaultHotkeys()
		logger.Info("Using default hotkey map")
	}
	for emotion := range cfg.Hotkeys {
		if !emotion.Valid() {
			return fmt.Errorf("hotkey map has unknown emotion %q", emotion)
		}
	}
	return nil
}

// URL returns the WebSocket URL of the host API
func (c Config) URL() string {
	return "ws://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Session is the single live connection to the avatar host.
// All requests are serialized: one send is followed by its one receive before the next send.
type Session struct {
	cfg    Config
	logger *zap.Logger
	dialer *websocket.Dialer
	tokens repositories.TokenStore

	// sem guards everything below. It is a channel so waiting can give up on ctx.
	sem       chan struct{}
	state     atomic.Int32
	conn      *websocket.Conn
	authToken string
	catalog   *HotkeyCatalog
	// active is written under sem and read without it.
	active atomic.Value
}

var _ repositories.AvatarController = (*Session)(nil)

// NewSession creates a disconnected session. tokens may be nil.
func NewSession(cfg Config, tokens repositories.TokenStore, logger *zap.Logger) (*Session, error) {
	logger = logger.Named("vtubestudio")
	if err := ValidateConfig(&cfg, logger); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		logger:    logger,
		dialer:    &websocket.Dialer{HandshakeTimeout: cfg.RequestTimeout},
		tokens:    tokens,
		sem:       make(chan struct{}, 1),
		authToken: cfg.AuthToken,
	}
	s.catalog = NewHotkeyCatalog(s.listHotkeys, logger)
	return s, nil
}

// Connect dials the host, authenticates and loads the hotkey catalog.
// Without a token it first asks the host to issue one and waits for the user to approve.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	switch s.State() {
	case StateClosed:
		return domain.ErrSessionClosed
	case StateReady:
		return nil
	}

	url := s.cfg.URL()
	s.setState(StateConnecting)
	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("failed to connect to avatar host at %s: %w", url, err)
	}
	s.conn = conn
	s.logger.Info("Connected to avatar host", zap.String("url", url))

	s.setState(StateAuthenticating)
	if err := s.authorize(ctx); err != nil {
		s.dropConn()
		s.setState(StateDisconnected)
		return err
	}

	// A catalog failure leaves the catalog empty but the session usable.
	if err := s.catalog.Refresh(ctx); err != nil {
		s.logger.Warn("Failed to load hotkey catalog", zap.Error(err))
	}

	s.setState(StateReady)
	s.logger.Info("Avatar session ready", zap.Int("hotkeys", s.catalog.Len()))
	return nil
}

func (s *Session) authorize(ctx context.Context) error {
	token := s.authToken
	fromStore := false
	if token == "" && s.tokens != nil {
		stored, err := s.tokens.Load(ctx)
		if err != nil {
			s.logger.Warn("Failed to load stored avatar token", zap.Error(err))
		}
		token, fromStore = stored, stored != ""
	}

	if token == "" {
		issued, err := s.requestToken(ctx)
		if err != nil {
			return err
		}
		token = issued
		s.tokenIssued(ctx, token)
	}

	if err := s.authenticate(ctx, token); err != nil {
		if fromStore && errors.Is(err, domain.ErrAuthRejected) {
			s.logger.Warn("Stored avatar token rejected, clearing it")
			if cerr := s.tokens.Clear(ctx); cerr != nil {
				s.logger.Warn("Failed to clear stored avatar token", zap.Error(cerr))
			}
		}
		return err
	}

	s.authToken = token
	return nil
}

func (s *Session) requestToken(ctx context.Context) (string, error) {
	req := NewRequest("token_request", MessageTypeTokenRequest, TokenRequestData{
		PluginName:      s.cfg.PluginName,
		PluginDeveloper: s.cfg.PluginDeveloper,
	})

	s.logger.Info("Requesting avatar host token, approve the plugin in the host window",
		zap.Duration("timeout", s.cfg.TokenTimeout))
	resp, err := s.roundTrip(ctx, s.cfg.TokenTimeout, req)
	if err != nil {
		if isTimeout(err) {
			return "", domain.ErrAuthTimeout
		}
		return "", err
	}
	if herr := resp.HostError(req.MessageType); herr != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthRejected, herr)
	}

	var data TokenResponseData
	if err := resp.Decode(&data); err != nil || data.AuthenticationToken == "" {
		return "", fmt.Errorf("%w: host did not issue a token", domain.ErrAuthRejected)
	}
	return data.AuthenticationToken, nil
}

func (s *Session) tokenIssued(ctx context.Context, token string) {
	if s.tokens != nil {
		if err := s.tokens.Save(ctx, token); err != nil {
			s.logger.Warn("Failed to save avatar token", zap.Error(err))
		}
	}
	if s.cfg.OnTokenIssued != nil {
		s.cfg.OnTokenIssued(token)
	}
}

func (s *Session) authenticate(ctx context.Context, token string) error {
	req := NewRequest("auth_request", MessageTypeAuthRequest, AuthRequestData{
		PluginName:          s.cfg.PluginName,
		PluginDeveloper:     s.cfg.PluginDeveloper,
		AuthenticationToken: token,
	})

	resp, err := s.roundTrip(ctx, s.cfg.RequestTimeout, req)
	if err != nil {
		return err
	}
	if herr := resp.HostError(req.MessageType); herr != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthRejected, herr)
	}

	var data AuthResponseData
	if err := resp.Decode(&data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthRejected, err)
	}
	if !data.Authenticated {
		return fmt.Errorf("%w: %s", domain.ErrAuthRejected, data.Reason)
	}
	return nil
}

// ApplyEmotion switches the avatar to the expression mapped for emotion.
// The host's hotkeys are toggles, so the previously active expression is
// triggered again to switch it off before the new one is triggered.
func (s *Session) ApplyEmotion(ctx context.Context, emotion entities.Emotion) error {
	name := s.cfg.Hotkeys[emotion]
	if name == "" {
		s.logger.Debug("No hotkey mapping for emotion", zap.String("emotion", string(emotion)))
		return nil
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	switch s.State() {
	case StateClosed:
		return domain.ErrSessionClosed
	case StateReady:
	default:
		return domain.ErrNotConnected
	}

	id, ok, err := s.catalog.Resolve(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to resolve hotkey %q: %w", name, err)
	}
	if !ok {
		s.logger.Warn("Hotkey not found in model", zap.String("hotkey", name))
		return nil
	}

	if name == s.activeName() {
		return nil
	}

	if prev := s.activeName(); prev != "" {
		if oldID, ok := s.catalog.Lookup(prev); ok {
			if err := s.trigger(ctx, prev, oldID); err != nil {
				return err
			}
		}
		s.active.Store("")
	}

	if err := s.trigger(ctx, string(emotion), id); err != nil {
		return err
	}
	s.active.Store(name)

	s.logger.Debug("Applied emotion", zap.String("emotion", string(emotion)), zap.String("hotkey", name))
	return nil
}

func (s *Session) trigger(ctx context.Context, label, hotkeyID string) error {
	req := NewRequest("trigger_"+label, MessageTypeHotkeyTrigger, HotkeyTriggerData{HotkeyID: hotkeyID})
	resp, err := s.roundTrip(ctx, s.cfg.RequestTimeout, req)
	if err != nil {
		return fmt.Errorf("failed to trigger hotkey for %s: %w", label, err)
	}
	return resp.HostError(req.MessageType)
}

func (s *Session) listHotkeys(ctx context.Context) ([]Hotkey, error) {
	req := NewRequest("hotkey_list", MessageTypeHotkeyList, nil)
	resp, err := s.roundTrip(ctx, s.cfg.RequestTimeout, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotkeys: %w", err)
	}
	if herr := resp.HostError(req.MessageType); herr != nil {
		return nil, herr
	}

	var data HotkeyListResponseData
	if err := resp.Decode(&data); err != nil {
		return nil, err
	}
	return data.AvailableHotkeys, nil
}

// roundTrip sends one request and reads its one response. Caller holds sem.
func (s *Session) roundTrip(ctx context.Context, timeout time.Duration, req Request) (*Response, error) {
	if s.conn == nil {
		return nil, domain.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", req.MessageType, err)
	}

	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	var resp Response
	if err := s.conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", req.MessageType, err)
	}

	s.logger.Debug("Avatar host response",
		zap.String("requestID", req.RequestID),
		zap.String("messageType", resp.MessageType))
	return &resp, nil
}

// Close ends the session. It is idempotent and safe on a session that never connected.
func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if s.State() == StateClosed {
		return nil
	}

	s.setState(StateClosed)
	s.active.Store("")
	s.catalog.Reset()
	err := s.dropConn()
	s.logger.Info("Avatar session closed")
	return err
}

func (s *Session) dropConn() error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close avatar connection: %w", err)
	}
	return nil
}

// State returns the current protocol state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Ready reports whether the session accepts ApplyEmotion calls
func (s *Session) Ready() bool {
	return s.State() == StateReady
}

// ActiveExpression returns the hotkey name believed to be on, or "" if none.
// It never waits on an in-flight request.
func (s *Session) ActiveExpression() string {
	return s.activeName()
}

func (s *Session) activeName() string {
	name, _ := s.active.Load().(string)
	return name
}

// Catalog exposes the hotkey cache
func (s *Session) Catalog() *HotkeyCatalog {
	return s.catalog
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() {
	<-s.sem
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
