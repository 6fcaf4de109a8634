package vtubestudio

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

type recordedRequest struct {
	RequestID   string
	MessageType string
	HotkeyID    string
	Token       string
}

// fakeHost speaks enough of the host API for session tests
type fakeHost struct {
	mu       sync.Mutex
	requests []recordedRequest

	hotkeys       []Hotkey
	issueToken    string
	acceptToken   string
	ignoreToken   bool
	rejectList    bool
	rejectTrigger bool

	server *httptest.Server
}

func newFakeHost(t *testing.T, configure func(h *fakeHost)) *fakeHost {
	t.Helper()
	h := &fakeHost{
		hotkeys: []Hotkey{
			{Name: "Happy", Type: HotkeyTypeToggleExpression, HotkeyID: "id-happy"},
			{Name: "Angry", Type: HotkeyTypeToggleExpression, HotkeyID: "id-angry"},
			{Name: "Neutral", Type: HotkeyTypeToggleExpression, HotkeyID: "id-neutral"},
			{Name: "Wave", Type: "TriggerAnimation", HotkeyID: "id-wave"},
			{Name: "  ", Type: HotkeyTypeToggleExpression, HotkeyID: "id-blank"},
		},
		issueToken:  "issued-token",
		acceptToken: "issued-token",
	}
	if configure != nil {
		configure(h)
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		h.serve(conn)
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *fakeHost) serve(conn *websocket.Conn) {
	for {
		var req struct {
			RequestID   string          `json:"requestID"`
			MessageType string          `json:"messageType"`
			Data        json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		var data struct {
			HotkeyID            string `json:"hotkeyID"`
			AuthenticationToken string `json:"authenticationToken"`
		}
		_ = json.Unmarshal(req.Data, &data)

		h.mu.Lock()
		h.requests = append(h.requests, recordedRequest{
			RequestID:   req.RequestID,
			MessageType: req.MessageType,
			HotkeyID:    data.HotkeyID,
			Token:       data.AuthenticationToken,
		})
		hotkeys := append([]Hotkey(nil), h.hotkeys...)
		h.mu.Unlock()

		var reply interface{}
		switch req.MessageType {
		case MessageTypeTokenRequest:
			if h.ignoreToken {
				continue
			}
			if h.issueToken == "" {
				reply = apiError(req.RequestID, 50, "User has denied API access for your plugin.")
				break
			}
			reply = response(req.RequestID, "AuthenticationTokenResponse", TokenResponseData{AuthenticationToken: h.issueToken})
		case MessageTypeAuthRequest:
			ok := data.AuthenticationToken == h.acceptToken
			reply = response(req.RequestID, "AuthenticationResponse", AuthResponseData{Authenticated: ok, Reason: "token checked"})
		case MessageTypeHotkeyList:
			if h.rejectList {
				reply = apiError(req.RequestID, 8, "No model loaded.")
				break
			}
			reply = response(req.RequestID, "HotkeysInCurrentModelResponse", HotkeyListResponseData{ModelLoaded: true, AvailableHotkeys: hotkeys})
		case MessageTypeHotkeyTrigger:
			if h.rejectTrigger {
				reply = apiError(req.RequestID, 200, "hotkey cannot be triggered")
				break
			}
			reply = response(req.RequestID, "HotkeyTriggerResponse", HotkeyTriggerData{HotkeyID: data.HotkeyID})
		default:
			reply = apiError(req.RequestID, 1, "unknown message type")
		}

		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func response(requestID, messageType string, data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"apiName":     apiName,
		"apiVersion":  apiVersion,
		"requestID":   requestID,
		"messageType": messageType,
		"data":        data,
	}
}

func apiError(requestID string, errorID int, message string) map[string]interface{} {
	return response(requestID, MessageTypeAPIError, map[string]interface{}{
		"errorID": errorID,
		"message": message,
	})
}

func (h *fakeHost) addHotkey(hotkey Hotkey) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hotkeys = append(h.hotkeys, hotkey)
}

func (h *fakeHost) snapshot() []recordedRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recordedRequest(nil), h.requests...)
}

func (h *fakeHost) count(messageType string) int {
	n := 0
	for _, r := range h.snapshot() {
		if r.MessageType == messageType {
			n++
		}
	}
	return n
}

func (h *fakeHost) messageTypes() []string {
	var types []string
	for _, r := range h.snapshot() {
		types = append(types, r.MessageType)
	}
	return types
}

func (h *fakeHost) triggered() []string {
	var ids []string
	for _, r := range h.snapshot() {
		if r.MessageType == MessageTypeHotkeyTrigger {
			ids = append(ids, r.HotkeyID)
		}
	}
	return ids
}

// config points a session at the fake host
func (h *fakeHost) config(t *testing.T) Config {
	t.Helper()
	u, err := url.Parse(h.server.URL)
	if err != nil {
		t.Fatalf("Failed to parse server URL: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("Failed to split host: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return Config{Host: host, Port: port}
}

// memoryTokenStore is an in-memory TokenStore
type memoryTokenStore struct {
	mu      sync.Mutex
	token   string
	cleared bool
}

func (m *memoryTokenStore) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memoryTokenStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memoryTokenStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared = true
	return nil
}

func tokenStoreOrNil(m *memoryTokenStore) repositories.TokenStore {
	if m == nil {
		return nil
	}
	return m
}
