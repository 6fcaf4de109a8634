package vtubestudio

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
)

const (
	apiName    = "VTubeStudioPublicAPI"
	apiVersion = "1.0"
)

// Message types used by the session
const (
	MessageTypeTokenRequest  = "AuthenticationTokenRequest"
	MessageTypeAuthRequest   = "AuthenticationRequest"
	MessageTypeHotkeyList    = "HotkeysInCurrentModelRequest"
	MessageTypeHotkeyTrigger = "HotkeyTriggerRequest"
	MessageTypeAPIError      = "APIError"
)

// HotkeyTypeToggleExpression marks hotkeys that toggle an expression
const HotkeyTypeToggleExpression = "ToggleExpression"

// Request is the envelope of every message sent to the host
type Request struct {
	APIName     string      `json:"apiName"`
	APIVersion  string      `json:"apiVersion"`
	RequestID   string      `json:"requestID"`
	MessageType string      `json:"messageType"`
	Data        interface{} `json:"data"`
}

// Response is the envelope of every message received from the host
type Response struct {
	APIName     string          `json:"apiName"`
	APIVersion  string          `json:"apiVersion"`
	Timestamp   int64           `json:"timestamp,omitempty"`
	RequestID   string          `json:"requestID"`
	MessageType string          `json:"messageType"`
	ErrorID     *int            `json:"errorID,omitempty"`
	Data        json.RawMessage `json:"data"`
}

// TokenRequestData asks the host to issue a plugin token
type TokenRequestData struct {
	PluginName      string `json:"pluginName"`
	PluginDeveloper string `json:"pluginDeveloper"`
	PluginIcon      string `json:"pluginIcon,omitempty"`
}

// TokenResponseData carries the issued token
type TokenResponseData struct {
	AuthenticationToken string `json:"authenticationToken"`
}

// AuthRequestData authenticates the plugin with a token
type AuthRequestData struct {
	PluginName          string `json:"pluginName"`
	PluginDeveloper     string `json:"pluginDeveloper"`
	AuthenticationToken string `json:"authenticationToken"`
}

// AuthResponseData reports whether authentication succeeded
type AuthResponseData struct {
	Authenticated bool   `json:"authenticated"`
	Reason        string `json:"reason,omitempty"`
}

// Hotkey is one entry of the model's hotkey list
type Hotkey struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	HotkeyID string `json:"hotkeyID"`
}

// HotkeyListResponseData lists the hotkeys of the loaded model
type HotkeyListResponseData struct {
	ModelLoaded      bool     `json:"modelLoaded"`
	ModelName        string   `json:"modelName,omitempty"`
	AvailableHotkeys []Hotkey `json:"availableHotkeys"`
}

// HotkeyTriggerData triggers one hotkey by id
type HotkeyTriggerData struct {
	HotkeyID string `json:"hotkeyID"`
}

// APIErrorData is the payload of an APIError message
type APIErrorData struct {
	ErrorID *int   `json:"errorID,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewRequest builds a request envelope. The request id is the prefix plus a short unique suffix.
func NewRequest(prefix, messageType string, data interface{}) Request {
	if data == nil {
		data = struct{}{}
	}
	return Request{
		APIName:     apiName,
		APIVersion:  apiVersion,
		RequestID:   fmt.Sprintf("%s_%s", prefix, uuid.NewString()[:8]),
		MessageType: messageType,
		Data:        data,
	}
}

// HostError reports an explicit host error carried by the response, or nil.
// An error is an APIError message type or an errorID at the top level or inside data.
func (r *Response) HostError(requestType string) error {
	var payload APIErrorData
	if len(r.Data) > 0 {
		// Non-object data cannot carry an error id.
		_ = json.Unmarshal(r.Data, &payload)
	}

	if r.MessageType != MessageTypeAPIError && r.ErrorID == nil && payload.ErrorID == nil {
		return nil
	}

	errorID := -1
	switch {
	case payload.ErrorID != nil:
		errorID = *payload.ErrorID
	case r.ErrorID != nil:
		errorID = *r.ErrorID
	}

	return &domain.HostRejectedError{
		RequestType: requestType,
		ErrorID:     errorID,
		Message:     payload.Message,
		Payload:     r.Data,
	}
}

// Decode unmarshals the response data into v
func (r *Response) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("response %s has no data", r.MessageType)
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", r.MessageType, err)
	}
	return nil
}
