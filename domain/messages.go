package domain

// TurnEvent is the payload broadcast to display listeners after every turn
type TurnEvent struct {
	Emotion string `json:"emotion"`
	Reply   string `json:"reply"`
	User    string `json:"user"`
}

// ChatInputMessage is an inbound web chat frame. Either field may carry the text.
type ChatInputMessage struct {
	Text    string `json:"text"`
	Message string `json:"message"`
}

// Content returns the first non-empty text field
func (m ChatInputMessage) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Message
}
