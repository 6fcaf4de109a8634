package entities

import (
	"errors"
	"fmt"
	"time"
)

// ConversationTurn represents one user/bot exchange. Turns are never persisted.
type ConversationTurn struct {
	UserText  string        `json:"user_text"`
	ReplyText string        `json:"reply_text"`
	Emotion   EmotionScore  `json:"emotion"`
	User      EmotionScore  `json:"user_emotion"`
	Reply     EmotionScore  `json:"reply_emotion"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// BotLine renders the console line for the turn, e.g. "Bot [angry | -0.69]: text"
func (t *ConversationTurn) BotLine(reply string) string {
	return fmt.Sprintf("Bot [%s | %+.2f]: %s", t.Emotion.Label, t.Emotion.Score, reply)
}

// Validate validates the turn data
func (t *ConversationTurn) Validate() error {
	if t.UserText == "" {
		return errors.New("user text is required")
	}
	if !t.Emotion.Label.Valid() {
		return fmt.Errorf("invalid emotion %q", t.Emotion.Label)
	}
	if t.Emotion.Score < -1 || t.Emotion.Score > 1 {
		return fmt.Errorf("emotion score %f out of range", t.Emotion.Score)
	}
	return nil
}
