package entities

import (
	"fmt"
	"strings"
)

// Emotion is one of a fixed set of discrete moods
type Emotion string

const (
	EmotionExcited   Emotion = "excited"
	EmotionHappy     Emotion = "happy"
	EmotionNeutral   Emotion = "neutral"
	EmotionConcerned Emotion = "concerned"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
)

// AllEmotions lists every label in positive-to-negative order
var AllEmotions = []Emotion{
	EmotionExcited,
	EmotionHappy,
	EmotionNeutral,
	EmotionConcerned,
	EmotionSad,
	EmotionAngry,
}

// emotionEmoji decorates replies in the emoji front ends
var emotionEmoji = map[Emotion]string{
	EmotionExcited:   "🤩",
	EmotionHappy:     "😊",
	EmotionNeutral:   "😐",
	EmotionConcerned: "😟",
	EmotionSad:       "😔",
	EmotionAngry:     "😠",
}

// ParseEmotion normalises a label, rejecting anything outside the closed set
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", fmt.Errorf("unknown emotion %q", s)
	}
	return e, nil
}

// Valid reports whether e is one of the known labels
func (e Emotion) Valid() bool {
	_, ok := emotionEmoji[e]
	return ok
}

// Emoji returns the emoji for e, or "" for unknown labels
func (e Emotion) Emoji() string {
	return emotionEmoji[e]
}

func (e Emotion) String() string {
	return string(e)
}

// EmotionScore is a classification result. Score is signed, in [-1, 1].
type EmotionScore struct {
	Label Emotion `json:"label"`
	Score float64 `json:"score"`
}

// HotkeyMap maps an emotion to the avatar host's trigger name.
// Labels absent from the map are silently skipped.
type HotkeyMap map[Emotion]string

// DefaultHotkeys matches the expression names of the stock avatar model
func DefaultHotkeys() HotkeyMap {
	return HotkeyMap{
		EmotionExcited:   "Happy",
		EmotionHappy:     "Happy",
		EmotionNeutral:   "Neutral",
		EmotionConcerned: "Concern",
		EmotionSad:       "Sad",
		EmotionAngry:     "Angry",
	}
}
