package entities

import "testing"

func TestParseEmotion(t *testing.T) {
	tests := []struct {
		in      string
		want    Emotion
		wantErr bool
	}{
		{in: "angry", want: EmotionAngry},
		{in: "  Happy ", want: EmotionHappy},
		{in: "CONCERNED", want: EmotionConcerned},
		{in: "bored", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEmotion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEmotion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEmotion(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultHotkeysCoverAllEmotions(t *testing.T) {
	hotkeys := DefaultHotkeys()
	for _, e := range AllEmotions {
		if hotkeys[e] == "" {
			t.Errorf("Expected a default hotkey for %s", e)
		}
		if e.Emoji() == "" {
			t.Errorf("Expected an emoji for %s", e)
		}
	}
}

func TestConversationTurnBotLine(t *testing.T) {
	turn := &ConversationTurn{
		UserText: "I'm furious about this!",
		Emotion:  EmotionScore{Label: EmotionAngry, Score: -0.6912},
	}

	got := turn.BotLine("I hear you.")
	want := "Bot [angry | -0.69]: I hear you."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	turn.Emotion = EmotionScore{Label: EmotionNeutral, Score: 0}
	if got := turn.BotLine("ok"); got != "Bot [neutral | +0.00]: ok" {
		t.Errorf("Unexpected line for zero score: %q", got)
	}
}

func TestConversationTurnValidate(t *testing.T) {
	turn := &ConversationTurn{
		UserText: "hello",
		Emotion:  EmotionScore{Label: EmotionHappy, Score: 0.4},
	}
	if err := turn.Validate(); err != nil {
		t.Errorf("Valid turn should not have validation errors, got: %v", err)
	}

	turn.Emotion.Score = 1.5
	if err := turn.Validate(); err == nil {
		t.Error("Turn with score out of range should have validation error")
	}

	turn.Emotion = EmotionScore{Label: "bored"}
	if err := turn.Validate(); err == nil {
		t.Error("Turn with unknown label should have validation error")
	}
}
