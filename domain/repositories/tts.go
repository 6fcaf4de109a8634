package repositories

import "context"

// TextToSpeech converts text into a stream of encoded audio chunks.
// The returned channel is closed when the stream ends.
type TextToSpeech interface {
	ConvertTextToSpeech(ctx context.Context, text string) (<-chan []byte, error)
}

// Speaker says text out loud and blocks until playback finishes or fails.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Close() error
}
