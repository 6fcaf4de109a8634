package tts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain"
)

func TestAzureTTS_SSML(t *testing.T) {
	tts, err := NewAzureTTS(AzureConfig{APIKey: "key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create AzureTTS: %v", err)
	}

	ssml, err := tts.SSML(`Tom & "Jerry" <3`)
	if err != nil {
		t.Fatalf("SSML failed: %v", err)
	}

	for _, want := range []string{
		"<voice name='en-US-AshleyNeural'>",
		"<prosody rate='27%' pitch='+45Hz'>",
		"Tom &amp; &#34;Jerry&#34; &lt;3",
	} {
		if !strings.Contains(ssml, want) {
			t.Errorf("Expected SSML to contain %q, got %s", want, ssml)
		}
	}
}

func TestAzureTTS_ConvertTextToSpeech(t *testing.T) {
	bodies := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("X-Microsoft-OutputFormat") != defaultAzureOutputFormat {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		bodies <- string(body)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-fake-mp3"))
	}))
	defer server.Close()

	tts, err := NewAzureTTS(AzureConfig{APIKey: "key", Endpoint: server.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create AzureTTS: %v", err)
	}

	audioChan, err := tts.ConvertTextToSpeech(context.Background(), "I can hear you.")
	if err != nil {
		t.Fatalf("ConvertTextToSpeech failed: %v", err)
	}
	var audio []byte
	for chunk := range audioChan {
		audio = append(audio, chunk...)
	}

	if string(audio) != "ID3-fake-mp3" {
		t.Errorf("Unexpected audio %q", audio)
	}
	if gotBody := <-bodies; !strings.Contains(gotBody, "I can hear you.") {
		t.Errorf("Expected SSML body with text, got %s", gotBody)
	}
}

func TestAzureTTS_Errors(t *testing.T) {
	if _, err := NewAzureTTS(AzureConfig{}, zap.NewNop()); err == nil {
		t.Error("Expected error when key is missing")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	tts, _ := NewAzureTTS(AzureConfig{APIKey: "key", Endpoint: server.URL}, zap.NewNop())
	if _, err := tts.ConvertTextToSpeech(context.Background(), "hello"); !errors.Is(err, domain.ErrSynthesisFailed) {
		t.Errorf("Expected ErrSynthesisFailed, got %v", err)
	}
	if _, err := tts.ConvertTextToSpeech(context.Background(), " "); !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestAzureTTS_Integration(t *testing.T) {
	key := os.Getenv("AZURE_SPEECH_KEY")
	if key == "" {
		t.Skip("Skipping integration test - set AZURE_SPEECH_KEY")
	}

	tts, err := NewAzureTTS(AzureConfig{APIKey: key, Region: os.Getenv("AZURE_SPEECH_REGION")}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create AzureTTS: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	audioChan, err := tts.ConvertTextToSpeech(ctx, "Hello from the integration test.")
	if err != nil {
		t.Fatalf("ConvertTextToSpeech failed: %v", err)
	}
	total := 0
	for chunk := range audioChan {
		total += len(chunk)
	}
	if total == 0 {
		t.Error("No audio data received")
	}
}
