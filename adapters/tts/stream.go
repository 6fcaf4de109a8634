package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// checkStatus closes the body and reports an error for non-200 responses
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	defer resp.Body.Close()
	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("API returned error %d: %s", resp.StatusCode, string(errorBody))
}

// streamBody copies the response body into a channel of chunks.
// The channel is closed when the body ends, fails, or ctx is done.
func streamBody(ctx context.Context, resp *http.Response, chunkSize int, logger *zap.Logger) <-chan []byte {
	audioChan := make(chan []byte, 10)

	go func() {
		defer close(audioChan)
		defer resp.Body.Close()

		buffer := make([]byte, chunkSize)
		totalBytes := 0
		chunkCount := 0

		for {
			n, err := resp.Body.Read(buffer)
			if n > 0 {
				totalBytes += n
				chunkCount++

				chunk := make([]byte, n)
				copy(chunk, buffer[:n])

				select {
				case audioChan <- chunk:
				case <-ctx.Done():
					logger.Warn("Context cancelled while sending audio chunk")
					return
				}
			}

			if err == io.EOF {
				logger.Debug("Finished streaming audio data",
					zap.Int("totalChunks", chunkCount),
					zap.Int("totalBytes", totalBytes))
				return
			}
			if err != nil {
				logger.Error("Error reading response body", zap.Error(err))
				return
			}
		}
	}()

	return audioChan
}
