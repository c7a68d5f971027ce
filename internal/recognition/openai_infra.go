package recognition

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperClient — распознавание через OpenAI Whisper.
type WhisperClient struct {
	client *openai.Client
}

// NewWhisperClient: пустой baseURL означает api.openai.com.
func NewWhisperClient(apiKey, baseURL string) *WhisperClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &WhisperClient{client: openai.NewClientWithConfig(cfg)}
}

func (c *WhisperClient) Transcribe(ctx context.Context, filePath, lang string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: filePath,
		Language: baseLang(lang),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
