package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

var openAIVoices = map[string]openai.SpeechVoice{
	"alloy":   openai.VoiceAlloy,
	"echo":    openai.VoiceEcho,
	"fable":   openai.VoiceFable,
	"onyx":    openai.VoiceOnyx,
	"nova":    openai.VoiceNova,
	"shimmer": openai.VoiceShimmer,
}

// OpenAISpeechClient — запасной бэкенд через OpenAI TTS.
// Shaping параметры OpenAI не поддерживает, они игнорируются.
type OpenAISpeechClient struct {
	client *openai.Client
}

func NewOpenAISpeechClient(apiKey, baseURL string) *OpenAISpeechClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAISpeechClient{client: openai.NewClientWithConfig(cfg)}
}

func (c *OpenAISpeechClient) Name() string {
	return "openai"
}

func (c *OpenAISpeechClient) Synthesize(ctx context.Context, req Request) (*Reply, error) {
	voice, ok := openAIVoices[req.VoiceID]
	if !ok {
		voice = openai.VoiceAlloy
	}

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read openai audio: %w", err)
	}
	if len(data) == 0 {
		return &Reply{Success: false, Error: "empty audio body"}, nil
	}
	return &Reply{Success: true, Audio: base64.StdEncoding.EncodeToString(data)}, nil
}
