package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io/v1"
	elevenLabsDefaultVoice = "21m00Tcm4TlvDq8ikWAM" // Rachel
	elevenLabsDefaultModel = "eleven_multilingual_v2"
)

type ElevenLabsClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewElevenLabsClient(apiKey, baseURL string) *ElevenLabsClient {
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}
	return &ElevenLabsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   elevenLabsDefaultModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *ElevenLabsClient) Name() string {
	return "elevenlabs"
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsRequest struct {
	Text          string                   `json:"text"`
	ModelID       string                   `json:"model_id"`
	VoiceSettings *elevenLabsVoiceSettings `json:"voice_settings,omitempty"`
}

// TEXT → SPEECH. ElevenLabs отдаёт сырой mp3, заворачиваем в base64.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, req Request) (*Reply, error) {
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = elevenLabsDefaultVoice
	}

	body := elevenLabsRequest{Text: req.Text, ModelID: c.model}
	if sh := req.Shaping; sh != nil {
		body.VoiceSettings = &elevenLabsVoiceSettings{
			Stability:       sh.Stability,
			SimilarityBoost: sh.SimilarityBoost,
			Style:           sh.Style,
			UseSpeakerBoost: sh.SpeakerBoost,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs error: %s", string(b))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read elevenlabs audio: %w", err)
	}
	if len(data) == 0 {
		return &Reply{Success: false, Error: "empty audio body"}, nil
	}

	return &Reply{Success: true, Audio: base64.StdEncoding.EncodeToString(data)}, nil
}
