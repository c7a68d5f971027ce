package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const defaultRemoteTimeout = 30 * time.Second

// wireRequest — поля, которые ждут edge-функция и бэкенд.
type wireRequest struct {
	Text            string   `json:"text"`
	VoiceID         string   `json:"voice_id,omitempty"`
	Stability       *float64 `json:"stability,omitempty"`
	SimilarityBoost *float64 `json:"similarity_boost,omitempty"`
	Style           *float64 `json:"style,omitempty"`
	UseSpeakerBoost *bool    `json:"use_speaker_boost,omitempty"`
}

func toWire(req Request) wireRequest {
	w := wireRequest{Text: req.Text, VoiceID: req.VoiceID}
	if sh := req.Shaping; sh != nil {
		w.Stability = &sh.Stability
		w.SimilarityBoost = &sh.SimilarityBoost
		w.Style = &sh.Style
		w.UseSpeakerBoost = &sh.SpeakerBoost
	}
	return w
}

// RemoteClient talks the `{text, voice_id, ...} → {success, audio}` contract.
// Used for the edge function (primary) and the backend (secondary).
type RemoteClient struct {
	name     string
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewRemoteClient(name, endpoint, apiKey string, timeout time.Duration) *RemoteClient {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &RemoteClient{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *RemoteClient) Name() string {
	return c.name
}

func (c *RemoteClient) Synthesize(ctx context.Context, req Request) (*Reply, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(toWire(req)); err != nil {
		return nil, fmt.Errorf("encode tts request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tts non 2xx: %d, body=%s", resp.StatusCode, string(b))
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode tts response: %w", err)
	}
	return &reply, nil
}
