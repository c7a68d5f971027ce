package recognition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

const deepgramBaseURL = "https://api.deepgram.com/v1"

type DeepgramClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewDeepgramClient(apiKey, baseURL string) *DeepgramClient {
	if baseURL == "" {
		baseURL = deepgramBaseURL
	}
	return &DeepgramClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *DeepgramClient) Transcribe(ctx context.Context, filePath, lang string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}

	q := url.Values{}
	q.Set("model", "nova-2")
	q.Set("smart_format", "true")
	q.Set("language", lang)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/listen?"+q.Encode(),
		bytes.NewReader(data),
	)
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepgram error: %s", body)
	}

	var parsed struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode deepgram: %w", err)
	}

	if len(parsed.Results.Channels) == 0 ||
		len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}
