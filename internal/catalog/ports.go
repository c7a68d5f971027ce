package catalog

import "context"

// Voice — голос удалённого синтеза.
type Voice struct {
	ID          string `json:"voice_id"`
	Name        string `json:"name"`
	PreviewURL  string `json:"preview_url,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Source fetches the remote voice list.
type Source interface {
	FetchVoices(ctx context.Context) ([]Voice, error)
}
