package ports

import "context"

type HistoryService interface {
	Recent(ctx context.Context, limit int) ([]SynthesisRecord, error)
	TierStats(ctx context.Context) (map[string]int, error)
}
