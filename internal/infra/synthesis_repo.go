package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/Vovarama1992/voice_cascade/internal/ports"
)

const synthesisSchema = `
CREATE TABLE IF NOT EXISTS synthesis_records (
	id           BIGSERIAL PRIMARY KEY,
	request_id   TEXT NOT NULL,
	text_chars   INTEGER NOT NULL,
	voice_id     TEXT,
	tier         TEXT NOT NULL,
	failures     TEXT[] NOT NULL DEFAULT '{}',
	artifact_url TEXT,
	duration_sec DOUBLE PRECISION,
	elapsed_ms   BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS tts_auth (
	password TEXT NOT NULL
);
`

type synthesisRepo struct {
	db *sql.DB
}

func NewSynthesisRepo(db *sql.DB) ports.SynthesisRepo {
	return &synthesisRepo{db: db}
}

// EnsureSchema создаёт таблицы, если их ещё нет.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, synthesisSchema)
	return err
}

func (r *synthesisRepo) Create(ctx context.Context, rec ports.SynthesisRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	failures := rec.Failures
	if failures == nil {
		failures = []string{}
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO synthesis_records
			(request_id, text_chars, voice_id, tier, failures, artifact_url, duration_sec, elapsed_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		rec.RequestID,
		rec.TextChars,
		rec.VoiceID,
		rec.Tier,
		pq.Array(failures),
		rec.ArtifactURL,
		rec.DurationSec,
		rec.ElapsedMS,
		rec.CreatedAt,
	).Scan(&id)
	return id, err
}

func (r *synthesisRepo) ListRecent(ctx context.Context, limit int) ([]ports.SynthesisRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, text_chars, voice_id, tier, failures, artifact_url, duration_sec, elapsed_ms, created_at
		FROM synthesis_records
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.SynthesisRecord
	for rows.Next() {
		var rec ports.SynthesisRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.RequestID,
			&rec.TextChars,
			&rec.VoiceID,
			&rec.Tier,
			pq.Array(&rec.Failures),
			&rec.ArtifactURL,
			&rec.DurationSec,
			&rec.ElapsedMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *synthesisRepo) CountByTier(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tier, COUNT(*)
		FROM synthesis_records
		GROUP BY tier
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		stats[tier] = n
	}
	return stats, rows.Err()
}
