package domain

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
	"github.com/Vovarama1992/voice_cascade/internal/ports"
)

type s3Service struct {
	client ports.S3Client
	now    func() time.Time
}

func NewS3Service(client ports.S3Client) ports.ArtifactService {
	return &s3Service{client: client, now: time.Now}
}

// ObjectKey — путь в бакете: tts/<дата>/<id><ext>
func (s *s3Service) ObjectKey(id, ext string) string {
	date := s.now().Format("2006-01-02")
	return fmt.Sprintf("tts/%s/%s%s", date, id, ext)
}

func (s *s3Service) SaveAudio(ctx context.Context, id string, res audio.Result) (string, error) {
	if id == "" {
		return "", fmt.Errorf("id required")
	}

	data, err := res.Bytes()
	if err != nil {
		return "", err
	}

	key := s.ObjectKey(id, res.Extension())
	return s.client.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), res.MIMEType())
}
