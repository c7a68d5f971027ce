package error_notificator

import (
	"context"
	"sync"
	"time"
)

const defaultCooldown = time.Minute

// Service гасит повторы: пока провайдер лежит, админу уходит одно сообщение в cooldown.
type Service struct {
	infra    Notificator
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewService(infra Notificator, cooldown time.Duration) *Service {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Service{infra: infra, cooldown: cooldown, now: time.Now}
}

func (s *Service) Notify(ctx context.Context, err error, details string) error {
	s.mu.Lock()
	now := s.now()
	if !s.last.IsZero() && now.Sub(s.last) < s.cooldown {
		s.mu.Unlock()
		return nil
	}
	s.last = now
	s.mu.Unlock()

	return s.infra.Notify(ctx, err, details)
}
