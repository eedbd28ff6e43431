// Package memory keeps registrations in process memory. It backs local
// development (STORE_BACKEND=memory) and tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/registration/internal/domain"
)

type Store struct {
	mu   sync.RWMutex
	regs []domain.Registration
	now  func() time.Time

	// FailWith, when set, makes every call return it wrapped in
	// domain.ErrPersistence.
	FailWith error
}

func New(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{now: now}
}

func (s *Store) Create(_ context.Context, sub domain.Submission) (domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return domain.Registration{}, fmt.Errorf("%w: %w", domain.ErrPersistence, s.FailWith)
	}
	ts := s.now()
	reg := domain.Registration{
		ID:         uuid.NewString(),
		Submission: sub,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	s.regs = append(s.regs, reg)
	return reg, nil
}

// Get returns the registration with the given id.
func (s *Store) Get(_ context.Context, id string) (domain.Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.regs {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Registration{}, false
}

func (s *Store) Recent(_ context.Context, limit int) ([]domain.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, s.FailWith)
	}
	// newest first; later inserts win ties
	out := make([]domain.Registration, 0, len(s.regs))
	for i := len(s.regs) - 1; i >= 0; i-- {
		out = append(out, s.regs[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrPersistence, s.FailWith)
	}
	return int64(len(s.regs)), nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, s.FailWith)
	}
	return nil
}

func (s *Store) Close(context.Context) error { return nil }
