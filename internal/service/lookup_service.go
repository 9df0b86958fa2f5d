package service

import (
	"context"
	"fmt"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/PetLahev/fivb-monitor/internal/store"
)

// LookupService resolves the two public addressing schemes onto a
// tournament: the external tournament number and the composite code.
type LookupService struct {
	store        *store.EntityStore
	eventCodeLen int
	eventPrefix  string
}

func NewLookupService(store *store.EntityStore, eventCodeLen int, eventPrefix string) *LookupService {
	return &LookupService{store: store, eventCodeLen: eventCodeLen, eventPrefix: eventPrefix}
}

func (s *LookupService) ByTournamentNo(ctx context.Context, fivbNo int64) (*roster.TournamentInfo, error) {
	return s.store.GetTournamentInfoByNo(ctx, fivbNo)
}

// ByCode parses a code such as "MITA2025". Malformed codes fail with
// roster.ErrFormat; an unknown event or a missing gender draw with
// roster.ErrNotFound.
func (s *LookupService) ByCode(ctx context.Context, code string) (*roster.TournamentInfo, error) {
	c, err := roster.ParseCode(code, s.eventCodeLen, s.eventPrefix)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.EventCodeExists(ctx, c.Composed)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("event %s: %w", c.Composed, roster.ErrNotFound)
	}
	return s.store.GetTournamentInfoByEventCode(ctx, c.Composed, c.Gender)
}
