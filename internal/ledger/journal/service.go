package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pharos-erp/pharos-erp/internal/ledger"
)

// CacheInvalidator bumps derived-data caches after the journal changes.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service coordinates validation and persistence of journal entries.
type Service struct {
	repo   Repository
	cache  CacheInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the journal service.
func NewService(logger *slog.Logger, repo Repository, cache CacheInvalidator) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Append validates and persists a new balanced journal entry. Nothing is
// written when validation fails; the entry lands whole or not at all.
func (s *Service) Append(ctx context.Context, in ledger.PostingInput) (ledger.JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return ledger.JournalEntry{}, err
	}
	entry, err := s.repo.Insert(ctx, in)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	s.bump(ctx)
	return entry, nil
}

// List returns all entries, newest first.
func (s *Service) List(ctx context.Context) ([]ledger.JournalEntry, error) {
	return s.repo.List(ctx)
}

// Delete removes a single entry by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// DeleteBySource cascades removal of every entry a business object
// created, returning the number of entries removed.
func (s *Service) DeleteBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) (int64, error) {
	removed, err := s.repo.DeleteBySource(ctx, sourceType, sourceID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.bump(ctx)
	}
	return removed, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump statement cache", slog.Any("error", err))
	}
}
