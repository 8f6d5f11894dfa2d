package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

const proposalKeyPrefix = "timetable:proposal:"

type proposalCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type proposalLookupRecorder interface {
	RecordProposalLookup(backend string, hit bool)
}

// generationProposal is a generated set of options waiting to be saved.
type generationProposal struct {
	ID        string                `json:"id"`
	Mode      dto.GenerationMode    `json:"mode"`
	Seed      int64                 `json:"seed"`
	Counts    models.SnapshotCounts `json:"counts"`
	Options   []dto.TimetableOption `json:"options"`
	CreatedAt time.Time             `json:"createdAt"`
}

// proposalStore keeps proposals in Redis when configured and in process memory otherwise.
// A failed Redis write falls back to memory so a proposal is never lost between generate and save.
type proposalStore struct {
	ttl     time.Duration
	cache   proposalCache
	metrics proposalLookupRecorder
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.RWMutex
	items map[string]generationProposal
}

func newProposalStore(ttl time.Duration, cache proposalCache, metrics proposalLookupRecorder, logger *zap.Logger) *proposalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &proposalStore{
		ttl:     ttl,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		items:   make(map[string]generationProposal),
	}
}

func (s *proposalStore) redis() bool {
	return s.cache != nil && s.cache.Enabled()
}

func (s *proposalStore) Save(ctx context.Context, proposal generationProposal) {
	if s.redis() {
		err := s.cache.Set(ctx, proposalKeyPrefix+proposal.ID, proposal, s.ttl)
		if err == nil {
			return
		}
		s.logger.Warn("proposal cache write failed, keeping in memory", zap.String("proposal_id", proposal.ID), zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.items[proposal.ID] = proposal
}

func (s *proposalStore) Get(ctx context.Context, id string) (generationProposal, bool) {
	if s.redis() {
		var proposal generationProposal
		err := s.cache.Get(ctx, proposalKeyPrefix+id, &proposal)
		switch {
		case err == nil:
			s.record("redis", true)
			return proposal, true
		case errors.Is(err, appErrors.ErrCacheMiss):
			s.record("redis", false)
		default:
			s.logger.Warn("proposal cache read failed", zap.String("proposal_id", id), zap.Error(err))
		}
	}

	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if ok && s.now().Sub(proposal.CreatedAt) > s.ttl {
		s.Delete(ctx, id)
		ok = false
	}
	s.record("memory", ok)
	if !ok {
		return generationProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(ctx context.Context, id string) {
	if s.redis() {
		if err := s.cache.Delete(ctx, proposalKeyPrefix+id); err != nil {
			s.logger.Warn("proposal cache delete failed", zap.String("proposal_id", id), zap.Error(err))
		}
	}
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *proposalStore) sweepLocked() {
	now := s.now()
	for id, proposal := range s.items {
		if now.Sub(proposal.CreatedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}

func (s *proposalStore) record(backend string, hit bool) {
	if s.metrics != nil {
		s.metrics.RecordProposalLookup(backend, hit)
	}
}
