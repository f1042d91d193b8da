package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"staybook/internal/flow"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverFlowRepository uses redis while it answers and falls back to memory when it doesn't.
type FailoverFlowRepository struct {
	primary  flow.Repository
	fallback flow.Repository
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverFlowRepository(primary, fallback flow.Repository, logger *zerolog.Logger) *FailoverFlowRepository {
	return &FailoverFlowRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverFlowRepository) GetFlow(ctx context.Context, flowID string) (*flow.Flow, error) {
	if r.usePrimary() {
		f, err := r.primary.GetFlow(ctx, flowID)
		if err == nil {
			r.markUp()
			if f != nil {
				return f, nil
			}
			// the flow may have been saved to memory while redis was down
			return r.promote(ctx, flowID)
		}
		r.markDown(err)
	}

	return r.fallback.GetFlow(ctx, flowID)
}

// promote moves a flow found only in the fallback back into redis.
func (r *FailoverFlowRepository) promote(ctx context.Context, flowID string) (*flow.Flow, error) {
	f, err := r.fallback.GetFlow(ctx, flowID)
	if err != nil || f == nil {
		return f, err
	}
	if err := r.primary.SaveFlow(ctx, f); err != nil {
		r.logger.Warn().Err(err).Str("flow_id", flowID).Msg("Failed to copy flow back to primary repository")
		return f, nil
	}
	if err := r.fallback.DeleteFlow(ctx, flowID); err != nil {
		r.logger.Warn().Err(err).Str("flow_id", flowID).Msg("Failed to drop promoted flow from fallback")
	}
	return f, nil
}

func (r *FailoverFlowRepository) SaveFlow(ctx context.Context, f *flow.Flow) error {
	if r.usePrimary() {
		err := r.primary.SaveFlow(ctx, f)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SaveFlow(ctx, f)
}

func (r *FailoverFlowRepository) DeleteFlow(ctx context.Context, flowID string) error {
	// a flow may live in either store depending on when redis failed
	fallbackErr := r.fallback.DeleteFlow(ctx, flowID)
	if r.usePrimary() {
		err := r.primary.DeleteFlow(ctx, flowID)
		if err == nil {
			r.markUp()
			return fallbackErr
		}
		r.markDown(err)
	}
	return fallbackErr
}

// usePrimary is true while redis is healthy, and once per recovery interval while it is down.
func (r *FailoverFlowRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) > recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverFlowRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary flow repository failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverFlowRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary flow repository recovered")
	}
}
