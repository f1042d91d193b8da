package service

import (
	"context"
	"strings"
	"time"

	"staybook/internal/domain"
	"staybook/internal/flow"
	"staybook/internal/metrics"
	"staybook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionService keeps booking drafts between funnel steps, keyed by flow id.
// Flows expire with the repository TTL when abandoned.
type SessionService struct {
	repo   flow.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewSessionService(repo flow.Repository, logger *zerolog.Logger) *SessionService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SessionService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *SessionService) Begin(ctx context.Context, draft models.BookingDraft) (*flow.Flow, error) {
	f := flow.New(uuid.NewString(), draft, s.now().UTC())
	f.SetClock(s.now)
	if err := s.repo.SaveFlow(ctx, f); err != nil {
		s.logger.Error().Err(err).Str("flow_id", f.ID).Msg("failed to save new flow")
		return nil, err
	}
	metrics.IncFlowTransition(string(f.State))
	return f, nil
}

func (s *SessionService) Get(ctx context.Context, flowID string) (*flow.Flow, error) {
	flowID = strings.TrimSpace(flowID)
	if flowID == "" {
		return nil, domain.ErrFlowNotFound
	}
	f, err := s.repo.GetFlow(ctx, flowID)
	if err != nil {
		s.logger.Error().Err(err).Str("flow_id", flowID).Msg("failed to get flow")
		return nil, err
	}
	if f == nil {
		return nil, domain.ErrFlowNotFound
	}
	f.SetClock(s.now)
	return f, nil
}

func (s *SessionService) Save(ctx context.Context, f *flow.Flow) error {
	if err := s.repo.SaveFlow(ctx, f); err != nil {
		s.logger.Error().Err(err).Str("flow_id", f.ID).Msg("failed to save flow")
		return err
	}
	return nil
}

// End discards the draft. Ending an unknown flow is not an error.
func (s *SessionService) End(ctx context.Context, flowID string) error {
	return s.repo.DeleteFlow(ctx, flowID)
}
