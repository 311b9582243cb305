package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/config"
	"github.com/spec-kit/intake-assistant/internal/domain"
	"github.com/spec-kit/intake-assistant/internal/persistence"
)

const statusKeyPrefix = "intake:status:"

// StatusService keeps the per-session progress log in Redis so clients
// can poll pipeline progress. Every operation is best-effort: a Redis
// outage degrades progress reporting, never the pipeline itself.
type StatusService struct {
	redis     *persistence.Redis
	retention time.Duration
	logger    *zap.Logger
}

// NewStatusService builds the tracker.
func NewStatusService(redis *persistence.Redis, cfg config.StatusConfig, logger *zap.Logger) *StatusService {
	return &StatusService{redis: redis, retention: cfg.Retention(), logger: logger}
}

// Init starts a fresh status log, generating a session id when none is
// supplied, and returns the session id in use.
func (s *StatusService) Init(ctx context.Context, sessionID string) string {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	log := &domain.StatusLog{
		SessionID: sessionID,
		Steps:     []domain.StatusStep{},
		StartedAt: time.Now().UnixMilli(),
	}
	s.save(ctx, log)
	return sessionID
}

// Update appends a step transition to the session log. Marking a step
// active makes it the current step; completing or failing it clears the
// current marker.
func (s *StatusService) Update(ctx context.Context, sessionID, step string, state domain.StepState, message string) {
	log := s.load(ctx, sessionID)
	if log == nil {
		log = &domain.StatusLog{
			SessionID: sessionID,
			Steps:     []domain.StatusStep{},
			StartedAt: time.Now().UnixMilli(),
		}
	}

	entry := domain.StatusStep{
		Name:      step,
		State:     state,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
	log.Steps = append(log.Steps, entry)
	if state == domain.StepActive {
		log.CurrentStep = &entry
	} else if log.CurrentStep != nil && log.CurrentStep.Name == step {
		log.CurrentStep = nil
	}

	s.save(ctx, log)
}

// Get returns the session log, or nil when unknown or expired.
func (s *StatusService) Get(ctx context.Context, sessionID string) *domain.StatusLog {
	return s.load(ctx, sessionID)
}

func (s *StatusService) load(ctx context.Context, sessionID string) *domain.StatusLog {
	if s.redis == nil || s.redis.Client == nil {
		return nil
	}

	raw, err := s.redis.Client.Get(ctx, statusKeyPrefix+sessionID).Result()
	if err != nil {
		return nil
	}

	var log domain.StatusLog
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		s.logger.Warn("corrupt status log", zap.String("session", sessionID), zap.Error(err))
		return nil
	}
	return &log
}

func (s *StatusService) save(ctx context.Context, log *domain.StatusLog) {
	if s.redis == nil || s.redis.Client == nil {
		return
	}

	raw, err := json.Marshal(log)
	if err != nil {
		s.logger.Warn("status log marshal failed", zap.Error(err))
		return
	}
	if err := s.redis.Client.Set(ctx, statusKeyPrefix+log.SessionID, raw, s.retention).Err(); err != nil {
		s.logger.Warn("status log write failed", zap.String("session", log.SessionID), zap.Error(err))
	}
}
