package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/jobs"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/messaging"
)

const notificationJobType = "notification.send"

// NotificationServiceConfig tunes the delivery worker pool.
type NotificationServiceConfig struct {
	Enabled    bool
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// NotificationService hands notifications to a background queue that publishes them.
// Send never blocks scheduling and never reports delivery failures to the caller.
type NotificationService struct {
	publisher messaging.Publisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	enabled   bool
}

// NewNotificationService constructs the service. Call Start before sending.
func NewNotificationService(publisher messaging.Publisher, metrics *MetricsService, logger *zap.Logger, cfg NotificationServiceConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       utcNow,
		enabled:   cfg.Enabled && publisher != nil,
	}
	svc.queue = jobs.NewQueue("notifications", svc.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains workers and closes the publisher.
func (s *NotificationService) Stop() {
	if !s.enabled {
		return
	}
	s.queue.Stop()
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("close notification publisher", zap.Error(err))
	}
}

// Send queues a notification for userID.
func (s *NotificationService) Send(_ context.Context, userID, title, message string, related models.RelatedEntity) {
	if s == nil || !s.enabled || userID == "" {
		return
	}
	n := models.Notification{
		ID:            uuid.NewString(),
		Type:          related.Event,
		UserID:        userID,
		Title:         title,
		Message:       message,
		RelatedEntity: related.Kind,
		RelatedID:     related.ID,
		CreatedAt:     s.now(),
	}
	if err := s.queue.Enqueue(jobs.Job{ID: n.ID, Type: notificationJobType, Payload: n}); err != nil {
		s.metrics.NotificationResult(false)
		s.logger.Warn("notification dropped", zap.String("user_id", userID), zap.String("title", title), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.publisher.Publish(ctx, messaging.Message{ID: n.ID, Type: n.Type, Key: n.UserID, Payload: payload}); err != nil {
		s.metrics.NotificationResult(false)
		return err
	}
	s.metrics.NotificationResult(true)
	return nil
}
