package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

type expiringGroupStore interface {
	ListActive(ctx context.Context) ([]models.Group, error)
	Deactivate(ctx context.Context, id string) (bool, error)
}

type groupLessonHistory interface {
	ListByGroup(ctx context.Context, groupID string) ([]models.GroupLesson, error)
}

// GroupExpiryService deactivates groups whose every lesson slot has ended.
type GroupExpiryService struct {
	groups  expiringGroupStore
	lessons groupLessonHistory
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewGroupExpiryService constructs the sweep service.
func NewGroupExpiryService(groups expiringGroupStore, lessons groupLessonHistory, metrics *MetricsService, logger *zap.Logger) *GroupExpiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupExpiryService{groups: groups, lessons: lessons, metrics: metrics, logger: logger, now: utcNow}
}

// DeactivateExpiredGroups flips Active groups to inactive when they have lessons on record and
// none of them is still running. Groups without lessons are untouched. Safe to repeat.
func (s *GroupExpiryService) DeactivateExpiredGroups(ctx context.Context) (*models.ExpiryResult, error) {
	today := timeslot.Date(s.now())
	groups, err := s.groups.ListActive(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list active groups")
	}

	result := &models.ExpiryResult{Checked: len(groups), Deactivated: []string{}, RanAt: s.now()}
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		lessons, err := s.lessons.ListByGroup(ctx, group.ID)
		if err != nil {
			return result, internalError(err, "failed to list group lessons")
		}
		if !allEnded(lessons, today) {
			continue
		}
		changed, err := s.groups.Deactivate(ctx, group.ID)
		if err != nil {
			return result, internalError(err, "failed to deactivate group")
		}
		if changed {
			result.Deactivated = append(result.Deactivated, group.ID)
			s.logger.Info("group deactivated", zap.String("group_id", group.ID), zap.String("name", group.Name))
		}
	}

	s.metrics.GroupsDeactivated(len(result.Deactivated))
	return result, nil
}

func allEnded(lessons []models.GroupLesson, today time.Time) bool {
	if len(lessons) == 0 {
		return false
	}
	for _, l := range lessons {
		if !l.EndedBefore(today) {
			return false
		}
	}
	return true
}
