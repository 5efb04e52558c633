package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

type groupStore interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Group, error)
	ListActiveMembers(ctx context.Context, exec sqlx.ExtContext, groupID string) ([]models.GroupMember, error)
	CountActiveMembers(ctx context.Context, exec sqlx.ExtContext, groupID string) (int, error)
	FindActiveMember(ctx context.Context, exec sqlx.ExtContext, groupID, studentID string) (*models.GroupMember, error)
	AddMember(ctx context.Context, exec sqlx.ExtContext, member *models.GroupMember) error
	EndMembership(ctx context.Context, groupID, studentID string, leftAt time.Time) error
}

type groupScheduleReader interface {
	ListScheduledByGroups(ctx context.Context, exec sqlx.ExtContext, groupIDs []string) ([]models.GroupLessonDetail, error)
}

// GroupService manages group rosters.
type GroupService struct {
	groups    groupStore
	lessons   groupScheduleReader
	checker   *ConflictChecker
	directory directoryReader
	reserver  reservationRunner
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// GroupServiceParams groups constructor dependencies.
type GroupServiceParams struct {
	Groups    groupStore
	Lessons   groupScheduleReader
	Checker   *ConflictChecker
	Directory directoryReader
	Reserver  reservationRunner
	Cache     *CacheService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(p GroupServiceParams) *GroupService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Reserver == nil {
		p.Reserver = directReservation{}
	}
	return &GroupService{
		groups:    p.Groups,
		lessons:   p.Lessons,
		checker:   p.Checker,
		directory: p.Directory,
		reserver:  p.Reserver,
		cache:     p.Cache,
		validator: p.Validator,
		logger:    p.Logger,
		now:       utcNow,
	}
}

// CreateGroup opens an active group with an empty roster.
func (s *GroupService) CreateGroup(ctx context.Context, req dto.CreateGroupRequest) (*models.GroupDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, badRequest(err, "invalid group payload")
	}
	group := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		MaxCapacity: req.MaxCapacity,
		IsActive:    true,
	}
	if group.Name == "" {
		return nil, badRequest(nil, "group name is required")
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, internalError(err, "failed to create group")
	}
	return &models.GroupDetail{Group: *group, Members: []models.GroupMember{}}, nil
}

// GetGroup returns a group with its active members.
func (s *GroupService) GetGroup(ctx context.Context, id string) (*models.GroupDetail, error) {
	group, err := s.groups.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookupError(err, "group")
	}
	members, err := s.groups.ListActiveMembers(ctx, nil, id)
	if err != nil {
		return nil, internalError(err, "failed to load group members")
	}
	if members == nil {
		members = []models.GroupMember{}
	}
	return &models.GroupDetail{Group: *group, Members: members}, nil
}

// AddGroupMember enrols a student. Re-adding an active member returns the existing membership.
func (s *GroupService) AddGroupMember(ctx context.Context, groupID string, req dto.AddGroupMemberRequest) (*models.GroupMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, badRequest(err, "invalid member payload")
	}
	if _, err := s.activeGroup(ctx, nil, groupID); err != nil {
		return nil, err
	}
	who, err := resolveParticipants(ctx, s.directory, req.StudentID, "", "", nil)
	if err != nil {
		return nil, err
	}

	var member *models.GroupMember
	keys := []string{lockKey("group", groupID), lockKey("student", req.StudentID)}
	err = s.reserver.Reserve(ctx, keys, func(ctx context.Context, exec sqlx.ExtContext) error {
		// The group row and its schedule are read under the group lock so a
		// lesson committed since the pre-check is part of the join check.
		group, groupErr := s.activeGroup(ctx, exec, groupID)
		if groupErr != nil {
			return groupErr
		}
		schedule, listErr := s.lessons.ListScheduledByGroups(ctx, exec, []string{groupID})
		if listErr != nil {
			return internalError(listErr, "failed to load group lessons")
		}
		existing, findErr := s.groups.FindActiveMember(ctx, exec, groupID, req.StudentID)
		if findErr == nil {
			member = existing
			return nil
		}
		if lookup := lookupError(findErr, "member"); !appErrors.IsCode(lookup, appErrors.ErrNotFound.Code) {
			return lookup
		}
		if group.MaxCapacity != nil {
			count, countErr := s.groups.CountActiveMembers(ctx, exec, groupID)
			if countErr != nil {
				return internalError(countErr, "failed to count group members")
			}
			if count+1 > *group.MaxCapacity {
				return appErrors.Clone(appErrors.ErrCapacity, fmt.Sprintf("group %s is full (%d/%d)", group.Name, count, *group.MaxCapacity))
			}
		}
		report, checkErr := s.checker.CheckMemberJoin(ctx, exec, who.student, schedule)
		if checkErr != nil {
			return internalError(checkErr, "failed to check member conflicts")
		}
		if report.HasConflict {
			return conflictError(report, summarizeConflicts(report))
		}
		member = &models.GroupMember{
			GroupID:     groupID,
			StudentID:   req.StudentID,
			StudentName: who.student.FullName,
			JoinedAt:    timeslot.Date(s.now()),
		}
		if addErr := s.groups.AddMember(ctx, exec, member); addErr != nil {
			return internalError(addErr, "failed to add group member")
		}
		return nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, internalError(err, "failed to add group member")
	}

	_ = s.cache.Invalidate(ctx, calendarPattern(models.OwnerStudent, req.StudentID))
	s.logger.Info("group member added", zap.String("group_id", groupID), zap.String("student_id", req.StudentID))
	return member, nil
}

// activeGroup loads a group that can accept members.
func (s *GroupService) activeGroup(ctx context.Context, exec sqlx.ExtContext, groupID string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, exec, groupID)
	if err != nil {
		return nil, lookupError(err, "group")
	}
	if !group.IsActive {
		return nil, badRequest(nil, "group is inactive")
	}
	return group, nil
}

// RemoveGroupMember ends the student's active membership as of today.
func (s *GroupService) RemoveGroupMember(ctx context.Context, groupID, studentID string) error {
	if _, err := s.groups.FindByID(ctx, nil, groupID); err != nil {
		return lookupError(err, "group")
	}
	if err := s.groups.EndMembership(ctx, groupID, studentID, timeslot.Date(s.now())); err != nil {
		return lookupError(err, "group member")
	}
	_ = s.cache.Invalidate(ctx, calendarPattern(models.OwnerStudent, studentID))
	s.logger.Info("group member removed", zap.String("group_id", groupID), zap.String("student_id", studentID))
	return nil
}
