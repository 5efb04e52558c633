package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
)

type availabilityStore interface {
	Create(ctx context.Context, window *models.AvailabilityWindow) error
	FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error)
	List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityWindow, error)
	SoftDelete(ctx context.Context, id string) error
}

// AvailabilityService manages weekly availability windows.
type AvailabilityService struct {
	windows   availabilityStore
	directory directoryReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(windows availabilityStore, directory directoryReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{windows: windows, directory: directory, cache: cache, validator: validate, logger: logger, now: utcNow}
}

func (s *AvailabilityService) ensureOwner(ctx context.Context, kind models.OwnerKind, id string) error {
	var err error
	if kind == models.OwnerStudent {
		_, err = resolveParticipants(ctx, s.directory, id, "", "", nil)
	} else {
		_, err = resolveParticipants(ctx, s.directory, "", id, "", nil)
	}
	return err
}

// Create stores a window for exactly one owner. Windows of the same owner may overlap.
func (s *AvailabilityService) Create(ctx context.Context, req dto.CreateAvailabilityRequest) (*models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, badRequest(err, "invalid availability payload")
	}
	start, end, err := req.Times()
	if err != nil {
		return nil, badRequest(err, "invalid availability window")
	}
	kind := models.OwnerKind(req.OwnerKind)
	if err := s.ensureOwner(ctx, kind, req.OwnerID); err != nil {
		return nil, err
	}

	window := &models.AvailabilityWindow{
		OwnerKind:   kind,
		DayOfWeek:   *req.DayOfWeek,
		StartTime:   start,
		EndTime:     end,
		Kind:        models.AvailabilityKind(req.Kind),
		IsRecurring: true,
		Notes:       req.Notes,
		CreatedAt:   s.now(),
	}
	if req.IsRecurring != nil {
		window.IsRecurring = *req.IsRecurring
	}
	ownerID := req.OwnerID
	if kind == models.OwnerStudent {
		window.StudentID = &ownerID
	} else {
		window.TeacherID = &ownerID
	}

	if err := s.windows.Create(ctx, window); err != nil {
		return nil, internalError(err, "failed to create availability window")
	}
	_ = s.cache.Invalidate(ctx, calendarPattern(kind, ownerID))
	return window, nil
}

// List returns an owner's active windows.
func (s *AvailabilityService) List(ctx context.Context, query dto.AvailabilityQuery) ([]models.AvailabilityWindow, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, badRequest(err, "invalid availability query")
	}
	windows, err := s.windows.List(ctx, models.AvailabilityFilter{
		OwnerKind: models.OwnerKind(query.OwnerKind),
		OwnerID:   query.OwnerID,
		DayOfWeek: query.DayOfWeek,
		Kind:      models.AvailabilityKind(query.Kind),
	})
	if err != nil {
		return nil, internalError(err, "failed to list availability windows")
	}
	if windows == nil {
		windows = []models.AvailabilityWindow{}
	}
	return windows, nil
}

// Delete soft-deletes a window.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	window, err := s.windows.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "availability window")
	}
	if err := s.windows.SoftDelete(ctx, id); err != nil {
		return lookupError(err, "availability window")
	}
	_ = s.cache.Invalidate(ctx, calendarPattern(window.OwnerKind, window.OwnerID()))
	s.logger.Info("availability window deleted", zap.String("window_id", id))
	return nil
}
