package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
)

func availabilityRequest(kind, owner string, dow int, start, end, windowKind string) dto.CreateAvailabilityRequest {
	return dto.CreateAvailabilityRequest{
		OwnerKind: kind,
		OwnerID:   owner,
		DayOfWeek: dto.IntPtr(dow),
		StartTime: start,
		EndTime:   end,
		Kind:      windowKind,
	}
}

func TestAvailabilityServiceLifecycle(t *testing.T) {
	f := newSchedulingFixture(t)
	repo := newRecordingCacheRepo()
	svc := NewAvailabilityService(f.availability, f.dir, NewCacheService(repo, nil, 0, nil, true), nil, nil)

	window, err := svc.Create(context.Background(), availabilityRequest("TEACHER", "t-1", 1, "09:00", "12:00", "AVAILABLE"))
	require.NoError(t, err)
	require.NotNil(t, window.TeacherID)
	assert.Nil(t, window.StudentID)
	assert.Equal(t, "t-1", window.OwnerID())
	assert.True(t, window.IsRecurring)

	// Overlapping windows for the same owner are allowed.
	_, err = svc.Create(context.Background(), availabilityRequest("TEACHER", "t-1", 1, "11:00", "13:00", "BUSY"))
	require.NoError(t, err)

	windows, err := svc.List(context.Background(), dto.AvailabilityQuery{OwnerKind: "TEACHER", OwnerID: "t-1"})
	require.NoError(t, err)
	assert.Len(t, windows, 2)

	onlyBusy, err := svc.List(context.Background(), dto.AvailabilityQuery{OwnerKind: "TEACHER", OwnerID: "t-1", Kind: "BUSY"})
	require.NoError(t, err)
	assert.Len(t, onlyBusy, 1)

	require.NoError(t, svc.Delete(context.Background(), window.ID))
	err = svc.Delete(context.Background(), window.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	windows, err = svc.List(context.Background(), dto.AvailabilityQuery{OwnerKind: "TEACHER", OwnerID: "t-1"})
	require.NoError(t, err)
	assert.Len(t, windows, 1)
	assert.Len(t, f.availability.windows, 2, "soft delete keeps the row")
	assert.Contains(t, repo.deleted, "calendar:teacher:t-1:*")
}

func TestAvailabilityServiceValidation(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := NewAvailabilityService(f.availability, f.dir, nil, nil, nil)

	cases := map[string]dto.CreateAvailabilityRequest{
		"end before start": availabilityRequest("STUDENT", "s-1", 1, "12:00", "09:00", "AVAILABLE"),
		"empty interval":   availabilityRequest("STUDENT", "s-1", 1, "09:00", "09:00", "AVAILABLE"),
		"bad weekday":      availabilityRequest("STUDENT", "s-1", 7, "09:00", "10:00", "AVAILABLE"),
		"bad kind":         availabilityRequest("STUDENT", "s-1", 1, "09:00", "10:00", "HOLIDAY"),
		"bad owner kind":   availabilityRequest("PARENT", "s-1", 1, "09:00", "10:00", "AVAILABLE"),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req)
			assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code), "got %v", err)
		})
	}

	_, err := svc.Create(context.Background(), availabilityRequest("STUDENT", "s-404", 1, "09:00", "10:00", "AVAILABLE"))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Empty(t, f.availability.windows)

	_, err = svc.List(context.Background(), dto.AvailabilityQuery{OwnerKind: "STUDENT"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestAvailabilityServiceStudentOwner(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := NewAvailabilityService(f.availability, f.dir, nil, nil, nil)

	req := availabilityRequest("STUDENT", "s-1", 6, "08:00", "10:00", "SCHOOL")
	recurring := false
	req.IsRecurring = &recurring
	window, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.OwnerStudent, window.OwnerKind)
	require.NotNil(t, window.StudentID)
	assert.Nil(t, window.TeacherID)
	assert.False(t, window.IsRecurring)
}
