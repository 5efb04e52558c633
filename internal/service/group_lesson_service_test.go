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

func groupLessonRequest(groupID, teacherID string, slot dto.SlotInput) dto.CreateGroupLessonRequest {
	return dto.CreateGroupLessonRequest{GroupID: groupID, TeacherID: teacherID, CourseID: "c-2", SlotInput: slot}
}

func TestCreateGroupLessonTransitiveMemberConflict(t *testing.T) {
	f := newSchedulingFixture(t)
	f.groups.seedGroup("g-1", "Strings", nil, true, "s-1")
	f.groups.seedGroup("g-2", "Keys", nil, true, "s-1", "s-2")
	f.groupLessons.seed("gl-1", "t-1", "g-1", "c-1", 2, "14:00", "15:00", mustDate("2026-10-20"), nil)

	_, err := f.groupLessonService().CreateGroupLesson(context.Background(), groupLessonRequest("g-2", "t-2", slotInput(2, "14:30", "15:30", "2026-10-20", nil)))
	report := conflictReportOf(t, err)
	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, models.ConflictStudent, c.Type)
	assert.Equal(t, "s-1", c.PersonID)
	assert.Equal(t, "Sari", c.PersonName)
	require.NotNil(t, c.GroupName)
	assert.Equal(t, "Strings", *c.GroupName)
	assert.Contains(t, c.Message, "Student Sari")
	assert.Len(t, f.groupLessons.lessons, 1)
}

func TestCheckGroupLessonConflictsAccumulatesEverySource(t *testing.T) {
	f := newSchedulingFixture(t)
	f.groups.seedGroup("g-1", "Strings", nil, true, "s-1")
	f.groups.seedGroup("g-2", "Keys", nil, true, "s-1", "s-2")
	// teacher's own individual lesson
	f.individual.seed("il-1", "t-2", "s-3", "c-1", 4, "09:00", "10:00", mustDate("2026-10-22"), nil)
	// teacher's lesson for another group
	f.groups.seedGroup("g-3", "Choir", nil, true, "s-3")
	f.groupLessons.seed("gl-3", "t-2", "g-3", "c-1", 4, "09:30", "10:30", mustDate("2026-10-22"), nil)
	// member's individual lesson with another teacher
	f.individual.seed("il-2", "t-1", "s-2", "c-1", 4, "08:30", "09:15", mustDate("2026-10-22"), nil)
	// member's other group
	f.groupLessons.seed("gl-1", "t-1", "g-1", "c-1", 4, "09:45", "10:15", mustDate("2026-10-22"), nil)

	report, err := f.groupLessonService().CheckGroupLessonConflicts(context.Background(), dto.CheckGroupLessonRequest{
		GroupID:   "g-2",
		TeacherID: "t-2",
		SlotInput: slotInput(4, "09:00", "10:00", "2026-10-22", nil),
	})
	require.NoError(t, err)
	require.True(t, report.HasConflict)
	require.Len(t, report.Conflicts, 4)

	assert.Equal(t, models.ConflictTeacher, report.Conflicts[0].Type)
	assert.Equal(t, "il-1", report.Conflicts[0].LessonID)
	assert.Equal(t, models.ConflictTeacher, report.Conflicts[1].Type)
	assert.Equal(t, "gl-3", report.Conflicts[1].LessonID)
	assert.Equal(t, models.ConflictStudent, report.Conflicts[2].Type)
	assert.Equal(t, "s-2", report.Conflicts[2].PersonID)
	assert.Equal(t, "il-2", report.Conflicts[2].LessonID)
	assert.Equal(t, models.ConflictStudent, report.Conflicts[3].Type)
	assert.Equal(t, "s-1", report.Conflicts[3].PersonID)
	assert.Equal(t, "gl-1", report.Conflicts[3].LessonID)
	assert.Len(t, f.groupLessons.lessons, 2, "check does not persist")
}

func TestCreateGroupLessonPersistsAndNotifies(t *testing.T) {
	f := newSchedulingFixture(t)
	f.groups.seedGroup("g-2", "Keys", nil, true, "s-1", "s-2")
	svc := f.groupLessonService()

	lesson, err := svc.CreateGroupLesson(context.Background(), groupLessonRequest("g-2", "t-2", slotInput(3, "16:00", "17:00", "2026-10-01", nil)))
	require.NoError(t, err)
	assert.Equal(t, mustDate("2026-10-21"), lesson.EffectiveFrom)
	assert.Equal(t, "Keys", lesson.GroupName)
	assert.Equal(t, "Agus", lesson.TeacherName)
	assert.Equal(t, "Piano", lesson.CourseName)
	assert.Equal(t, models.LessonStatusScheduled, lesson.Status)

	assert.Equal(t, [][]string{{"teacher:t-2", "group:g-2", "student:s-1", "student:s-2"}}, f.reserver.keys)
	assert.Equal(t, []string{"t-2", "s-1", "s-2"}, f.notifier.recipients())
	assert.Equal(t, models.NotificationGroupLessonScheduled, f.notifier.sent[0].Related.Event)

	fetched, err := svc.GetGroupLesson(context.Background(), lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, lesson.ID, fetched.ID)
}

func TestCreateGroupLessonRejectsEmptyRoster(t *testing.T) {
	f := newSchedulingFixture(t)
	f.groups.seedGroup("g-empty", "Empty", nil, true)

	_, err := f.groupLessonService().CreateGroupLesson(context.Background(), groupLessonRequest("g-empty", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = f.groupLessonService().CheckGroupLessonConflicts(context.Background(), dto.CheckGroupLessonRequest{
		GroupID: "g-empty", TeacherID: "t-1", SlotInput: slotInput(1, "10:00", "11:00", "2026-10-19", nil),
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	assert.Empty(t, f.groupLessons.lessons)
}

func TestCreateGroupLessonGroupState(t *testing.T) {
	f := newSchedulingFixture(t)
	f.groups.seedGroup("g-old", "Old", nil, false, "s-1")
	svc := f.groupLessonService()

	_, err := svc.CreateGroupLesson(context.Background(), groupLessonRequest("g-old", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPreconditionFailed.Code))

	_, err = svc.CreateGroupLesson(context.Background(), groupLessonRequest("g-missing", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	f.groups.seedGroup("g-1", "Strings", nil, true, "s-1")
	f.reserver.onLock = func() { f.groups.groups["g-1"].IsActive = false }
	_, err = svc.CreateGroupLesson(context.Background(), groupLessonRequest("g-1", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPreconditionFailed.Code))
	assert.Empty(t, f.groupLessons.lessons)
}

func TestCancelGroupLesson(t *testing.T) {
	f := newSchedulingFixture(t)
	f.groups.seedGroup("g-1", "Strings", nil, true, "s-1", "s-2")
	f.groupLessons.seed("gl-1", "t-1", "g-1", "c-1", 2, "14:00", "15:00", mustDate("2026-10-20"), nil)
	svc := f.groupLessonService()

	err := svc.CancelGroupLesson(context.Background(), "gl-1", dto.CancelLessonRequest{CancelDate: dto.StringPtr("2026-10-28")})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code), "Wednesday is not a Tuesday occurrence")
	assert.Empty(t, f.notifier.sent)

	req := dto.CancelLessonRequest{CancelDate: dto.StringPtr("2026-10-27")}
	require.NoError(t, svc.CancelGroupLesson(context.Background(), "gl-1", req))
	require.NoError(t, svc.CancelGroupLesson(context.Background(), "gl-1", req))
	lesson, err := svc.GetGroupLesson(context.Background(), "gl-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-27"}, lesson.CancelledDates.Strings())
	assert.Equal(t, []string{"t-1", "s-1", "s-2", "t-1", "s-1", "s-2"}, f.notifier.recipients())

	require.NoError(t, svc.CancelGroupLesson(context.Background(), "gl-1", dto.CancelLessonRequest{CancelAll: true}))
	lesson, err = svc.GetGroupLesson(context.Background(), "gl-1")
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusCancelled, lesson.Status)

	err = svc.CancelGroupLesson(context.Background(), "gl-1", dto.CancelLessonRequest{})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	err = svc.CancelGroupLesson(context.Background(), "gl-404", dto.CancelLessonRequest{CancelAll: true})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}
