package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
)

func individualRequest(studentID, teacherID string, slot dto.SlotInput) dto.CreateIndividualLessonRequest {
	return dto.CreateIndividualLessonRequest{
		StudentID: studentID,
		TeacherID: teacherID,
		CourseID:  "c-1",
		SlotInput: slot,
	}
}

func conflictReportOf(t *testing.T, err error) *models.ConflictReport {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	report, ok := appErr.Details.(*models.ConflictReport)
	require.True(t, ok, "conflict details should carry the report")
	return report
}

func TestCreateIndividualLessonNormalizesPastAnchor(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.lessonService()

	// 2026-10-13 is a past Tuesday; the slot runs on Fridays.
	req := individualRequest("s-1", "t-1", slotInput(5, "09:00", "10:00", "2026-10-13", nil))
	req.ClassroomID = dto.StringPtr("r-1")
	lesson, err := svc.CreateIndividualLesson(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, mustDate("2026-10-23"), lesson.EffectiveFrom)
	assert.Equal(t, models.LessonStatusScheduled, lesson.Status)
	assert.Equal(t, "Sari", lesson.StudentName)
	assert.Equal(t, "Rina", lesson.TeacherName)
	assert.Equal(t, "Violin", lesson.CourseName)
	require.NotNil(t, lesson.ClassroomName)
	assert.Equal(t, "Room A", *lesson.ClassroomName)
	assert.Equal(t, [][]string{{"teacher:t-1", "student:s-1"}}, f.reserver.keys)
	assert.Empty(t, f.notifier.sent)
}

func TestCreateIndividualLessonAnchorsOnPatternWeekday(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.lessonService()

	tests := []struct {
		name string
		dow  int
		from string
		want string
	}{
		{name: "today matches", dow: 1, from: "2026-10-19", want: "2026-10-19"},
		{name: "past date uses today when weekday matches", dow: 1, from: "2026-10-01", want: "2026-10-19"},
		{name: "future date moves forward", dow: 5, from: "2026-11-03", want: "2026-11-06"},
		{name: "future date already aligned", dow: 2, from: "2026-11-03", want: "2026-11-03"},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start := fmt.Sprintf("%02d:00", 7+i*2)
			end := fmt.Sprintf("%02d:00", 8+i*2)
			lesson, err := svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(tc.dow, start, end, tc.from, nil)))
			require.NoError(t, err)
			assert.Equal(t, mustDate(tc.want), lesson.EffectiveFrom)
		})
	}
}

func TestCreateIndividualLessonRejectsDoubleBooking(t *testing.T) {
	f := newSchedulingFixture(t)
	f.individual.seed("il-existing", "t-1", "s-2", "c-2", 1, "10:00", "11:00", mustDate("2026-10-19"), nil)
	svc := f.lessonService()

	_, err := svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:30", "11:30", "2026-11-02", nil)))
	require.Error(t, err)
	report := conflictReportOf(t, err)
	require.True(t, report.HasConflict)
	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, models.ConflictTeacher, c.Type)
	assert.Equal(t, "t-1", c.PersonID)
	assert.Equal(t, "Piano", c.CourseName)
	assert.Equal(t, tod("10:00"), c.StartTime)
	assert.Equal(t, tod("11:00"), c.EndTime)
	assert.Nil(t, c.EffectiveTo)
	assert.Contains(t, c.Message, "Rina")
	assert.Len(t, f.individual.lessons, 1, "no partial state on conflict")

	_, err = svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "11:00", "12:00", "2026-11-02", nil)))
	require.NoError(t, err, "back-to-back slots do not conflict")
	assert.Len(t, f.individual.lessons, 2)
}

func TestCreateIndividualLessonReportsBothSides(t *testing.T) {
	f := newSchedulingFixture(t)
	f.individual.seed("il-existing", "t-1", "s-1", "c-2", 3, "15:00", "16:00", mustDate("2026-10-21"), nil)
	svc := f.lessonService()

	_, err := svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(3, "15:30", "16:30", "2026-10-21", nil)))
	report := conflictReportOf(t, err)
	require.Len(t, report.Conflicts, 2)
	assert.Equal(t, models.ConflictTeacher, report.Conflicts[0].Type)
	assert.Equal(t, models.ConflictStudent, report.Conflicts[1].Type)
	assert.Equal(t, "Sari", report.Conflicts[1].PersonName)
}

func TestCreateIndividualLessonDateRanges(t *testing.T) {
	ended := mustDate("2026-10-01")
	until := mustDate("2026-12-31")

	tests := []struct {
		name     string
		from     string
		to       *string
		seedFrom string
		seedTo   *string
		conflict bool
	}{
		{name: "existing ended before new start", from: "2026-10-19", seedFrom: "2026-09-01", seedTo: dto.StringPtr(ended.Format("2006-01-02"))},
		{name: "new ends before open-ended existing starts", from: "2026-10-19", to: dto.StringPtr(until.Format("2006-01-02")), seedFrom: "2027-01-04"},
		{name: "open-ended existing covers future start", from: "2027-03-01", seedFrom: "2026-10-19", conflict: true},
		{name: "open-ended new reaches later existing", from: "2026-10-19", seedFrom: "2027-06-07", seedTo: dto.StringPtr("2027-07-01"), conflict: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newSchedulingFixture(t)
			seedTo := parseOptionalDate(tc.seedTo)
			f.individual.seed("il-existing", "t-1", "s-2", "c-2", 1, "10:00", "11:00", mustDate(tc.seedFrom), seedTo)
			_, err := f.lessonService().CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:00", "11:00", tc.from, tc.to)))
			if tc.conflict {
				assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict.Code), "expected conflict, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateIndividualLessonIgnoresInactiveSlots(t *testing.T) {
	f := newSchedulingFixture(t)
	f.individual.seed("il-cancelled", "t-1", "s-2", "c-2", 1, "10:00", "11:00", mustDate("2026-10-19"), nil)
	f.individual.lessons[0].Status = models.LessonStatusCancelled
	f.individual.seed("il-deleted", "t-1", "s-2", "c-2", 1, "10:00", "11:00", mustDate("2026-10-19"), nil)
	deleted := fixedNow
	f.individual.lessons[1].DeletedAt = &deleted

	_, err := f.lessonService().CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	assert.NoError(t, err)
}

func TestCreateIndividualLessonConflictsWithStudentGroupLesson(t *testing.T) {
	f := newSchedulingFixture(t)
	f.groups.seedGroup("g-1", "Strings", nil, true, "s-1")
	f.groupLessons.seed("gl-1", "t-2", "g-1", "c-1", 2, "14:00", "15:00", mustDate("2026-10-20"), nil)

	_, err := f.lessonService().CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(2, "14:30", "15:30", "2026-10-20", nil)))
	report := conflictReportOf(t, err)
	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, models.ConflictStudent, c.Type)
	assert.Equal(t, models.LessonKindGroup, c.LessonKind)
	require.NotNil(t, c.GroupName)
	assert.Equal(t, "Strings", *c.GroupName)
}

func TestCreateIndividualLessonValidation(t *testing.T) {
	f := newSchedulingFixture(t)
	svc := f.lessonService()

	_, err := svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "11:00", "10:00", "2026-10-19", nil)))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:00", "10:00", "2026-10-19", nil)))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", dto.StringPtr("2026-10-01"))))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = svc.CreateIndividualLesson(context.Background(), individualRequest("s-404", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	req := individualRequest("s-1", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil))
	req.CourseID = "c-404"
	_, err = svc.CreateIndividualLesson(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Empty(t, f.individual.lessons)
}

func TestCreateIndividualLessonMapsOverlapBackstop(t *testing.T) {
	f := newSchedulingFixture(t)
	f.reserver.fail = fmt.Errorf("%w: individual_lessons_teacher_excl", models.ErrReservationOverlap)

	_, err := f.lessonService().CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	report := conflictReportOf(t, err)
	assert.True(t, report.HasConflict)
}

func TestCreateIndividualLessonStoreFailureIsInternal(t *testing.T) {
	f := newSchedulingFixture(t)
	f.individual.createErr = errors.New("connection reset")

	_, err := f.lessonService().CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))
}

func TestCheckIndividualLessonConflictsDoesNotPersist(t *testing.T) {
	f := newSchedulingFixture(t)
	f.individual.seed("il-existing", "t-1", "s-2", "c-2", 1, "10:00", "11:00", mustDate("2026-10-19"), nil)
	svc := f.lessonService()

	report, err := svc.CheckIndividualLessonConflicts(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:30", "11:30", "2026-10-19", nil)))
	require.NoError(t, err)
	assert.True(t, report.HasConflict)

	report, err = svc.CheckIndividualLessonConflicts(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "12:00", "13:00", "2026-10-19", nil)))
	require.NoError(t, err)
	assert.False(t, report.HasConflict)
	assert.Empty(t, report.Conflicts)
	assert.Len(t, f.individual.lessons, 1)
	assert.Empty(t, f.reserver.keys)
}

func TestCancelLessonSingleDateIsIdempotent(t *testing.T) {
	f := newSchedulingFixture(t)
	f.individual.seed("il-1", "t-1", "s-1", "c-1", 1, "10:00", "11:00", mustDate("2026-10-19"), nil)
	svc := f.lessonService()

	req := dto.CancelLessonRequest{CancelDate: dto.StringPtr("2026-10-26")}
	require.NoError(t, svc.CancelLesson(context.Background(), "il-1", req))
	require.NoError(t, svc.CancelLesson(context.Background(), "il-1", req))

	lesson, err := svc.GetIndividualLesson(context.Background(), "il-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-26"}, lesson.CancelledDates.Strings())
	assert.Equal(t, models.LessonStatusScheduled, lesson.Status, "single-date cancellation keeps the recurrence")
	assert.Equal(t, []string{"t-1", "s-1", "t-1", "s-1"}, f.notifier.recipients())
	assert.Equal(t, models.NotificationOccurrenceCancelled, f.notifier.sent[0].Related.Event)
}

func TestCancelLessonAll(t *testing.T) {
	f := newSchedulingFixture(t)
	f.individual.seed("il-1", "t-1", "s-1", "c-1", 1, "10:00", "11:00", mustDate("2026-10-19"), nil)
	svc := f.lessonService()

	require.NoError(t, svc.CancelLesson(context.Background(), "il-1", dto.CancelLessonRequest{CancelAll: true}))
	lesson, err := svc.GetIndividualLesson(context.Background(), "il-1")
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusCancelled, lesson.Status)
	assert.Equal(t, models.NotificationLessonCancelled, f.notifier.sent[0].Related.Event)

	// The freed slot can be booked again.
	_, err = svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	assert.NoError(t, err)
}

func TestCancelLessonErrors(t *testing.T) {
	f := newSchedulingFixture(t)
	f.individual.seed("il-1", "t-1", "s-1", "c-1", 1, "10:00", "11:00", mustDate("2026-10-19"), nil)
	svc := f.lessonService()

	err := svc.CancelLesson(context.Background(), "il-1", dto.CancelLessonRequest{})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	err = svc.CancelLesson(context.Background(), "il-1", dto.CancelLessonRequest{CancelDate: dto.StringPtr("26-10-2026")})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	// Tuesday, and a Monday before the slot starts.
	for _, raw := range []string{"2026-10-27", "2026-10-12"} {
		err = svc.CancelLesson(context.Background(), "il-1", dto.CancelLessonRequest{CancelDate: dto.StringPtr(raw)})
		assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code), raw)
	}
	lesson, getErr := svc.GetIndividualLesson(context.Background(), "il-1")
	require.NoError(t, getErr)
	assert.Empty(t, lesson.CancelledDates.Strings())

	err = svc.CancelLesson(context.Background(), "missing", dto.CancelLessonRequest{CancelAll: true})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Empty(t, f.notifier.sent)
}

func TestCreateIndividualLessonInvalidatesCalendars(t *testing.T) {
	f := newSchedulingFixture(t)
	repo := newRecordingCacheRepo()
	svc := NewLessonService(LessonServiceParams{
		Lessons:   f.individual,
		Checker:   f.checker,
		Directory: f.dir,
		Cache:     NewCacheService(repo, nil, 0, nil, true),
	})
	svc.now = fixedClock

	_, err := svc.CreateIndividualLesson(context.Background(), individualRequest("s-1", "t-1", slotInput(1, "10:00", "11:00", "2026-10-19", nil)))
	require.NoError(t, err)
	assert.Equal(t, []string{"calendar:student:s-1:*", "calendar:teacher:t-1:*"}, repo.deleted)
}
