package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// fixedNow is Monday 2026-10-19 08:00 UTC.
var fixedNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func mustDate(raw string) time.Time {
	d, err := timeslot.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func parseOptionalDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	d := mustDate(*raw)
	return &d
}

func tod(raw string) timeslot.TimeOfDay { return timeslot.MustParseTimeOfDay(raw) }

func slotInput(dow int, start, end, from string, to *string) dto.SlotInput {
	return dto.SlotInput{DayOfWeek: dto.IntPtr(dow), StartTime: start, EndTime: end, EffectiveFrom: from, EffectiveTo: to}
}

type fakeDirectory struct {
	students   map[string]*models.Student
	teachers   map[string]*models.Teacher
	courses    map[string]*models.Course
	classrooms map[string]*models.Classroom
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		students: map[string]*models.Student{
			"s-1": {ID: "s-1", FullName: "Sari", Active: true},
			"s-2": {ID: "s-2", FullName: "Budi", Active: true},
			"s-3": {ID: "s-3", FullName: "Tono", Active: true},
		},
		teachers: map[string]*models.Teacher{
			"t-1": {ID: "t-1", FullName: "Rina", Active: true},
			"t-2": {ID: "t-2", FullName: "Agus", Active: true},
		},
		courses: map[string]*models.Course{
			"c-1": {ID: "c-1", Name: "Violin"},
			"c-2": {ID: "c-2", Name: "Piano"},
		},
		classrooms: map[string]*models.Classroom{
			"r-1": {ID: "r-1", Name: "Room A"},
		},
	}
}

func (f *fakeDirectory) FindStudent(_ context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDirectory) FindTeacher(_ context.Context, id string) (*models.Teacher, error) {
	if t, ok := f.teachers[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDirectory) FindCourse(_ context.Context, id string) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDirectory) FindClassroom(_ context.Context, id string) (*models.Classroom, error) {
	if c, ok := f.classrooms[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type fakeIndividualLessons struct {
	dir       *fakeDirectory
	lessons   []models.IndividualLessonDetail
	createErr error
	seq       int
}

func (f *fakeIndividualLessons) Create(_ context.Context, _ sqlx.ExtContext, l *models.IndividualLesson) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	l.ID = fmt.Sprintf("il-%d", f.seq)
	l.CreatedAt = fixedNow
	l.UpdatedAt = fixedNow
	f.lessons = append(f.lessons, models.IndividualLessonDetail{
		IndividualLesson: *l,
		StudentName:      f.dir.students[l.StudentID].FullName,
		TeacherName:      f.dir.teachers[l.TeacherID].FullName,
		CourseName:       f.dir.courses[l.CourseID].Name,
	})
	return nil
}

// seed stores a scheduled lesson directly.
func (f *fakeIndividualLessons) seed(id, teacherID, studentID, courseID string, dow int, start, end string, from time.Time, to *time.Time) {
	f.lessons = append(f.lessons, models.IndividualLessonDetail{
		IndividualLesson: models.IndividualLesson{
			StudentID: studentID,
			LessonSlot: models.LessonSlot{
				ID: id, TeacherID: teacherID, CourseID: courseID, DayOfWeek: dow,
				StartTime: tod(start), EndTime: tod(end), EffectiveFrom: from, EffectiveTo: to,
				Status: models.LessonStatusScheduled, IsRecurring: true,
			},
		},
		StudentName: f.dir.students[studentID].FullName,
		TeacherName: f.dir.teachers[teacherID].FullName,
		CourseName:  f.dir.courses[courseID].Name,
	})
}

func (f *fakeIndividualLessons) FindByID(_ context.Context, id string) (*models.IndividualLessonDetail, error) {
	for i := range f.lessons {
		if f.lessons[i].ID == id && !f.lessons[i].IsDeleted() {
			l := f.lessons[i]
			return &l, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeIndividualLessons) ListConflictCandidates(_ context.Context, _ sqlx.ExtContext, teacherID string, studentIDs []string, dow int) ([]models.IndividualLessonDetail, error) {
	var out []models.IndividualLessonDetail
	for _, l := range f.lessons {
		if !l.IsActive() || l.DayOfWeek != dow {
			continue
		}
		if (teacherID != "" && l.TeacherID == teacherID) || contains(studentIDs, l.StudentID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeIndividualLessons) ListByStudent(_ context.Context, studentID string) ([]models.IndividualLessonDetail, error) {
	var out []models.IndividualLessonDetail
	for _, l := range f.lessons {
		if l.IsActive() && l.StudentID == studentID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeIndividualLessons) ListByTeacher(_ context.Context, teacherID string) ([]models.IndividualLessonDetail, error) {
	var out []models.IndividualLessonDetail
	for _, l := range f.lessons {
		if l.IsActive() && l.TeacherID == teacherID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeIndividualLessons) SetStatus(_ context.Context, id string, status models.LessonStatus) error {
	for i := range f.lessons {
		if f.lessons[i].ID == id {
			f.lessons[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeIndividualLessons) AddCancelledDate(_ context.Context, id string, d time.Time) error {
	for i := range f.lessons {
		if f.lessons[i].ID == id {
			f.lessons[i].CancelledDates, _ = f.lessons[i].CancelledDates.Add(d)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeGroupLessons struct {
	dir     *fakeDirectory
	groups  *fakeGroups
	lessons []models.GroupLessonDetail
	seq     int
}

func (f *fakeGroupLessons) Create(_ context.Context, _ sqlx.ExtContext, l *models.GroupLesson) error {
	f.seq++
	l.ID = fmt.Sprintf("gl-%d", f.seq)
	f.lessons = append(f.lessons, models.GroupLessonDetail{
		GroupLesson: *l,
		GroupName:   f.groups.groups[l.GroupID].Name,
		TeacherName: f.dir.teachers[l.TeacherID].FullName,
		CourseName:  f.dir.courses[l.CourseID].Name,
	})
	return nil
}

func (f *fakeGroupLessons) seed(id, teacherID, groupID, courseID string, dow int, start, end string, from time.Time, to *time.Time) {
	f.lessons = append(f.lessons, models.GroupLessonDetail{
		GroupLesson: models.GroupLesson{
			GroupID: groupID,
			LessonSlot: models.LessonSlot{
				ID: id, TeacherID: teacherID, CourseID: courseID, DayOfWeek: dow,
				StartTime: tod(start), EndTime: tod(end), EffectiveFrom: from, EffectiveTo: to,
				Status: models.LessonStatusScheduled, IsRecurring: true,
			},
		},
		GroupName:   f.groups.groups[groupID].Name,
		TeacherName: f.dir.teachers[teacherID].FullName,
		CourseName:  f.dir.courses[courseID].Name,
	})
}

func (f *fakeGroupLessons) FindByID(_ context.Context, id string) (*models.GroupLessonDetail, error) {
	for i := range f.lessons {
		if f.lessons[i].ID == id && !f.lessons[i].IsDeleted() {
			l := f.lessons[i]
			return &l, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGroupLessons) ListConflictCandidates(_ context.Context, _ sqlx.ExtContext, teacherID string, groupIDs []string, dow int) ([]models.GroupLessonDetail, error) {
	var out []models.GroupLessonDetail
	for _, l := range f.lessons {
		if !l.IsActive() || l.DayOfWeek != dow {
			continue
		}
		if (teacherID != "" && l.TeacherID == teacherID) || contains(groupIDs, l.GroupID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeGroupLessons) ListByGroup(_ context.Context, groupID string) ([]models.GroupLesson, error) {
	var out []models.GroupLesson
	for _, l := range f.lessons {
		if l.GroupID == groupID && !l.IsDeleted() {
			out = append(out, l.GroupLesson)
		}
	}
	return out, nil
}

func (f *fakeGroupLessons) ListScheduledByGroups(_ context.Context, _ sqlx.ExtContext, groupIDs []string) ([]models.GroupLessonDetail, error) {
	var out []models.GroupLessonDetail
	for _, l := range f.lessons {
		if l.IsActive() && contains(groupIDs, l.GroupID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeGroupLessons) ListByTeacher(_ context.Context, teacherID string) ([]models.GroupLessonDetail, error) {
	var out []models.GroupLessonDetail
	for _, l := range f.lessons {
		if l.IsActive() && l.TeacherID == teacherID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeGroupLessons) SetStatus(_ context.Context, id string, status models.LessonStatus) error {
	for i := range f.lessons {
		if f.lessons[i].ID == id {
			f.lessons[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeGroupLessons) AddCancelledDate(_ context.Context, id string, d time.Time) error {
	for i := range f.lessons {
		if f.lessons[i].ID == id {
			f.lessons[i].CancelledDates, _ = f.lessons[i].CancelledDates.Add(d)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeGroups struct {
	dir     *fakeDirectory
	groups  map[string]*models.Group
	members []models.GroupMember
	seq     int
}

func (f *fakeGroups) seedGroup(id, name string, capacity *int, active bool, studentIDs ...string) {
	f.groups[id] = &models.Group{ID: id, Name: name, MaxCapacity: capacity, IsActive: active}
	for _, sid := range studentIDs {
		f.members = append(f.members, models.GroupMember{
			ID: fmt.Sprintf("m-%s-%s", id, sid), GroupID: id, StudentID: sid,
			StudentName: f.dir.students[sid].FullName, JoinedAt: mustDate("2026-09-01"), IsActive: true,
		})
	}
}

func (f *fakeGroups) Create(_ context.Context, g *models.Group) error {
	f.seq++
	g.ID = fmt.Sprintf("g-new-%d", f.seq)
	stored := *g
	f.groups[g.ID] = &stored
	return nil
}

func (f *fakeGroups) FindByID(_ context.Context, _ sqlx.ExtContext, id string) (*models.Group, error) {
	if g, ok := f.groups[id]; ok && !g.IsDeleted() {
		copied := *g
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGroups) ListActive(context.Context) ([]models.Group, error) {
	var out []models.Group
	for _, id := range sortedKeys(f.groups) {
		if g := f.groups[id]; g.IsActive && !g.IsDeleted() {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGroups) Deactivate(_ context.Context, id string) (bool, error) {
	g, ok := f.groups[id]
	if !ok || !g.IsActive {
		return false, nil
	}
	g.IsActive = false
	return true, nil
}

func (f *fakeGroups) ListActiveMembers(_ context.Context, _ sqlx.ExtContext, groupID string) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for _, m := range f.members {
		if m.GroupID == groupID && m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeGroups) ListActiveMemberships(_ context.Context, _ sqlx.ExtContext, studentIDs []string) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for _, m := range f.members {
		g := f.groups[m.GroupID]
		if m.IsActive && g != nil && g.IsActive && contains(studentIDs, m.StudentID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeGroups) CountActiveMembers(ctx context.Context, exec sqlx.ExtContext, groupID string) (int, error) {
	members, _ := f.ListActiveMembers(ctx, exec, groupID)
	return len(members), nil
}

func (f *fakeGroups) FindActiveMember(_ context.Context, _ sqlx.ExtContext, groupID, studentID string) (*models.GroupMember, error) {
	for _, m := range f.members {
		if m.GroupID == groupID && m.StudentID == studentID && m.IsActive {
			copied := m
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGroups) AddMember(_ context.Context, _ sqlx.ExtContext, m *models.GroupMember) error {
	f.seq++
	m.ID = fmt.Sprintf("m-new-%d", f.seq)
	m.IsActive = true
	f.members = append(f.members, *m)
	return nil
}

func (f *fakeGroups) EndMembership(_ context.Context, groupID, studentID string, leftAt time.Time) error {
	for i := range f.members {
		m := &f.members[i]
		if m.GroupID == groupID && m.StudentID == studentID && m.IsActive {
			m.IsActive = false
			m.LeftAt = &leftAt
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeAvailability struct {
	windows []models.AvailabilityWindow
	seq     int
}

func (f *fakeAvailability) add(kind models.OwnerKind, ownerID string, dow int, start, end string, k models.AvailabilityKind) {
	f.seq++
	w := models.AvailabilityWindow{
		ID: fmt.Sprintf("w-%d", f.seq), OwnerKind: kind, DayOfWeek: dow,
		StartTime: tod(start), EndTime: tod(end), Kind: k, IsRecurring: true,
	}
	id := ownerID
	if kind == models.OwnerStudent {
		w.StudentID = &id
	} else {
		w.TeacherID = &id
	}
	f.windows = append(f.windows, w)
}

func (f *fakeAvailability) Create(_ context.Context, w *models.AvailabilityWindow) error {
	f.seq++
	w.ID = fmt.Sprintf("w-%d", f.seq)
	f.windows = append(f.windows, *w)
	return nil
}

func (f *fakeAvailability) FindByID(_ context.Context, id string) (*models.AvailabilityWindow, error) {
	for _, w := range f.windows {
		if w.ID == id && w.IsActive() {
			copied := w
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAvailability) List(_ context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityWindow, error) {
	var out []models.AvailabilityWindow
	for _, w := range f.windows {
		if !w.IsActive() || w.OwnerKind != filter.OwnerKind || w.OwnerID() != filter.OwnerID {
			continue
		}
		if filter.DayOfWeek != nil && w.DayOfWeek != *filter.DayOfWeek {
			continue
		}
		if filter.Kind != "" && w.Kind != filter.Kind {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeAvailability) SoftDelete(_ context.Context, id string) error {
	for i := range f.windows {
		if f.windows[i].ID == id && f.windows[i].IsActive() {
			now := fixedNow
			f.windows[i].DeletedAt = &now
			return nil
		}
	}
	return sql.ErrNoRows
}

type sentNotification struct {
	UserID  string
	Title   string
	Message string
	Related models.RelatedEntity
}

type recordingNotifier struct {
	sent []sentNotification
}

func (r *recordingNotifier) Send(_ context.Context, userID, title, message string, related models.RelatedEntity) {
	r.sent = append(r.sent, sentNotification{UserID: userID, Title: title, Message: message, Related: related})
}

func (r *recordingNotifier) recipients() []string {
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.UserID)
	}
	return out
}

// recordingReserver runs reservations in-line and remembers the requested lock keys.
// A non-nil fail is returned instead of running the callback. onLock runs once the
// locks are held, standing in for a writer that committed while the caller waited.
type recordingReserver struct {
	keys   [][]string
	fail   error
	onLock func()
}

func (r *recordingReserver) Reserve(ctx context.Context, keys []string, fn func(ctx context.Context, exec sqlx.ExtContext) error) error {
	r.keys = append(r.keys, append([]string(nil), keys...))
	if r.fail != nil {
		return r.fail
	}
	if r.onLock != nil {
		r.onLock()
	}
	return fn(ctx, nil)
}

type recordingCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func newRecordingCacheRepo() *recordingCacheRepo {
	return &recordingCacheRepo{store: map[string][]byte{}}
}

func (s *recordingCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *recordingCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *recordingCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]*models.Group) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type schedulingFixture struct {
	dir          *fakeDirectory
	individual   *fakeIndividualLessons
	groupLessons *fakeGroupLessons
	groups       *fakeGroups
	availability *fakeAvailability
	checker      *ConflictChecker
	notifier     *recordingNotifier
	reserver     *recordingReserver
}

func newSchedulingFixture(t *testing.T) *schedulingFixture {
	t.Helper()
	dir := newFakeDirectory()
	groups := &fakeGroups{dir: dir, groups: map[string]*models.Group{}}
	individual := &fakeIndividualLessons{dir: dir}
	groupLessons := &fakeGroupLessons{dir: dir, groups: groups}
	return &schedulingFixture{
		dir:          dir,
		individual:   individual,
		groupLessons: groupLessons,
		groups:       groups,
		availability: &fakeAvailability{},
		checker:      NewConflictChecker(individual, groupLessons, groups),
		notifier:     &recordingNotifier{},
		reserver:     &recordingReserver{},
	}
}

func (f *schedulingFixture) lessonService() *LessonService {
	svc := NewLessonService(LessonServiceParams{
		Lessons:   f.individual,
		Checker:   f.checker,
		Directory: f.dir,
		Reserver:  f.reserver,
		Notifier:  f.notifier,
	})
	svc.now = fixedClock
	return svc
}

func (f *schedulingFixture) groupLessonService() *GroupLessonService {
	svc := NewGroupLessonService(GroupLessonServiceParams{
		Lessons:   f.groupLessons,
		Groups:    f.groups,
		Checker:   f.checker,
		Directory: f.dir,
		Reserver:  f.reserver,
		Notifier:  f.notifier,
	})
	svc.now = fixedClock
	return svc
}

func (f *schedulingFixture) groupService() *GroupService {
	svc := NewGroupService(GroupServiceParams{
		Groups:    f.groups,
		Lessons:   f.groupLessons,
		Checker:   f.checker,
		Directory: f.dir,
		Reserver:  f.reserver,
	})
	svc.now = fixedClock
	return svc
}
