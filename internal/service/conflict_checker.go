package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
)

// errEmptyRoster is returned when a group has no active members to schedule.
var errEmptyRoster = errors.New("group has no active members")

type individualCandidateReader interface {
	ListConflictCandidates(ctx context.Context, exec sqlx.ExtContext, teacherID string, studentIDs []string, day int) ([]models.IndividualLessonDetail, error)
}

type groupCandidateReader interface {
	ListConflictCandidates(ctx context.Context, exec sqlx.ExtContext, teacherID string, groupIDs []string, day int) ([]models.GroupLessonDetail, error)
}

type membershipReader interface {
	ListActiveMembers(ctx context.Context, exec sqlx.ExtContext, groupID string) ([]models.GroupMember, error)
	ListActiveMemberships(ctx context.Context, exec sqlx.ExtContext, studentIDs []string) ([]models.GroupMember, error)
}

// ConflictChecker evaluates a weekly pattern against every committed slot sharing a teacher,
// a student, or a group member. All conflicts are accumulated.
type ConflictChecker struct {
	individual individualCandidateReader
	group      groupCandidateReader
	members    membershipReader
}

// NewConflictChecker constructs a checker.
func NewConflictChecker(individual individualCandidateReader, group groupCandidateReader, members membershipReader) *ConflictChecker {
	return &ConflictChecker{individual: individual, group: group, members: members}
}

// CheckIndividual reports conflicts for a one-to-one pattern: the teacher's and the student's
// individual lessons plus group lessons taught by the teacher or held for the student's groups.
func (c *ConflictChecker) CheckIndividual(ctx context.Context, exec sqlx.ExtContext, teacher *models.Teacher, student *models.Student, p models.LessonPattern) (*models.ConflictReport, error) {
	report := models.NewConflictReport()

	individual, err := c.individual.ListConflictCandidates(ctx, exec, teacher.ID, []string{student.ID}, p.DayOfWeek)
	if err != nil {
		return nil, err
	}
	memberships, err := c.members.ListActiveMemberships(ctx, exec, []string{student.ID})
	if err != nil {
		return nil, err
	}
	groups, err := c.group.ListConflictCandidates(ctx, exec, teacher.ID, groupIDs(memberships), p.DayOfWeek)
	if err != nil {
		return nil, err
	}

	for _, l := range individual {
		if !collides(l.LessonSlot, p) {
			continue
		}
		if l.TeacherID == teacher.ID {
			report.Add(individualConflict(models.ConflictTeacher, teacher.ID, teacher.FullName, l))
		}
		if l.StudentID == student.ID {
			report.Add(individualConflict(models.ConflictStudent, student.ID, student.FullName, l))
		}
	}
	studentGroups := membershipIndex(memberships)[student.ID]
	for _, l := range groups {
		if !collides(l.LessonSlot, p) {
			continue
		}
		if l.TeacherID == teacher.ID {
			report.Add(groupConflict(models.ConflictTeacher, teacher.ID, teacher.FullName, l))
		}
		if studentGroups[l.GroupID] {
			report.Add(groupConflict(models.ConflictStudent, student.ID, student.FullName, l))
		}
	}
	return report, nil
}

// CheckGroup reports, in order: the teacher's individual lessons, the teacher's group lessons,
// each active member's individual lessons, and group lessons of every group each member belongs to.
func (c *ConflictChecker) CheckGroup(ctx context.Context, exec sqlx.ExtContext, groupID string, teacher *models.Teacher, p models.LessonPattern) (*models.ConflictReport, error) {
	roster, err := c.members.ListActiveMembers(ctx, exec, groupID)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, errEmptyRoster
	}
	studentIDs := make([]string, 0, len(roster))
	for _, m := range roster {
		studentIDs = append(studentIDs, m.StudentID)
	}

	individual, err := c.individual.ListConflictCandidates(ctx, exec, teacher.ID, studentIDs, p.DayOfWeek)
	if err != nil {
		return nil, err
	}
	memberships, err := c.members.ListActiveMemberships(ctx, exec, studentIDs)
	if err != nil {
		return nil, err
	}
	// The group being scheduled is always part of the member fan-out.
	memberGroups := membershipIndex(memberships)
	for _, id := range studentIDs {
		if memberGroups[id] == nil {
			memberGroups[id] = map[string]bool{}
		}
		memberGroups[id][groupID] = true
	}
	groups, err := c.group.ListConflictCandidates(ctx, exec, teacher.ID, append(groupIDs(memberships), groupID), p.DayOfWeek)
	if err != nil {
		return nil, err
	}

	var colliding []models.IndividualLessonDetail
	for _, l := range individual {
		if collides(l.LessonSlot, p) {
			colliding = append(colliding, l)
		}
	}
	var collidingGroups []models.GroupLessonDetail
	for _, l := range groups {
		if collides(l.LessonSlot, p) {
			collidingGroups = append(collidingGroups, l)
		}
	}

	report := models.NewConflictReport()
	for _, l := range colliding {
		if l.TeacherID == teacher.ID {
			report.Add(individualConflict(models.ConflictTeacher, teacher.ID, teacher.FullName, l))
		}
	}
	for _, l := range collidingGroups {
		if l.TeacherID == teacher.ID {
			report.Add(groupConflict(models.ConflictTeacher, teacher.ID, teacher.FullName, l))
		}
	}
	for _, m := range roster {
		for _, l := range colliding {
			if l.StudentID == m.StudentID {
				report.Add(individualConflict(models.ConflictStudent, m.StudentID, m.StudentName, l))
			}
		}
	}
	for _, m := range roster {
		for _, l := range collidingGroups {
			if memberGroups[m.StudentID][l.GroupID] {
				report.Add(groupConflict(models.ConflictStudent, m.StudentID, m.StudentName, l))
			}
		}
	}
	return report, nil
}

// CheckMemberJoin reports conflicts between a group's scheduled lessons and a prospective member's commitments.
func (c *ConflictChecker) CheckMemberJoin(ctx context.Context, exec sqlx.ExtContext, student *models.Student, groupLessons []models.GroupLessonDetail) (*models.ConflictReport, error) {
	report := models.NewConflictReport()
	if len(groupLessons) == 0 {
		return report, nil
	}
	memberships, err := c.members.ListActiveMemberships(ctx, exec, []string{student.ID})
	if err != nil {
		return nil, err
	}
	otherGroups := groupIDs(memberships)
	byDay := map[int][]models.GroupLessonDetail{}
	for _, l := range groupLessons {
		byDay[l.DayOfWeek] = append(byDay[l.DayOfWeek], l)
	}
	for day, lessons := range byDay {
		individual, err := c.individual.ListConflictCandidates(ctx, exec, "", []string{student.ID}, day)
		if err != nil {
			return nil, err
		}
		var groups []models.GroupLessonDetail
		if len(otherGroups) > 0 {
			if groups, err = c.group.ListConflictCandidates(ctx, exec, "", otherGroups, day); err != nil {
				return nil, err
			}
		}
		for _, target := range lessons {
			p := patternOf(target.LessonSlot)
			for _, l := range individual {
				if collides(l.LessonSlot, p) {
					report.Add(individualConflict(models.ConflictStudent, student.ID, student.FullName, l))
				}
			}
			for _, l := range groups {
				if l.GroupID != target.GroupID && collides(l.LessonSlot, p) {
					report.Add(groupConflict(models.ConflictStudent, student.ID, student.FullName, l))
				}
			}
		}
	}
	return report, nil
}

func collides(slot models.LessonSlot, p models.LessonPattern) bool {
	return slot.IsActive() && slot.Collides(p.DayOfWeek, p.StartTime, p.EndTime, p.EffectiveFrom, p.EffectiveTo)
}

func patternOf(slot models.LessonSlot) models.LessonPattern {
	return models.LessonPattern{
		DayOfWeek:     slot.DayOfWeek,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		EffectiveFrom: slot.EffectiveFrom,
		EffectiveTo:   slot.EffectiveTo,
	}
}

func groupIDs(memberships []models.GroupMember) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if !seen[m.GroupID] {
			seen[m.GroupID] = true
			out = append(out, m.GroupID)
		}
	}
	return out
}

func membershipIndex(memberships []models.GroupMember) map[string]map[string]bool {
	idx := map[string]map[string]bool{}
	for _, m := range memberships {
		if idx[m.StudentID] == nil {
			idx[m.StudentID] = map[string]bool{}
		}
		idx[m.StudentID][m.GroupID] = true
	}
	return idx
}

func individualConflict(side models.ConflictType, personID, personName string, l models.IndividualLessonDetail) models.ConflictDetail {
	return models.ConflictDetail{
		Type:          side,
		PersonID:      personID,
		PersonName:    personName,
		LessonID:      l.ID,
		LessonKind:    models.LessonKindIndividual,
		CourseID:      l.CourseID,
		CourseName:    l.CourseName,
		DayOfWeek:     l.DayOfWeek,
		StartTime:     l.StartTime,
		EndTime:       l.EndTime,
		EffectiveFrom: l.EffectiveFrom,
		EffectiveTo:   l.EffectiveTo,
	}
}

func groupConflict(side models.ConflictType, personID, personName string, l models.GroupLessonDetail) models.ConflictDetail {
	groupID, groupName := l.GroupID, l.GroupName
	return models.ConflictDetail{
		Type:          side,
		PersonID:      personID,
		PersonName:    personName,
		LessonID:      l.ID,
		LessonKind:    models.LessonKindGroup,
		CourseID:      l.CourseID,
		CourseName:    l.CourseName,
		GroupID:       &groupID,
		GroupName:     &groupName,
		DayOfWeek:     l.DayOfWeek,
		StartTime:     l.StartTime,
		EndTime:       l.EndTime,
		EffectiveFrom: l.EffectiveFrom,
		EffectiveTo:   l.EffectiveTo,
	}
}

func summarizeConflicts(report *models.ConflictReport) string {
	return fmt.Sprintf("%d scheduling conflict(s) detected", len(report.Conflicts))
}
