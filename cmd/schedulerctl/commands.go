package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/repository"
	"github.com/noah-isme/sma-lesson-scheduler/internal/service"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/database"
)

// MigrateCmd applies the embedded goose migrations.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(rc *runContext) error {
	if err := database.Migrate(rc.ctx, rc.db); err != nil {
		return err
	}
	version, err := database.MigrationVersion(rc.ctx, rc.db)
	if err != nil {
		return err
	}
	fmt.Printf("database at migration version %d\n", version)
	return nil
}

// DeactivateExpiredGroupsCmd runs one expiry sweep.
type DeactivateExpiredGroupsCmd struct{}

func (c *DeactivateExpiredGroupsCmd) Run(rc *runContext) error {
	svc := service.NewGroupExpiryService(
		repository.NewGroupRepository(rc.db),
		repository.NewGroupLessonRepository(rc.db),
		nil,
		rc.logger,
	)
	result, err := svc.DeactivateExpiredGroups(rc.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("checked %d active group(s), deactivated %d\n", result.Checked, len(result.Deactivated))
	for _, id := range result.Deactivated {
		fmt.Println("  " + id)
	}
	return nil
}

// CheckGroupCmd prints the conflict report for a prospective group lesson.
type CheckGroupCmd struct {
	Group   string `arg:"" help:"Group ID."`
	Teacher string `required:"" help:"Teacher ID."`
	Day     int    `required:"" help:"Day of week, 0 (Sunday) to 6 (Saturday)."`
	Start   string `required:"" help:"Start time HH:MM."`
	End     string `required:"" help:"End time HH:MM."`
	From    string `required:"" help:"First date YYYY-MM-DD."`
	To      string `help:"Last date YYYY-MM-DD."`
}

func (c *CheckGroupCmd) request() dto.CheckGroupLessonRequest {
	day := c.Day
	var to *string
	if c.To != "" {
		to = &c.To
	}
	return dto.CheckGroupLessonRequest{
		GroupID:   c.Group,
		TeacherID: c.Teacher,
		SlotInput: dto.SlotInput{
			DayOfWeek:     &day,
			StartTime:     c.Start,
			EndTime:       c.End,
			EffectiveFrom: c.From,
			EffectiveTo:   to,
		},
	}
}

func (c *CheckGroupCmd) Run(rc *runContext) error {
	groups := repository.NewGroupRepository(rc.db)
	lessons := repository.NewGroupLessonRepository(rc.db)
	svc := service.NewGroupLessonService(service.GroupLessonServiceParams{
		Lessons:   lessons,
		Groups:    groups,
		Checker:   service.NewConflictChecker(repository.NewIndividualLessonRepository(rc.db), lessons, groups),
		Directory: repository.NewDirectory(rc.db),
		Logger:    rc.logger,
	})
	report, err := svc.CheckGroupLessonConflicts(rc.ctx, c.request())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
