package repository

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var lessonDetailColumns = []string{
	"id", "teacher_id", "course_id", "day_of_week", "start_minute", "end_minute",
	"effective_from", "effective_to", "classroom_id", "status", "is_recurring", "cancelled_dates", "notes",
	"created_at", "updated_at", "deleted_at",
}
