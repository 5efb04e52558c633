package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
)

const lockQuery = "SELECT pg_advisory_xact_lock(hashtext($1))"

func TestReserverLocksSortedKeysAndCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	r := NewReserver(db, 2, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).WithArgs("student:s1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).WithArgs("teacher:t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	called := 0
	err := r.Reserve(context.Background(), []string{"teacher:t1", "student:s1", "teacher:t1"}, func(ctx context.Context, exec sqlx.ExtContext) error {
		called++
		assert.NotNil(t, exec)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserverRetriesSerializationFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	r := NewReserver(db, 1, nil)
	r.backoff = 0

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).WithArgs("teacher:t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).WithArgs("teacher:t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	attempts := 0
	err := r.Reserve(context.Background(), []string{"teacher:t1"}, func(ctx context.Context, exec sqlx.ExtContext) error {
		attempts++
		if attempts == 1 {
			return &pq.Error{Code: sqlStateSerializationFailure}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserverMapsExclusionViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	r := NewReserver(db, 3, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).WithArgs("teacher:t1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := r.Reserve(context.Background(), []string{"teacher:t1"}, func(ctx context.Context, exec sqlx.ExtContext) error {
		return &pq.Error{Code: sqlStateExclusionViolation, Constraint: "individual_lessons_teacher_no_overlap"}
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrReservationOverlap))
	assert.Contains(t, err.Error(), "individual_lessons_teacher_no_overlap")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserverPassesThroughDomainErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	r := NewReserver(db, 3, nil)
	sentinel := errors.New("conflict found")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := r.Reserve(context.Background(), nil, func(ctx context.Context, exec sqlx.ExtContext) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
