package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateExclusionViolation   = "23P01"
)

// ReserveFunc runs the check and the write of a reservation on the same transaction.
type ReserveFunc = func(ctx context.Context, exec sqlx.ExtContext) error

// Reserver executes reservations inside SERIALIZABLE transactions that first take
// transaction-scoped advisory locks on every touched key.
type Reserver struct {
	db      *sqlx.DB
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// NewReserver constructs a reserver retrying serialization failures up to retries times.
func NewReserver(db *sqlx.DB, retries int, logger *zap.Logger) *Reserver {
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reserver{db: db, retries: retries, backoff: 25 * time.Millisecond, logger: logger}
}

// Reserve runs fn under locks on keys. Serialization failures and deadlocks are retried;
// exclusion constraint violations surface as models.ErrReservationOverlap.
func (r *Reserver) Reserve(ctx context.Context, keys []string, fn ReserveFunc) error {
	keys = normalizeKeys(keys)
	var err error
	for attempt := 0; attempt <= r.retries; attempt++ {
		err = r.attempt(ctx, keys, fn)
		if err == nil || !isRetryable(err) {
			break
		}
		if attempt == r.retries {
			break
		}
		r.logger.Warn("reservation retry", zap.Int("attempt", attempt+1), zap.Strings("keys", keys), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff * time.Duration(attempt+1)):
		}
	}
	return translateReservationError(err)
}

func (r *Reserver) attempt(ctx context.Context, keys []string, fn ReserveFunc) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin reservation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, key := range keys {
		if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	}
	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	return nil
}

// normalizeKeys sorts and de-duplicates keys so concurrent reservations lock in the same order.
func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isRetryable(err error) bool {
	code := pqCode(err)
	return code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

// IsExclusionViolation reports a rejected overlapping insert.
func IsExclusionViolation(err error) bool {
	return pqCode(err) == sqlStateExclusionViolation
}

func translateReservationError(err error) error {
	if err == nil {
		return nil
	}
	if IsExclusionViolation(err) {
		var pqErr *pq.Error
		errors.As(err, &pqErr)
		return fmt.Errorf("%w: %s", models.ErrReservationOverlap, pqErr.Constraint)
	}
	return err
}
