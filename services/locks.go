package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"expenshare-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// groupLocks is a keyed mutex: one writer per group inside this process.
type groupLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*groupLock
}

type groupLock struct {
	mu   sync.Mutex
	refs int
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[uuid.UUID]*groupLock)}
}

func (l *groupLocks) lock(groupID uuid.UUID) (unlock func()) {
	l.mu.Lock()
	gl, ok := l.locks[groupID]
	if !ok {
		gl = &groupLock{}
		l.locks[groupID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.mu.Lock()
	return func() {
		gl.mu.Unlock()
		l.mu.Lock()
		gl.refs--
		if gl.refs == 0 {
			delete(l.locks, groupID)
		}
		l.mu.Unlock()
	}
}

// groupRunner serializes writes to a group. In-process callers queue on
// the keyed mutex; across processes the SELECT ... FOR UPDATE on the group
// row and the version check in bumpGroup do the same job.
type groupRunner struct {
	db    *gorm.DB
	locks *groupLocks
}

func (r *groupRunner) run(ctx context.Context, groupID uuid.UUID, fn func(tx *gorm.DB, g *models.Group) error) error {
	unlock := r.locks.lock(groupID)
	defer unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := lockGroup(tx, groupID)
		if err != nil {
			return err
		}
		return fn(tx, g)
	})
	if isRetryable(err) {
		return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
	}
	return err
}

func lockGroup(tx *gorm.DB, groupID uuid.UUID) (*models.Group, error) {
	var g models.Group
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// bumpGroup advances the group version and its derived expense total.
// A stale version means another writer committed first.
func bumpGroup(tx *gorm.DB, g *models.Group, totalDelta decimal.Decimal) error {
	total := g.TotalExpense.Add(totalDelta)
	res := tx.Model(&models.Group{}).
		Where("id = ? AND version = ?", g.ID, g.Version).
		Updates(map[string]interface{}{
			"version":       g.Version + 1,
			"total_expense": total,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	g.Version++
	g.TotalExpense = total
	return nil
}

// WithRetry calls fn until it returns something other than
// ErrConcurrentModification, up to attempts times.
func WithRetry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, ErrConcurrentModification) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 15 * time.Millisecond):
		}
	}
	return err
}
