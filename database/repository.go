package database

import (
	"context"
	"errors"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyDeleted is returned when soft-deleting a row that is
	// already soft-deleted.
	ErrAlreadyDeleted = errors.New("record is already deleted")
	// ErrNotDeleted is returned when restoring a row that is live.
	ErrNotDeleted = errors.New("record is not deleted")
)

const (
	retryAttempts = 3
	retryBackoff  = 100 * time.Millisecond
)

// Repository is the generic soft-delete store shared by locations, gates
// and cards. Rows are never physically erased: Delete stamps deleted_at,
// Restore clears it, Get sees soft-deleted rows so detail views keep
// working. Transient storage errors are retried a bounded number of times
// before surfacing.
type Repository[T any] struct {
	db *gorm.DB
}

// NewRepository creates a repository over the given model type
func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// DB exposes the underlying connection for callers composing larger queries
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

// Create inserts a new row
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return withRetry(func() error {
		return r.db.WithContext(ctx).Create(entity).Error
	})
}

// Get fetches a row by id, including soft-deleted rows. Detail views and
// the restore path both need to see deleted records.
func (r *Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	var entity T
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Unscoped().First(&entity, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetLive fetches a row by id, excluding soft-deleted rows
func (r *Repository[T]) GetLive(ctx context.Context, id uint) (*T, error) {
	var entity T
	err := withRetry(func() error {
		return r.db.WithContext(ctx).First(&entity, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// List returns one page of rows matching the filter params. Soft-deleted
// rows are excluded unless the params opt in.
func (r *Repository[T]) List(ctx context.Context, params query.Params, cfg query.Config) ([]T, int64, error) {
	params.Normalize()

	var results []T
	var total int64

	err := withRetry(func() error {
		tx := r.db.WithContext(ctx).Model(new(T))
		if params.IncludeDeleted {
			tx = tx.Unscoped()
		}
		tx = params.Apply(tx, cfg)

		if err := tx.Count(&total).Error; err != nil {
			return err
		}
		results = nil
		return tx.Limit(params.PageSize).Offset(params.Offset()).Find(&results).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Update applies a partial field update to a live row and returns the
// updated entity. updated_at is bumped by the ORM on every mutation.
func (r *Repository[T]) Update(ctx context.Context, id uint, fields map[string]interface{}) (*T, error) {
	err := withRetry(func() error {
		res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// SoftDelete stamps deleted_at on a live row and returns the stamped time
// as stored. The default ORM scope makes the update conditional on the row
// being live, so concurrent deletes resolve to exactly one winner; the
// loser gets ErrAlreadyDeleted.
func (r *Repository[T]) SoftDelete(ctx context.Context, id uint) (time.Time, error) {
	var deletedAt time.Time
	err := withRetry(func() error {
		res := r.db.WithContext(ctx).Delete(new(T), id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Row is either missing or already soft-deleted.
			var entity T
			if err := r.db.WithContext(ctx).Unscoped().First(&entity, id).Error; err != nil {
				return err
			}
			return ErrAlreadyDeleted
		}
		var stamped gorm.DeletedAt
		if err := r.db.WithContext(ctx).Unscoped().Model(new(T)).
			Select("deleted_at").Where("id = ?", id).Scan(&stamped).Error; err != nil {
			return err
		}
		deletedAt = stamped.Time
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return deletedAt, nil
}

// Restore clears deleted_at on a soft-deleted row. The update is
// conditional on deleted_at being set, so a concurrent double restore
// resolves to one winner; the loser gets ErrNotDeleted.
func (r *Repository[T]) Restore(ctx context.Context, id uint) (*T, error) {
	err := withRetry(func() error {
		res := r.db.WithContext(ctx).Unscoped().Model(new(T)).
			Where("id = ? AND deleted_at IS NOT NULL", id).
			Update("deleted_at", nil)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var entity T
			if err := r.db.WithContext(ctx).Unscoped().First(&entity, id).Error; err != nil {
				return err
			}
			return ErrNotDeleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// withRetry runs op up to retryAttempts times, backing off between
// attempts. Definitive outcomes (not found, duplicate key, already/not
// deleted) are never retried.
func withRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		err = op()
		if err == nil || !isTransient(err) {
			return err
		}
		time.Sleep(retryBackoff * time.Duration(attempt+1))
	}
	return err
}

func isTransient(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, ErrAlreadyDeleted),
		errors.Is(err, ErrNotDeleted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
