package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transient is a row of the transients table
type Transient struct {
	Key       string     `gorm:"primaryKey;type:varchar(191)"`
	Value     []byte     `gorm:"type:bytea;not null"`
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Transient) TableName() string {
	return "transients"
}

// DBTransientStore keeps transients in a SQL table, the way WordPress stores
// them in its options table when no object cache is installed. Expiry is
// evaluated when an entry is read.
type DBTransientStore struct {
	db  *gorm.DB
	now Clock
}

func NewDBTransientStore(db *gorm.DB) *DBTransientStore {
	return &DBTransientStore{db: db, now: time.Now}
}

// WithClock replaces the clock used to evaluate expiry
func (r *DBTransientStore) WithClock(now Clock) *DBTransientStore {
	r.now = now
	return r
}

// Get retrieves an unexpired transient by key
func (r *DBTransientStore) Get(ctx context.Context, key string) ([]byte, error) {
	var t Transient
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransientNotFound
		}
		return nil, fmt.Errorf("failed to get transient %s: %w", key, err)
	}

	if t.ExpiresAt != nil && !r.now().Before(*t.ExpiresAt) {
		return nil, ErrTransientNotFound
	}
	return t.Value, nil
}

// Set inserts or replaces the transient
func (r *DBTransientStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	t := Transient{Key: key, Value: value}
	if ttl > 0 {
		expiresAt := r.now().Add(ttl)
		t.ExpiresAt = &expiresAt
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&t).Error
	if err != nil {
		return fmt.Errorf("failed to set transient %s: %w", key, err)
	}
	return nil
}

// Delete removes the transient; deleting a missing key is not an error
func (r *DBTransientStore) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&Transient{}).Error; err != nil {
		return fmt.Errorf("failed to delete transient %s: %w", key, err)
	}
	return nil
}

func (r *DBTransientStore) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
