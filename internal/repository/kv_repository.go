package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/task-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKVStore is a GORM implementation of KVStore backed by the kv_entries table
type GormKVStore struct {
	db *gorm.DB
}

// NewGormKVStore creates a new GormKVStore
func NewGormKVStore(db *gorm.DB) *GormKVStore {
	return &GormKVStore{db: db}
}

// Get finds the entry for key
func (r *GormKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := r.db.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set upserts the entry for key
func (r *GormKVStore) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}
