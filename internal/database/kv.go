package database

import (
	"context"
	"errors"
	"time"

	"rupl/internal/persistence"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one persisted key.
type KVEntry struct {
	Key       string `gorm:"column:name;primaryKey;size:191"`
	Value     []byte `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "rupl_kv" }

// SQLKV implements persistence.KV over a single GORM table.
type SQLKV struct {
	db *gorm.DB
}

func NewSQLKV(db *gorm.DB) *SQLKV {
	return &SQLKV{db: db}
}

func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, persistence.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// Write upserts and deletes inside one transaction.
func (s *SQLKV) Write(ctx context.Context, b *persistence.Batch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(b.Deletes) > 0 {
			if err := tx.Where("name IN ?", b.Deletes).Delete(&KVEntry{}).Error; err != nil {
				return err
			}
		}
		for k, v := range b.Sets {
			entry := KVEntry{Key: k, Value: v}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&entry).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLKV) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
