package kv

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is the row shape of the sqlite backend.
type Entry struct {
	Key     string `gorm:"primaryKey"`
	Value   []byte `gorm:"not null"`
	Version uint64 `gorm:"not null"`
}

func (Entry) TableName() string {
	return "kv_entries"
}

// Gorm is a sqlite-backed Store using gorm. Optimistic concurrency is
// enforced in SQL: CompareAndSwap updates are guarded by a version match in
// the WHERE clause.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(path string) (*Gorm, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
	}

	if err := db.AutoMigrate(Entry{}); err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(key string) ([]byte, uint64, error) {
	var e Entry

	err := g.db.Where("key = ?", key).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	return e.Value, e.Version, nil
}

func (g *Gorm) Put(key string, value []byte) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		var e Entry

		err := tx.Where("key = ?", key).First(&e).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Save(&Entry{Key: key, Value: value, Version: e.Version + 1}).Error
	})
}

func (g *Gorm) CompareAndSwap(key string, value []byte, expect uint64) error {
	if expect == 0 {
		err := g.db.Create(&Entry{Key: key, Value: value, Version: 1}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
				return ErrVersionMismatch
			}
			return err
		}
		return nil
	}

	r := g.db.
		Model(Entry{}).
		Where("key = ? AND version = ?", key, expect).
		Updates(map[string]any{
			"value":   value,
			"version": expect + 1,
		})
	if r.Error != nil {
		return r.Error
	}

	if r.RowsAffected == 0 {
		return ErrVersionMismatch
	}

	return nil
}

func (g *Gorm) Delete(key string) error {
	return g.db.Where("key = ?", key).Delete(Entry{}).Error
}

func (g *Gorm) Keys(prefix string) ([]string, error) {
	var candidates []string

	// LIKE treats _ as a wildcard and our keys are underscore-heavy, so the
	// query over-matches and the exact prefix check happens here.
	err := g.db.
		Model(Entry{}).
		Where("key LIKE ?", prefix+"%").
		Order("key").
		Pluck("key", &candidates).
		Error
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, k := range candidates {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
