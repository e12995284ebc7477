package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Validator is one row of the validators table.
type Validator struct {
	Fingerprint string `gorm:"primaryKey;size:64"`
	Value       string `gorm:"not null"`
	UpdatedAt   time.Time
}

// TableName pins the table name.
func (Validator) TableName() string {
	return "validators"
}

// SQLStore is a ValidatorStore backed by any gorm dialect.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore migrates the validators table and returns the store.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&Validator{}); err != nil {
		return nil, fmt.Errorf("migrating validators table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// OpenSQLite opens a SQLite database for NewSQLStore. An in-memory DSN is
// pinned to a single connection, since each SQLite connection would
// otherwise see its own empty database.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}

	if dsn == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Get returns the validator stored under fingerprint.
func (s *SQLStore) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	var row Validator
	err := s.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// Put inserts or overwrites the validator.
func (s *SQLStore) Put(ctx context.Context, fingerprint, validator string) error {
	row := Validator{
		Fingerprint: fingerprint,
		Value:       validator,
		UpdatedAt:   time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// Delete removes a validator.
func (s *SQLStore) Delete(ctx context.Context, fingerprint string) error {
	return s.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).Delete(&Validator{}).Error
}
