package storage

import (
	"context"
	"errors"
	"fmt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

// StoredItem is the gorm model behind PostgresStorage
type StoredItem struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

type PostgresStorage struct {
	db *gorm.DB
}

// OpenPostgres connects with the given DSN and migrates the items table
func OpenPostgres(dsn string) (*PostgresStorage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return NewPostgresStorage(db)
}

func NewPostgresStorage(db *gorm.DB) (*PostgresStorage, error) {
	if err := db.AutoMigrate(&StoredItem{}); err != nil {
		return nil, fmt.Errorf("migrating stored items: %w", err)
	}
	return &PostgresStorage{db: db}, nil
}

func (p *PostgresStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var item StoredItem
	err := p.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, NewError("get", key, err)
	}
	return item.Value, true, nil
}

func (p *PostgresStorage) SetItem(ctx context.Context, key, value string) error {
	item := StoredItem{Key: key, Value: value, UpdatedAt: time.Now()}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
	if err != nil {
		return NewError("set", key, err)
	}
	return nil
}

func (p *PostgresStorage) RemoveItem(ctx context.Context, key string) error {
	if err := p.db.WithContext(ctx).Where("key = ?", key).Delete(&StoredItem{}).Error; err != nil {
		return NewError("remove", key, err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
