package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"elitedashboard/server/internal/models"
	"elitedashboard/server/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PropertyRow is the table representation of a PropertyRecord. The
// auto-increment ID preserves insertion order.
type PropertyRow struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	PropertyType  string  `gorm:"not null"`
	Size          float64 `gorm:"not null"`
	Price         float64 `gorm:"not null"`
	City          string  `gorm:"not null;index"`
	Latitude      float64
	Floors        float64
	Status        string `gorm:"index"`
	ParkingSpaces float64
	TS            int64 `gorm:"column:ts;not null"`
}

func (PropertyRow) TableName() string {
	return "properties"
}

func rowFromRecord(r models.PropertyRecord) PropertyRow {
	return PropertyRow{
		PropertyType:  r.PropertyType,
		Size:          r.Size,
		Price:         r.Price,
		City:          r.City,
		Latitude:      r.Latitude,
		Floors:        r.Floors,
		Status:        r.Status,
		ParkingSpaces: r.ParkingSpaces,
		TS:            r.TS,
	}
}

func (r PropertyRow) record() models.PropertyRecord {
	return models.PropertyRecord{
		PropertyType:  r.PropertyType,
		Size:          r.Size,
		Price:         r.Price,
		City:          r.City,
		Latitude:      r.Latitude,
		Floors:        r.Floors,
		Status:        r.Status,
		ParkingSpaces: r.ParkingSpaces,
		TS:            r.TS,
	}
}

// SQLiteStore implements store.Store on an embedded SQLite database.
type SQLiteStore struct {
	db     *gorm.DB
	path   string
	logger *logrus.Logger
	mu     sync.Mutex
}

var _ store.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath and migrates the schema.
func NewSQLiteStore(dbPath string, log *logrus.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logrus.New()
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetOutput(os.Stdout)
	}

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, store.NewWriteError("mkdir", dir, err)
		}
	}

	db, err := openGorm(dbPath)
	if err != nil {
		return nil, store.NewReadError("open", dbPath, err)
	}

	if err := MigrateSchema(db); err != nil {
		return nil, store.NewWriteError("migrate", dbPath, err)
	}

	log.WithField("path", dbPath).Info("Opened SQLite record store")
	return &SQLiteStore{db: db, path: dbPath, logger: log}, nil
}

// NewTestDB returns an in-memory database for tests.
func NewTestDB() (*gorm.DB, error) {
	return openGorm("file::memory:")
}

func openGorm(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	return db, nil
}

// NewSQLiteStoreFromDB wraps an already opened database.
func NewSQLiteStoreFromDB(db *gorm.DB, log *logrus.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logrus.New()
	}
	if err := MigrateSchema(db); err != nil {
		return nil, store.NewWriteError("migrate", "", err)
	}
	return &SQLiteStore{db: db, logger: log}, nil
}

// List returns all records ordered by insertion.
func (s *SQLiteStore) List() ([]models.PropertyRecord, error) {
	var rows []PropertyRow
	if err := s.db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, store.NewReadError("query", s.path, err)
	}

	records := make([]models.PropertyRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

// Append inserts record as the newest row.
func (s *SQLiteStore) Append(record models.PropertyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := rowFromRecord(record)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert property: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.NewWriteError("insert", s.path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":   row.ID,
		"city": row.City,
	}).Debug("Inserted property record")
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
