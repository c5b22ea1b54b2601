package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"trade-journal-go/internal/models"
)

// GormStore is the primary backend: embedded sqlite through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the sqlite database and runs migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: sqlite has a single writer anyway, and it keeps
	// in-memory DSNs pinned to one database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return &GormStore{db: db}, nil
}

// Migrate applies the schema. Additive only, so it is safe to run against an
// already-migrated database at every startup.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Trade{}, &models.FuturesContract{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// DB exposes the underlying connection for reference-data seeding.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Create(t *models.Trade) error {
	return s.db.Create(t).Error
}

func (s *GormStore) BulkCreate(ts []*models.Trade) error {
	if len(ts) == 0 {
		return nil
	}
	return s.db.Create(&ts).Error
}

func (s *GormStore) Query(f Filter) ([]models.Trade, error) {
	q := s.db.Model(&models.Trade{})
	if f.Strategy != "" {
		q = q.Where("strategy = ?", f.Strategy)
	}
	if f.AssetType != "" {
		q = q.Where("asset_type = ?", f.AssetType)
	}
	if f.Symbol != "" {
		q = q.Where("symbol LIKE ?", "%"+f.Symbol+"%")
	}

	var all []models.Trade
	if err := q.Order("entry_date asc, id asc").Find(&all).Error; err != nil {
		return nil, err
	}

	// Calendar-day bounds and pnl ranges are resolved in Go so the comparison
	// semantics stay identical to the flat-file backend.
	out := make([]models.Trade, 0, len(all))
	for i := range all {
		if f.matches(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (s *GormStore) Get(id uint) (*models.Trade, error) {
	var t models.Trade
	if err := s.db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *GormStore) Update(id uint, patch map[string]any) (*models.Trade, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if len(patch) > 0 {
		if err := s.db.Model(t).Updates(patch).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(id)
}

func (s *GormStore) Delete(id uint) error {
	res := s.db.Delete(&models.Trade{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) PurgeAll() (int64, error) {
	res := s.db.Where("1 = 1").Delete(&models.Trade{})
	return res.RowsAffected, res.Error
}

var _ Store = (*GormStore)(nil)
