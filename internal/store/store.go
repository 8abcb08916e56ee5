package store

import (
	"errors"
	"time"

	"github.com/conductionnl/commonground-gateway/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(&models.LoginLog{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// CreateLoginLog writes one login-log row.
func (s *Store) CreateLoginLog(entry *models.LoginLog) error {
	return s.db.Create(entry).Error
}

// CreateLoginLogBatch writes a batch of login-log rows in one insert.
func (s *Store) CreateLoginLogBatch(entries []*models.LoginLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Create(entries).Error
}

// LoginLogFilters narrows a paginated login-log query.
type LoginLogFilters struct {
	Method  string
	Address string
	Since   time.Time
	Until   time.Time
}

// GetLoginLogsPaginated returns login-log rows newest first.
func (s *Store) GetLoginLogsPaginated(
	params PaginationParams,
	filters LoginLogFilters,
) ([]models.LoginLog, PaginationResult, error) {
	query := s.db.Model(&models.LoginLog{})

	if filters.Method != "" {
		query = query.Where("method = ?", filters.Method)
	}
	if filters.Address != "" {
		query = query.Where("address = ?", filters.Address)
	}
	if !filters.Since.IsZero() {
		query = query.Where("created_at >= ?", filters.Since)
	}
	if !filters.Until.IsZero() {
		query = query.Where("created_at <= ?", filters.Until)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationResult{}, err
	}

	pagination := CalculatePagination(total, params.Page, params.PageSize)

	var logs []models.LoginLog
	err := query.
		Order("created_at DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PageSize).
		Limit(pagination.PageSize).
		Find(&logs).Error
	if err != nil {
		return nil, PaginationResult{}, err
	}

	return logs, pagination, nil
}

// GetLoginLogByID fetches one login-log row.
func (s *Store) GetLoginLogByID(id string) (*models.LoginLog, error) {
	var entry models.LoginLog
	err := s.db.First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// DeleteOldLoginLogs removes rows older than the cutoff and reports how
// many were deleted.
func (s *Store) DeleteOldLoginLogs(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.LoginLog{})
	return result.RowsAffected, result.Error
}

// CountLoginLogs returns the total number of login-log rows.
func (s *Store) CountLoginLogs() (int64, error) {
	var count int64
	err := s.db.Model(&models.LoginLog{}).Count(&count).Error
	return count, err
}

// Health checks the database connection.
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
