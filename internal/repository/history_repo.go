package repository

import (
	"github.com/study-assistant/internal/models"
	"gorm.io/gorm"
)

// HistoryRepository handles history data access
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create appends a history entry
func (r *HistoryRepository) Create(entry *models.HistoryEntry) error {
	return r.db.Create(entry).Error
}

// GetByUserID retrieves all history entries for a user, newest first
func (r *HistoryRepository) GetByUserID(userID uint) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	result := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// GetByUserIDPaginated retrieves history entries for a user with pagination,
// newest first
func (r *HistoryRepository) GetByUserIDPaginated(userID uint, page, pageSize int) ([]models.HistoryEntry, int64, error) {
	var entries []models.HistoryEntry
	var total int64

	if err := r.db.Model(&models.HistoryEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries)

	if result.Error != nil {
		return nil, 0, result.Error
	}

	return entries, total, nil
}
