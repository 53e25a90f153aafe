package repository

import (
	"journey_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Get(journeyID, userID uint, resourceID string) (*model.JourneyProgress, error) {
	var progress model.JourneyProgress
	err := r.DB.Where("journey_id = ? AND user_id = ? AND resource_id = ?",
		journeyID, userID, resourceID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) GetAll(journeyID, userID uint) ([]model.JourneyProgress, error) {
	var records []model.JourneyProgress
	err := r.DB.Where("journey_id = ? AND user_id = ?", journeyID, userID).
		Find(&records).Error
	return records, err
}

// MarkCompleted 置为已完成（档位2），重复标记不重置完成时间
func (r *ProgressRepository) MarkCompleted(journeyID, userID uint, resourceID string) (*model.JourneyProgress, error) {
	now := time.Now()
	progress, err := r.Get(journeyID, userID, resourceID)
	if err == gorm.ErrRecordNotFound {
		progress = &model.JourneyProgress{
			JourneyID:      journeyID,
			UserID:         userID,
			ResourceID:     resourceID,
			Completed:      model.ProgressCompleted,
			LastAccessedAt: now,
			CompletedAt:    &now,
		}
		return progress, r.DB.Create(progress).Error
	}
	if err != nil {
		return nil, err
	}

	progress.Completed = model.ProgressCompleted
	progress.LastAccessedAt = now
	if progress.CompletedAt == nil {
		progress.CompletedAt = &now
	}
	return progress, r.DB.Save(progress).Error
}

// MarkInProgress 档位只升不降：已完成的资源不会被后台重评降级
func (r *ProgressRepository) MarkInProgress(journeyID, userID uint, resourceID string) (*model.JourneyProgress, error) {
	now := time.Now()
	progress, err := r.Get(journeyID, userID, resourceID)
	if err == gorm.ErrRecordNotFound {
		progress = &model.JourneyProgress{
			JourneyID:      journeyID,
			UserID:         userID,
			ResourceID:     resourceID,
			Completed:      model.ProgressInProgress,
			LastAccessedAt: now,
		}
		return progress, r.DB.Create(progress).Error
	}
	if err != nil {
		return nil, err
	}

	if progress.Completed == model.ProgressCompleted {
		return progress, nil
	}
	if progress.Completed < model.ProgressInProgress {
		progress.Completed = model.ProgressInProgress
	}
	progress.LastAccessedAt = now
	return progress, r.DB.Save(progress).Error
}

// MarkIncomplete 显式取消完成，是唯一允许的降档操作
func (r *ProgressRepository) MarkIncomplete(journeyID, userID uint, resourceID string) (*model.JourneyProgress, error) {
	now := time.Now()
	progress, err := r.Get(journeyID, userID, resourceID)
	if err == gorm.ErrRecordNotFound {
		progress = &model.JourneyProgress{
			JourneyID:      journeyID,
			UserID:         userID,
			ResourceID:     resourceID,
			Completed:      model.ProgressNotStarted,
			LastAccessedAt: now,
		}
		return progress, r.DB.Create(progress).Error
	}
	if err != nil {
		return nil, err
	}

	progress.Completed = model.ProgressNotStarted
	progress.CompletedAt = nil
	progress.LastAccessedAt = now
	return progress, r.DB.Save(progress).Error
}

func (r *ProgressRepository) AddTimeSpent(journeyID, userID uint, resourceID string, minutes int) (*model.JourneyProgress, error) {
	now := time.Now()
	progress, err := r.Get(journeyID, userID, resourceID)
	if err == gorm.ErrRecordNotFound {
		progress = &model.JourneyProgress{
			JourneyID:        journeyID,
			UserID:           userID,
			ResourceID:       resourceID,
			TimeSpentMinutes: minutes,
			LastAccessedAt:   now,
		}
		return progress, r.DB.Create(progress).Error
	}
	if err != nil {
		return nil, err
	}

	progress.TimeSpentMinutes += minutes
	progress.LastAccessedAt = now
	return progress, r.DB.Save(progress).Error
}

func (r *ProgressRepository) GetLastAccessed(journeyID, userID uint) (*model.JourneyProgress, error) {
	var progress model.JourneyProgress
	err := r.DB.Where("journey_id = ? AND user_id = ?", journeyID, userID).
		Order("last_accessed_at DESC").
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}
