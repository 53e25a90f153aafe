package repository

import (
	"journey_backend/internal/model"

	"gorm.io/gorm"
)

type JourneyRepository struct {
	DB *gorm.DB
}

func NewJourneyRepository(db *gorm.DB) *JourneyRepository {
	return &JourneyRepository{DB: db}
}

func (r *JourneyRepository) Create(journey *model.Journey) error {
	return r.DB.Create(journey).Error
}

func (r *JourneyRepository) FindByID(id uint) (*model.Journey, error) {
	var journey model.Journey
	err := r.DB.First(&journey, id).Error
	return &journey, err
}

func (r *JourneyRepository) FindByUser(userID uint, limit int) ([]model.Journey, error) {
	var journeys []model.Journey
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&journeys).Error
	return journeys, err
}

func (r *JourneyRepository) UpdateStatus(id uint, status model.JourneyStatus) error {
	return r.DB.Model(&model.Journey{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// FindNonTerminal 启动续跑用：捞出所有 pending/scraping/curating 的旅程
func (r *JourneyRepository) FindNonTerminal() ([]model.Journey, error) {
	var journeys []model.Journey
	err := r.DB.Where("status IN ?", []model.JourneyStatus{
		model.JourneyPending,
		model.JourneyScraping,
		model.JourneyCurating,
	}).Find(&journeys).Error
	return journeys, err
}

// ReplaceResources 整表替换旅程的资源关联：先清后写，事务内完成。
// worker 对同一旅程是幂等的，续跑时直接重写。
func (r *JourneyRepository) ReplaceResources(journeyID uint, resourceIDs []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("journey_id = ?", journeyID).
			Delete(&model.JourneyResource{}).Error; err != nil {
			return err
		}
		for idx, rid := range resourceIDs {
			link := model.JourneyResource{
				JourneyID:  journeyID,
				ResourceID: rid,
				OrderIndex: idx,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *JourneyRepository) GetResources(journeyID uint) ([]model.JourneyResource, error) {
	var links []model.JourneyResource
	err := r.DB.Where("journey_id = ?", journeyID).
		Order("order_index ASC").
		Find(&links).Error
	return links, err
}
