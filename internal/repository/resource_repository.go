package repository

import (
	"journey_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

func (r *ResourceRepository) Create(resource *model.Resource) error {
	if resource.ScrapedAt.IsZero() {
		resource.ScrapedAt = time.Now()
	}
	return r.DB.Create(resource).Error
}

// GetOrCreateByURL 按URL取或建。两个旅程并发创建同一URL时，唯一索引会让
// 后到者失败，此时重读已存在的行返回，后写者不覆盖先写者。
func (r *ResourceRepository) GetOrCreateByURL(resource *model.Resource) (*model.Resource, error) {
	existing, err := r.FindByURL(resource.URL)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if createErr := r.Create(resource); createErr != nil {
		// 并发创建撞了唯一索引，重读一次
		existing, err = r.FindByURL(resource.URL)
		if err != nil {
			return nil, createErr
		}
		return existing, nil
	}
	return resource, nil
}

func (r *ResourceRepository) FindByID(id string) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.Where("id = ?", id).First(&resource).Error
	return &resource, err
}

// FindByIDs 返回结果不保证与入参同序，调用方自行按需重排
func (r *ResourceRepository) FindByIDs(ids []string) ([]model.Resource, error) {
	var resources []model.Resource
	if len(ids) == 0 {
		return resources, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&resources).Error
	return resources, err
}

func (r *ResourceRepository) FindByURL(url string) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.Where("url = ?", url).First(&resource).Error
	return &resource, err
}

func (r *ResourceRepository) Update(id string, fields map[string]interface{}) error {
	return r.DB.Model(&model.Resource{}).Where("id = ?", id).Updates(fields).Error
}
