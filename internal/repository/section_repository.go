package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"journey_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// SectionRepository 旅程分组文档存取。分组是旅程级元数据，
// 独立于资源行存储，不挂在资源对象上。
type SectionRepository struct {
	Redis *redis.Client
}

func NewSectionRepository(rdb *redis.Client) *SectionRepository {
	return &SectionRepository{Redis: rdb}
}

func sectionsKey(journeyID uint) string {
	return fmt.Sprintf("journey:sections:%d", journeyID)
}

func (r *SectionRepository) Save(ctx context.Context, journeyID uint, sections []model.Section) error {
	doc := model.JourneySections{
		JourneyID: journeyID,
		Sections:  sections,
		UpdatedAt: time.Now().Unix(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, sectionsKey(journeyID), data, 0).Err()
}

// Get 文档不存在时返回空分组列表而非错误，旧旅程可能没有分组
func (r *SectionRepository) Get(ctx context.Context, journeyID uint) ([]model.Section, error) {
	data, err := r.Redis.Get(ctx, sectionsKey(journeyID)).Bytes()
	if err == redis.Nil {
		return []model.Section{}, nil
	}
	if err != nil {
		return nil, err
	}

	var doc model.JourneySections
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Sections, nil
}

func (r *SectionRepository) Delete(ctx context.Context, journeyID uint) error {
	return r.Redis.Del(ctx, sectionsKey(journeyID)).Err()
}
