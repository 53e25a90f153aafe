package service

import (
	"context"
	"errors"

	"journey_backend/internal/config"
	"journey_backend/internal/model"
	"journey_backend/internal/repository"
	"journey_backend/internal/scrape"
	"journey_backend/internal/util"

	"gorm.io/gorm"
)

// ResourceService 资源读取与内容回填
type ResourceService struct {
	ResourceRepo *repository.ResourceRepository
	RawHTML      *repository.RawHTMLStore
	Fetcher      scrape.Fetcher
}

func NewResourceService(cfg *config.Config, resourceRepo *repository.ResourceRepository, rawHTML *repository.RawHTMLStore) *ResourceService {
	return &ResourceService{
		ResourceRepo: resourceRepo,
		RawHTML:      rawHTML,
		Fetcher:      scrape.NewPageFetcher(cfg.Scrape),
	}
}

func (s *ResourceService) GetResource(id string) (*model.Resource, error) {
	resource, err := s.ResourceRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}
	return resource, nil
}

// BackfillContent 对正文缺失的资源重新抓取。视频没有正文可回填。
func (s *ResourceService) BackfillContent(ctx context.Context, id string) (*model.Resource, error) {
	resource, err := s.GetResource(id)
	if err != nil {
		return nil, err
	}
	if resource.Type == model.Video {
		return resource, nil
	}

	page, err := s.Fetcher.Fetch(ctx, resource.URL)
	if err != nil {
		return nil, err
	}
	if len(page.Content) < 100 {
		return resource, nil
	}

	fields := map[string]interface{}{
		"content":        page.Content,
		"estimated_time": scrape.EstimateReadingTime(page.Content),
	}
	if resource.Summary == "" || len(resource.Summary) < 50 {
		fields["summary"] = scrape.TruncateText(page.Content, 300)
	}
	if err := s.ResourceRepo.Update(id, fields); err != nil {
		return nil, err
	}

	if page.HTML != "" && s.RawHTML != nil {
		_ = s.RawHTML.Save(ctx, id, page.HTML)
	}
	return s.ResourceRepo.FindByID(id)
}

// GetRawHTML 管理端排查解析问题用
func (s *ResourceService) GetRawHTML(ctx context.Context, id string) (string, error) {
	if _, err := s.GetResource(id); err != nil {
		return "", err
	}
	return s.RawHTML.Get(ctx, id)
}
