package service

import (
	"context"

	"journey_backend/internal/model"
	"journey_backend/internal/repository"
)

// resourceStoreAdapter 把持久层组合适配成采集管线需要的最小接口
type resourceStoreAdapter struct {
	resources *repository.ResourceRepository
	rawHTML   *repository.RawHTMLStore
}

func (a *resourceStoreAdapter) FindByURL(url string) (*model.Resource, error) {
	return a.resources.FindByURL(url)
}

func (a *resourceStoreAdapter) Save(resource *model.Resource) (*model.Resource, error) {
	return a.resources.GetOrCreateByURL(resource)
}

func (a *resourceStoreAdapter) SaveRawHTML(ctx context.Context, resourceID, html string) {
	if a.rawHTML == nil {
		return
	}
	// 原文归档失败不阻塞管线
	_ = a.rawHTML.Save(ctx, resourceID, html)
}
