// Package scrape 实现从用户意图到候选资源列表的整条采集管线：
// 查询生成、多来源搜索、正文抓取、批量增强。策展在 curate.go。
package scrape

import (
	"context"

	"journey_backend/internal/model"
)

// Completion AI 补全入口，service.AIService 是生产实现
type Completion interface {
	GenerateText(systemPrompt, prompt string, temperature float64, maxTokens int) (string, error)
	GenerateJSON(systemPrompt, prompt string, temperature float64, maxTokens int, out interface{}) error
}

// Provider 单个搜索来源
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error)
}

// Fetcher 抓取单个 URL 的正文
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Page 抓取结果，Content 是清洗后的正文文本
type Page struct {
	URL     string
	Title   string
	Content string
	HTML    string
}

// ResourceStore 管线对持久层的最小依赖，按 URL 去重复用已有资源
type ResourceStore interface {
	FindByURL(url string) (*model.Resource, error)
	Save(resource *model.Resource) (*model.Resource, error)
	SaveRawHTML(ctx context.Context, resourceID, html string)
}
