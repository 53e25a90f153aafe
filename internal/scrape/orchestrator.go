package scrape

import (
	"context"
	"time"

	"journey_backend/internal/config"
	"journey_backend/internal/model"
	"journey_backend/internal/util"
	"journey_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Orchestrator 驱动整条采集管线：逐条查询搜索、抓取正文、落资源行。
// 查询之间强制拉开间隔，零结果时冷却后用补充查询重试一轮。
type Orchestrator struct {
	Builder *QueryBuilder
	Router  *Router
	Fetcher Fetcher
	Store   ResourceStore

	queryDelay    time.Duration
	retryCooldown time.Duration
}

func NewOrchestrator(cfg *config.Config, ai Completion, fetcher Fetcher, store ResourceStore) *Orchestrator {
	return &Orchestrator{
		Builder:       NewQueryBuilder(ai),
		Router:        NewRouter(cfg),
		Fetcher:       fetcher,
		Store:         store,
		queryDelay:    time.Duration(cfg.Scrape.QueryDelaySecs) * time.Second,
		retryCooldown: time.Duration(cfg.Scrape.RetryCooldownSecs) * time.Second,
	}
}

// Execute 返回本次采集到的全部资源（含复用的已有行）。
// 混合偏好下每条查询最多取8条，锁定格式时5条。
func (o *Orchestrator) Execute(ctx context.Context, intent model.Intent) ([]*model.Resource, error) {
	queries := o.Builder.BuildQueries(intent)
	logger.Log.Info("search queries generated",
		zap.String("topic", intent.Topic), zap.Int("queries", len(queries)))

	maxPerQuery := 5
	if util.MixedFormat(intent.PreferredFormat) {
		maxPerQuery = 8
	}

	resources, err := o.runQueries(ctx, queries, maxPerQuery, intent)
	if err != nil {
		return resources, err
	}

	if len(resources) == 0 {
		logger.Log.Warn("no resources found, retrying with refined queries",
			zap.String("topic", intent.Topic))
		if err := sleepCtx(ctx, o.retryCooldown); err != nil {
			return resources, err
		}

		refined := o.Builder.RefineQueries(intent, resources)
		if len(refined) > 2 {
			refined = refined[:2]
		}
		more, err := o.runQueries(ctx, refined, 2, intent)
		if err != nil {
			return resources, err
		}
		resources = append(resources, more...)
	}

	logger.Log.Info("scraping complete",
		zap.String("topic", intent.Topic), zap.Int("resources", len(resources)))
	return resources, nil
}

func (o *Orchestrator) runQueries(ctx context.Context, queries []string, maxPerQuery int, intent model.Intent) ([]*model.Resource, error) {
	all := []*model.Resource{}
	seenURLs := map[string]bool{}

	for idx, query := range queries {
		if idx > 0 {
			if err := sleepCtx(ctx, o.queryDelay); err != nil {
				return all, err
			}
		}

		resources := o.searchAndFetch(ctx, query, maxPerQuery, intent.PreferredFormat)
		for _, r := range resources {
			if r.URL == "" || seenURLs[r.URL] {
				continue
			}
			seenURLs[r.URL] = true
			all = append(all, r)
		}

		if ctx.Err() != nil {
			return all, ctx.Err()
		}
	}
	return all, nil
}

// searchAndFetch 单条查询的完整处理。混合偏好下视频和文章对半开，
// 保证两类都进候选池。
func (o *Orchestrator) searchAndFetch(ctx context.Context, query string, maxResults int, preferredFormat string) []*model.Resource {
	// 放大检索量，后面还要过滤
	searchResults := o.Router.Search(ctx, query, maxResults*2, preferredFormat)
	if len(searchResults) == 0 {
		logger.Log.Warn("no search results", zap.String("query", query))
		return nil
	}

	var toProcess []model.SearchResult
	if util.MixedFormat(preferredFormat) {
		var videos, articles []model.SearchResult
		for _, r := range searchResults {
			if r.Type == model.Video {
				videos = append(videos, r)
			} else {
				articles = append(articles, r)
			}
		}
		half := maxInt(1, maxResults/2)
		toProcess = append(toProcess, videos[:minInt(len(videos), half)]...)
		toProcess = append(toProcess, articles[:minInt(len(articles), half)]...)
	} else {
		toProcess = searchResults[:minInt(len(searchResults), maxResults)]
	}

	out := []*model.Resource{}
	for _, result := range toProcess {
		if ctx.Err() != nil {
			return out
		}
		if result.URL == "" {
			continue
		}

		// 已抓过的 URL 直接复用，不重抓
		if existing, err := o.Store.FindByURL(result.URL); err == nil {
			out = append(out, existing)
			continue
		} else if err != gorm.ErrRecordNotFound {
			logger.Log.Warn("resource lookup failed",
				zap.String("url", result.URL), zap.Error(err))
			continue
		}

		resource, rawHTML := o.buildResource(ctx, query, result)
		if resource == nil {
			continue
		}
		saved, err := o.Store.Save(resource)
		if err != nil {
			logger.Log.Warn("resource save failed",
				zap.String("url", result.URL), zap.Error(err))
			continue
		}
		if rawHTML != "" && saved.ID != "" {
			o.Store.SaveRawHTML(ctx, saved.ID, rawHTML)
		}
		out = append(out, saved)
	}
	return out
}

// buildResource 搜索结果转资源行，第二个返回值是抓到的原始 HTML
func (o *Orchestrator) buildResource(ctx context.Context, query string, result model.SearchResult) (*model.Resource, string) {
	title := result.Title
	if title == "" {
		title = result.URL
	}
	snippet := TruncateText(result.Snippet, 300)

	// 视频不抓正文，搜索结果即全部元数据，阅读时长记0
	if result.Type == model.Video || IsVideoURL(result.URL) {
		return &model.Resource{
			URL:           result.URL,
			Title:         title,
			Summary:       snippet,
			Type:          model.Video,
			Difficulty:    "intermediate",
			Tags:          []string{},
			EstimatedTime: 0,
			Source:        query,
		}, ""
	}

	page, err := o.Fetcher.Fetch(ctx, result.URL)
	if page == nil || len(page.Content) < 100 {
		// 抓取失败或正文太薄，退化为仅快照资源
		if err != nil {
			logger.Log.Debug("content fetch failed, keeping snippet-only resource",
				zap.String("url", result.URL), zap.Error(err))
		}
		return &model.Resource{
			URL:           result.URL,
			Title:         title,
			Summary:       snippet,
			Type:          model.Blog,
			Difficulty:    "intermediate",
			Tags:          []string{},
			EstimatedTime: 0,
			Source:        query,
		}, ""
	}

	resource := &model.Resource{
		URL:           result.URL,
		Title:         page.Title,
		Summary:       TruncateText(page.Content, 300),
		Type:          DetectType(result.URL, page.Content),
		Difficulty:    "intermediate",
		Tags:          []string{},
		EstimatedTime: EstimateReadingTime(page.Content),
		Content:       page.Content,
		Source:        query,
	}
	if resource.Title == "" {
		resource.Title = title
	}
	return resource, page.HTML
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
