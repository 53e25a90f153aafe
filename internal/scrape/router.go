package scrape

import (
	"context"
	"time"

	"journey_backend/internal/config"
	"journey_backend/internal/model"
	"journey_backend/internal/util"
	"journey_backend/pkg/logger"
	"journey_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// Router 按偏好格式选择搜索来源：视频走 YouTube，文本走 DuckDuckGo，
// 混合两个都查。文本通道空手而归时依次降级到已配置的付费通道。
type Router struct {
	youtube  Provider
	text     Provider
	fallback []Provider
	pause    time.Duration
}

func NewRouter(cfg *config.Config) *Router {
	r := &Router{
		youtube: NewYouTubeProvider(),
		text: NewDuckDuckGoProvider(
			time.Duration(cfg.Scrape.BackendDelaySecs)*time.Second,
			cfg.Search.Region,
		),
		pause: 2 * time.Second,
	}

	serp := NewSerpAPIProvider(cfg.Search)
	if serp.Enabled() {
		r.fallback = append(r.fallback, serp)
	}
	cse := NewGoogleCSEProvider(cfg.Search)
	if cse.Enabled() {
		r.fallback = append(r.fallback, cse)
	}
	bing := NewBingAPIProvider(cfg.Search)
	if bing.Enabled() {
		r.fallback = append(r.fallback, bing)
	}

	return r
}

// NewRouterWithProviders 测试注入用
func NewRouterWithProviders(youtube, text Provider, fallback []Provider) *Router {
	return &Router{youtube: youtube, text: text, fallback: fallback}
}

func (r *Router) Search(ctx context.Context, query string, maxResults int, preferredFormat string) []model.SearchResult {
	if preferredFormat == string(model.Video) || preferredFormat == "videos" {
		results, err := r.youtube.Search(ctx, query, maxResults)
		if err != nil {
			logger.Log.Warn("youtube search failed",
				zap.String("query", query), zap.Error(err))
			return nil
		}
		monitoring.ProviderResultCounter.WithLabelValues(r.youtube.Name()).Add(float64(len(results)))
		return results
	}

	if util.MixedFormat(preferredFormat) {
		return r.searchMixed(ctx, query)
	}

	// blog/doc 及其余情况走文本通道
	return r.searchText(ctx, query, maxResults)
}

// searchMixed 视频和文本都取，量放大让后续策展有的选
func (r *Router) searchMixed(ctx context.Context, query string) []model.SearchResult {
	all := []model.SearchResult{}

	videos, err := r.youtube.Search(ctx, query, 20)
	if err != nil {
		logger.Log.Warn("youtube search failed in mixed mode",
			zap.String("query", query), zap.Error(err))
	} else {
		monitoring.ProviderResultCounter.WithLabelValues(r.youtube.Name()).Add(float64(len(videos)))
		all = append(all, videos...)
	}

	if r.pause > 0 {
		select {
		case <-time.After(r.pause):
		case <-ctx.Done():
			return all
		}
	}

	all = append(all, r.searchText(ctx, query, 50)...)
	return all
}

func (r *Router) searchText(ctx context.Context, query string, maxResults int) []model.SearchResult {
	results, err := r.text.Search(ctx, query, maxResults)
	if err != nil {
		logger.Log.Warn("text search failed",
			zap.String("provider", r.text.Name()),
			zap.String("query", query), zap.Error(err))
	}
	if len(results) > 0 {
		return results
	}

	for _, provider := range r.fallback {
		results, err = provider.Search(ctx, query, maxResults)
		if err != nil {
			logger.Log.Warn("fallback search failed",
				zap.String("provider", provider.Name()),
				zap.String("query", query), zap.Error(err))
			continue
		}
		if len(results) > 0 {
			logger.Log.Info("fallback provider served query",
				zap.String("provider", provider.Name()),
				zap.Int("results", len(results)))
			return results
		}
	}
	return nil
}
