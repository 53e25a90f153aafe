package scrape

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"journey_backend/internal/model"
	"journey_backend/pkg/logger"
	"journey_backend/pkg/monitoring"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DuckDuckGoProvider 免费文本搜索。依次尝试多个后端端点聚合结果，
// 后端之间用限速器拉开间隔，避免触发封禁。
type DuckDuckGoProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	region  string
}

func NewDuckDuckGoProvider(backendDelay time.Duration, region string) *DuckDuckGoProvider {
	if region == "" {
		region = "wt-wt"
	}
	return &DuckDuckGoProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(backendDelay), 1),
		region:  region,
	}
}

func (p *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

type ddgBackend struct {
	name  string
	fetch func(ctx context.Context, query string) ([]model.SearchResult, error)
}

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	backends := []ddgBackend{
		{"html", p.searchHTML},
		{"bing", p.searchBing},
		{"auto", p.searchAuto},
		{"lite", p.searchLite},
	}

	all := []model.SearchResult{}
	seen := map[string]bool{}

	for _, backend := range backends {
		if err := p.limiter.Wait(ctx); err != nil {
			return all, err
		}

		results, err := backend.fetch(ctx, query)
		if err != nil {
			logger.Log.Debug("duckduckgo backend failed",
				zap.String("backend", backend.name), zap.Error(err))
			continue
		}

		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			r.Type = model.Blog
			all = append(all, r)
		}
	}

	monitoring.ProviderResultCounter.WithLabelValues(p.Name()).Add(float64(len(all)))
	if len(all) > maxResults {
		all = all[:maxResults]
	}
	return all, nil
}

func (p *DuckDuckGoProvider) searchHTML(ctx context.Context, query string) ([]model.SearchResult, error) {
	return p.scrapeDDGHTML(ctx, "https://html.duckduckgo.com/html/", query)
}

// searchAuto 与 html 同构，只是走主域端点
func (p *DuckDuckGoProvider) searchAuto(ctx context.Context, query string) ([]model.SearchResult, error) {
	return p.scrapeDDGHTML(ctx, "https://duckduckgo.com/html/", query)
}

func (p *DuckDuckGoProvider) scrapeDDGHTML(ctx context.Context, endpoint, query string) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", p.region)

	doc, err := p.fetchDoc(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	results := []model.SearchResult{}
	doc.Find(".result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find(".result__a").First()
		href, _ := link.Attr("href")
		href = resolveDDGRedirect(href)
		if href == "" {
			return
		}
		results = append(results, model.SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     href,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
	})
	return results, nil
}

func (p *DuckDuckGoProvider) searchLite(ctx context.Context, query string) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", p.region)

	doc, err := p.fetchDoc(ctx, "https://lite.duckduckgo.com/lite/?"+params.Encode())
	if err != nil {
		return nil, err
	}

	results := []model.SearchResult{}
	doc.Find("a.result-link").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = resolveDDGRedirect(href)
		if href == "" {
			return
		}
		results = append(results, model.SearchResult{
			Title: strings.TrimSpace(sel.Text()),
			URL:   href,
		})
	})

	// lite 端点的摘要在独立的表格行里，按序补齐
	doc.Find("td.result-snippet").Each(func(i int, sel *goquery.Selection) {
		if i < len(results) {
			results[i].Snippet = strings.TrimSpace(sel.Text())
		}
	})
	return results, nil
}

func (p *DuckDuckGoProvider) searchBing(ctx context.Context, query string) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	doc, err := p.fetchDoc(ctx, "https://www.bing.com/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	results := []model.SearchResult{}
	doc.Find("li.b_algo").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("h2 a").First()
		href, _ := link.Attr("href")
		if href == "" || !strings.HasPrefix(href, "http") {
			return
		}
		results = append(results, model.SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     href,
			Snippet: strings.TrimSpace(sel.Find(".b_caption p").First().Text()),
		})
	})
	return results, nil
}

func (p *DuckDuckGoProvider) fetchDoc(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{Status: resp.StatusCode, URL: rawURL}
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// resolveDDGRedirect DDG 的结果链接是 /l/?uddg=<编码后真实URL> 形式的跳转
func resolveDDGRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") && !strings.Contains(href, "duckduckgo.com/l/") {
		return href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if real := parsed.Query().Get("uddg"); real != "" {
		if decoded, err := url.QueryUnescape(real); err == nil {
			return decoded
		}
		return real
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}

type httpStatusError struct {
	Status int
	URL    string
}

func (e *httpStatusError) Error() string {
	return "unexpected HTTP status " + http.StatusText(e.Status) + " for " + e.URL
}
