package scrape

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"journey_backend/internal/config"
	"journey_backend/pkg/logger"
	"journey_backend/pkg/monitoring"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// 渲染抓取只有在静态正文低于该阈值时才启动
const minStaticContent = 200

var unwantedTags = []string{
	"script", "style", "nav", "header", "footer", "aside",
	"menu", "menubar", "sidebar", "advertisement", "ads",
	"comment", "comments", "social", "share", "breadcrumb",
	"breadcrumbs", "navigation", "nav-menu", "cookie",
	"cookie-banner", "newsletter", "subscribe", "related",
}

var unwantedClassKeywords = []string{
	"nav", "menu", "sidebar", "header", "footer", "ad",
	"advertisement", "social", "share", "breadcrumb",
	"cookie", "newsletter", "related", "comments",
	"comment-section", "author-box", "tags", "meta",
}

var contentClassKeywords = []string{
	"content", "main", "post", "article", "entry", "body", "text", "prose",
}

var navTextKeywords = []string{
	"home", "about", "contact", "privacy", "terms", "cookie",
	"menu", "navigation", "skip to", "jump to", "table of contents",
}

var paragraphSplitRe = regexp.MustCompile(`\n\s*\n+`)

// StaticFetcher 普通 HTTP GET 加 goquery 正文抽取，绝大多数页面走这条路
type StaticFetcher struct {
	client *http.Client
}

func NewStaticFetcher(timeout time.Duration) *StaticFetcher {
	return &StaticFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch HTTP %d for %s", resp.StatusCode, pageURL)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") {
		return nil, fmt.Errorf("not an HTML page: %s", contentType)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	rawHTML, _ := doc.Html()
	title := extractTitle(doc)
	content := extractContent(doc, title)

	if title == "" && content == "" {
		return nil, fmt.Errorf("no extractable content at %s", pageURL)
	}
	if title == "" {
		title = pageURL
	}

	return &Page{
		URL:     pageURL,
		Title:   title,
		Content: CleanText(content),
		HTML:    rawHTML,
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && og != "" {
		return og
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractContent 先剥掉非正文元素，再定位主内容区，
// 逐块收集文本并去掉导航碎片和重复行
func extractContent(doc *goquery.Document, pageTitle string) string {
	for _, tag := range unwantedTags {
		doc.Find(tag).Remove()
	}

	doc.Find("[class],[id]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		marker := strings.ToLower(class + " " + id)
		for _, kw := range unwantedClassKeywords {
			if strings.Contains(marker, kw) {
				sel.Remove()
				return
			}
		}
	})

	main := findMainContent(doc)
	if main == nil {
		return ""
	}

	paragraphs := []string{}
	seen := map[string]bool{}

	main.Find("p,h1,h2,h3,h4,h5,h6,li,blockquote,pre,code").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(spaceRe.ReplaceAllString(sel.Text(), " "))
		if len(text) < 20 {
			return
		}

		lower := strings.ToLower(text)
		if len(text) < 50 {
			for _, kw := range navTextKeywords {
				if strings.Contains(lower, kw) {
					return
				}
			}
		}

		// 前100字符做近似去重
		key := lower
		if len(key) > 100 {
			key = key[:100]
		}
		if seen[key] {
			return
		}
		seen[key] = true

		paragraphs = append(paragraphs, text)
	})

	// 结构化抽取没捞到几段时退化为整体取文本
	if len(paragraphs) < 3 {
		full := strings.TrimSpace(main.Text())
		paragraphs = paragraphs[:0]
		for _, p := range paragraphSplitRe.Split(full, -1) {
			p = strings.TrimSpace(p)
			if len(p) > 50 {
				paragraphs = append(paragraphs, p)
			}
		}
	}

	content := strings.Join(paragraphs, "\n\n")
	content = dropRepeatedLines(content)
	content = dropLeadingTitle(content, pageTitle)
	return strings.TrimSpace(blankLinesRe.ReplaceAllString(content, "\n\n"))
}

func findMainContent(doc *goquery.Document) *goquery.Selection {
	if article := doc.Find("article").First(); article.Length() > 0 {
		return article
	}
	if main := doc.Find("main").First(); main.Length() > 0 {
		return main
	}

	var best *goquery.Selection
	bestLen := 0
	doc.Find("div[class]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		lower := strings.ToLower(class)
		for _, kw := range contentClassKeywords {
			if strings.Contains(lower, kw) {
				if l := len(sel.Text()); l > bestLen {
					best = sel
					bestLen = l
				}
				return
			}
		}
	})
	if best != nil {
		return best
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return nil
}

// dropRepeatedLines 页面里反复出现的标题行和面包屑只保留首次
func dropRepeatedLines(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	seen := map[string]bool{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, "")
			continue
		}
		lower := strings.ToLower(trimmed)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

func dropLeadingTitle(content, pageTitle string) string {
	if pageTitle == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	for len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		if first == "" {
			lines = lines[1:]
			continue
		}
		if strings.HasPrefix(first, pageTitle) || strings.Contains(first[:minInt(50, len(first))], pageTitle) {
			lines = lines[1:]
			continue
		}
		break
	}
	return strings.Join(lines, "\n")
}

// RenderedFetcher 无头浏览器渲染后取 DOM，只服务 JS 重的页面。
// 渲染超时由 context deadline 硬性保证。
type RenderedFetcher struct {
	timeout time.Duration
}

func NewRenderedFetcher(timeout time.Duration) *RenderedFetcher {
	return &RenderedFetcher{timeout: timeout}
}

func (f *RenderedFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.UserAgent(browserUserAgent),
		)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, f.timeout)
	defer cancelRun()

	var rawHTML string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &rawHTML),
	)
	if err != nil {
		return nil, fmt.Errorf("rendered fetch failed for %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	title := extractTitle(doc)
	content := extractContent(doc, title)
	if title == "" {
		title = pageURL
	}

	return &Page{
		URL:     pageURL,
		Title:   title,
		Content: CleanText(content),
		HTML:    rawHTML,
	}, nil
}

// PageFetcher 组合策略：先静态抓，正文太薄且开启了渲染兜底时再上浏览器，
// 两个结果取正文更长的一个。
type PageFetcher struct {
	Static      Fetcher
	Rendered    Fetcher
	UseRendered bool
}

func NewPageFetcher(cfg config.ScrapeConfig) *PageFetcher {
	return &PageFetcher{
		Static:      NewStaticFetcher(time.Duration(cfg.FetchTimeoutSecs) * time.Second),
		Rendered:    NewRenderedFetcher(time.Duration(cfg.RenderTimeoutSecs) * time.Second),
		UseRendered: cfg.UseRenderedFallback,
	}
}

func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	page, err := f.Static.Fetch(ctx, pageURL)
	if err != nil {
		monitoring.FetchFailureCounter.WithLabelValues("static").Inc()
		logger.Log.Debug("static fetch failed",
			zap.String("url", pageURL), zap.Error(err))
		page = nil
	}

	if page != nil && len(page.Content) >= minStaticContent {
		return page, nil
	}

	if !f.UseRendered || f.Rendered == nil {
		if page != nil {
			return page, nil
		}
		return nil, err
	}

	rendered, rerr := f.Rendered.Fetch(ctx, pageURL)
	if rerr != nil {
		monitoring.FetchFailureCounter.WithLabelValues("rendered").Inc()
		logger.Log.Debug("rendered fetch failed",
			zap.String("url", pageURL), zap.Error(rerr))
		if page != nil {
			return page, nil
		}
		return nil, rerr
	}

	if page != nil && len(page.Content) >= len(rendered.Content) {
		return page, nil
	}
	return rendered, nil
}
