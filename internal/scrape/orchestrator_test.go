package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"

	"journey_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(yt, text *stubProvider, fetcher *stubFetcher, store *stubStore) *Orchestrator {
	return &Orchestrator{
		Builder: NewQueryBuilder(&stubCompletion{err: errors.New("ai down")}),
		Router:  NewRouterWithProviders(yt, text, nil),
		Fetcher: fetcher,
		Store:   store,
	}
}

func articleResult(url string) model.SearchResult {
	return model.SearchResult{
		Title:   "Article at " + url,
		URL:     url,
		Snippet: strings.Repeat("An informative snippet about the topic. ", 2),
		Type:    model.Blog,
	}
}

func articlePage(url string) *Page {
	return &Page{
		URL:     url,
		Title:   "Article at " + url,
		Content: strings.Repeat("A substantial paragraph of extracted article body text. ", 5),
		HTML:    "<html><body>raw</body></html>",
	}
}

func TestExecuteDeduplicatesURLs(t *testing.T) {
	url := "https://example.com/one"
	text := &stubProvider{name: "text", results: []model.SearchResult{articleResult(url)}}
	yt := &stubProvider{name: "youtube"}
	fetcher := &stubFetcher{pages: map[string]*Page{url: articlePage(url)}}
	store := newStubStore()

	o := newTestOrchestrator(yt, text, fetcher, store)
	resources, err := o.Execute(context.Background(), model.Intent{Topic: "go", Level: "beginner", PreferredFormat: "any"})

	require.NoError(t, err)
	// 5条降级查询都命中同一URL，结果只保留一条
	require.Len(t, resources, 1)
	assert.Equal(t, url, resources[0].URL)
}

func TestExecuteReusesKnownResources(t *testing.T) {
	url := "https://example.com/known"
	existing := &model.Resource{URL: url, Title: "Known", Summary: "already scraped"}
	existing.ID = "existing-id"

	text := &stubProvider{name: "text", results: []model.SearchResult{articleResult(url)}}
	yt := &stubProvider{name: "youtube"}
	fetcher := &stubFetcher{pages: map[string]*Page{}}
	store := newStubStore()
	store.byURL[url] = existing

	o := newTestOrchestrator(yt, text, fetcher, store)
	resources, err := o.Execute(context.Background(), model.Intent{Topic: "go", PreferredFormat: "blog"})

	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "existing-id", resources[0].ID)
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, store.saved)
}

func TestExecuteSkipsFetchForVideos(t *testing.T) {
	videoURL := "https://www.youtube.com/watch?v=abc123"
	yt := &stubProvider{name: "youtube", results: []model.SearchResult{{
		Title:   "Go Tutorial Video",
		URL:     videoURL,
		Snippet: strings.Repeat("A video walkthrough of the fundamentals. ", 2),
		Type:    model.Video,
	}}}
	text := &stubProvider{name: "text"}
	fetcher := &stubFetcher{pages: map[string]*Page{}}
	store := newStubStore()

	o := newTestOrchestrator(yt, text, fetcher, store)
	resources, err := o.Execute(context.Background(), model.Intent{Topic: "go", PreferredFormat: "video"})

	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, model.Video, resources[0].Type)
	assert.Zero(t, resources[0].EstimatedTime)
	assert.Zero(t, fetcher.calls)
}

func TestExecuteSnippetFallbackOnFetchFailure(t *testing.T) {
	url := "https://example.com/broken"
	text := &stubProvider{name: "text", results: []model.SearchResult{articleResult(url)}}
	yt := &stubProvider{name: "youtube"}
	fetcher := &stubFetcher{pages: map[string]*Page{}}
	store := newStubStore()

	o := newTestOrchestrator(yt, text, fetcher, store)
	resources, err := o.Execute(context.Background(), model.Intent{Topic: "go", PreferredFormat: "blog"})

	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, model.Blog, resources[0].Type)
	assert.Contains(t, resources[0].Summary, "informative snippet")
	assert.Empty(t, resources[0].Content)
}

func TestExecuteSavesRawHTML(t *testing.T) {
	url := "https://example.com/article"
	text := &stubProvider{name: "text", results: []model.SearchResult{articleResult(url)}}
	yt := &stubProvider{name: "youtube"}
	fetcher := &stubFetcher{pages: map[string]*Page{url: articlePage(url)}}
	store := newStubStore()

	o := newTestOrchestrator(yt, text, fetcher, store)
	resources, err := o.Execute(context.Background(), model.Intent{Topic: "go", PreferredFormat: "blog"})

	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "<html><body>raw</body></html>", store.raw[resources[0].ID])
}

func TestExecuteRetriesWithRefinedQueriesOnZeroResults(t *testing.T) {
	text := &stubProvider{name: "text"}
	yt := &stubProvider{name: "youtube"}
	fetcher := &stubFetcher{pages: map[string]*Page{}}
	store := newStubStore()

	o := newTestOrchestrator(yt, text, fetcher, store)
	resources, err := o.Execute(context.Background(), model.Intent{Topic: "go", Level: "beginner", PreferredFormat: "blog"})

	require.NoError(t, err)
	assert.Empty(t, resources)
	// 首轮5条查询，零结果后补充查询截断到2条
	assert.Equal(t, 7, text.calls)
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	url := "https://example.com/one"
	text := &stubProvider{name: "text", results: []model.SearchResult{articleResult(url)}}
	yt := &stubProvider{name: "youtube"}
	store := newStubStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(yt, text, &stubFetcher{pages: map[string]*Page{}}, store)
	_, err := o.Execute(ctx, model.Intent{Topic: "go", PreferredFormat: "blog"})

	assert.ErrorIs(t, err, context.Canceled)
}
