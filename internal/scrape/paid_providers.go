package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"journey_backend/internal/config"
	"journey_backend/internal/model"
	"journey_backend/pkg/monitoring"
)

// 付费搜索通道。配置了 key 才会被路由器启用，作为免费通道的兜底。

type SerpAPIProvider struct {
	client *http.Client
	apiKey string
}

func NewSerpAPIProvider(cfg config.SearchConfig) *SerpAPIProvider {
	return &SerpAPIProvider{
		client: &http.Client{Timeout: 15 * time.Second},
		apiKey: cfg.SerpAPIKey,
	}
}

func (p *SerpAPIProvider) Name() string { return "serpapi" }

func (p *SerpAPIProvider) Enabled() bool { return p.apiKey != "" }

func (p *SerpAPIProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", p.apiKey)
	params.Set("engine", "google")
	params.Set("num", strconv.Itoa(minInt(maxResults, 100)))

	var payload struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := getJSON(ctx, p.client, "https://serpapi.com/search?"+params.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	results := []model.SearchResult{}
	for _, item := range payload.OrganicResults {
		results = append(results, model.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Type:    model.Blog,
		})
		if len(results) >= maxResults {
			break
		}
	}
	monitoring.ProviderResultCounter.WithLabelValues(p.Name()).Add(float64(len(results)))
	return results, nil
}

type GoogleCSEProvider struct {
	client *http.Client
	apiKey string
	cseID  string
}

func NewGoogleCSEProvider(cfg config.SearchConfig) *GoogleCSEProvider {
	return &GoogleCSEProvider{
		client: &http.Client{Timeout: 15 * time.Second},
		apiKey: cfg.GoogleCSEAPIKey,
		cseID:  cfg.GoogleCSEID,
	}
}

func (p *GoogleCSEProvider) Name() string { return "google_cse" }

func (p *GoogleCSEProvider) Enabled() bool { return p.apiKey != "" && p.cseID != "" }

func (p *GoogleCSEProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.cseID)
	params.Set("q", query)
	// CSE 单次请求上限10条
	params.Set("num", strconv.Itoa(minInt(maxResults, 10)))

	var payload struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := getJSON(ctx, p.client, "https://www.googleapis.com/customsearch/v1?"+params.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	results := []model.SearchResult{}
	for _, item := range payload.Items {
		results = append(results, model.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Type:    model.Blog,
		})
		if len(results) >= maxResults {
			break
		}
	}
	monitoring.ProviderResultCounter.WithLabelValues(p.Name()).Add(float64(len(results)))
	return results, nil
}

type BingAPIProvider struct {
	client *http.Client
	apiKey string
}

func NewBingAPIProvider(cfg config.SearchConfig) *BingAPIProvider {
	return &BingAPIProvider{
		client: &http.Client{Timeout: 10 * time.Second},
		apiKey: cfg.BingAPIKey,
	}
}

func (p *BingAPIProvider) Name() string { return "bing_api" }

func (p *BingAPIProvider) Enabled() bool { return p.apiKey != "" }

func (p *BingAPIProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))
	params.Set("textDecorations", "false")
	params.Set("textFormat", "Raw")

	headers := map[string]string{"Ocp-Apim-Subscription-Key": p.apiKey}

	var payload struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := getJSON(ctx, p.client, "https://api.bing.microsoft.com/v7.0/search?"+params.Encode(), headers, &payload); err != nil {
		return nil, err
	}

	results := []model.SearchResult{}
	for _, item := range payload.WebPages.Value {
		results = append(results, model.SearchResult{
			Title:   item.Name,
			URL:     item.URL,
			Snippet: item.Snippet,
			Type:    model.Blog,
		})
	}
	monitoring.ProviderResultCounter.WithLabelValues(p.Name()).Add(float64(len(results)))
	return results, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search API HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
