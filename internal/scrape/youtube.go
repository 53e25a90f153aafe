package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"journey_backend/internal/model"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var ytInitialDataRe = regexp.MustCompile(`(?s)var ytInitialData = (\{.*?\});</script>`)

// YouTubeProvider 抓取 YouTube 搜索结果页，从内嵌的 ytInitialData
// JSON 里解出视频列表。无官方 API 配额消耗。
type YouTubeProvider struct {
	client *http.Client
}

func NewYouTubeProvider() *YouTubeProvider {
	return &YouTubeProvider{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *YouTubeProvider) Name() string {
	return "youtube"
}

// ytInitialData 只声明需要的字段，其余忽略
type ytSearchData struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *struct {
									VideoID string `json:"videoId"`
									Title   struct {
										Runs []struct {
											Text string `json:"text"`
										} `json:"runs"`
									} `json:"title"`
								} `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

func (p *YouTubeProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	searchURL := "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
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
		return nil, fmt.Errorf("youtube search HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	match := ytInitialDataRe.FindSubmatch(body)
	if match == nil {
		return nil, fmt.Errorf("youtube: ytInitialData not found")
	}

	var data ytSearchData
	if err := json.Unmarshal(match[1], &data); err != nil {
		return nil, fmt.Errorf("youtube: parse ytInitialData: %w", err)
	}

	results := []model.SearchResult{}
	sections := data.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		for _, item := range section.ItemSectionRenderer.Contents {
			video := item.VideoRenderer
			if video == nil || video.VideoID == "" || len(video.Title.Runs) == 0 {
				continue
			}
			results = append(results, model.SearchResult{
				Title: video.Title.Runs[0].Text,
				URL:   "https://www.youtube.com/watch?v=" + video.VideoID,
				Type:  model.Video,
			})
			if len(results) >= maxResults {
				return results, nil
			}
		}
	}
	return results, nil
}
