package scrape

import (
	"fmt"
	"strings"

	"journey_backend/internal/model"
	"journey_backend/internal/util"
	"journey_backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	// 策展产出的资源数上限，超出一律截断
	maxCuratedResources = 12
	// 喂给模型挑选的候选池上限
	maxCandidatePool = 40
	// 摘要低于该长度视为低质量资源
	minSummaryLength = 50
)

const curationSystemPromptTemplate = `You are an expert learning path curator. Your goal is to create a STREAMLINED, high-quality learning journey that avoids overwhelming learners with too much material.

CRITICAL REQUIREMENTS:
1. QUALITY OVER QUANTITY: Select only the BEST resources that directly contribute to the learning goal
2. STREAMLINED PATH: Create a focused path with 8-12 resources maximum (not 20+)
3. Prerequisites and foundational concepts first
4. Progressive difficulty from beginner to advanced
5. Resource type preferences (prioritize preferred format if specified)
6. Each resource should build on the previous one
7. Remove redundant or overlapping content
8. Prioritize resources with clear, actionable content
%s

Return ONLY a JSON object with this structure:
{
    "ordered_resources": ["resource_id1", "resource_id2"],
    "sections": [
        {
            "name": "Section Name",
            "resources": ["resource_id1", "resource_id2"],
            "description": "What learners will cover"
        }
    ]
}`

// Curator 从候选资源池里筛出有序的精简学习路径和命名分组
type Curator struct {
	AI Completion
}

func NewCurator(ai Completion) *Curator {
	return &Curator{AI: ai}
}

// CurationResult 有序资源加分组。Sections 引用的是资源 id。
type CurationResult struct {
	Resources []*model.Resource
	Sections  []model.Section
}

type curationResponse struct {
	OrderedResources []string `json:"ordered_resources"`
	Sections         []struct {
		Name        string   `json:"name"`
		Resources   []string `json:"resources"`
		Description string   `json:"description"`
	} `json:"sections"`
}

// Curate 先做质量过滤和去重，再让模型在候选池里选出 8-12 条。
// 模型失败时退回按原序取前12条，管线永远有产出。
func (c *Curator) Curate(resources []*model.Resource, intent model.Intent) CurationResult {
	resources = FilterLowQuality(resources)
	resources = RemoveDuplicates(resources)

	if len(resources) == 0 {
		return CurationResult{Resources: []*model.Resource{}, Sections: []model.Section{}}
	}

	pool := resources
	pinned := !util.MixedFormat(intent.PreferredFormat)
	if pinned {
		pool = biasTowardFormat(pool, intent.PreferredFormat)
	}
	if len(pool) > maxCandidatePool {
		pool = pool[:maxCandidatePool]
	}

	resp, err := c.callCuration(pool, intent, pinned)
	if err != nil {
		logger.Log.Warn("curation failed, falling back to original order",
			zap.String("topic", intent.Topic), zap.Error(err))
		fallback := pool
		if len(fallback) > maxCuratedResources {
			fallback = fallback[:maxCuratedResources]
		}
		return CurationResult{Resources: fallback, Sections: []model.Section{}}
	}

	poolMap := make(map[string]*model.Resource, len(pool))
	for _, r := range pool {
		poolMap[r.ID] = r
	}

	curated := []*model.Resource{}
	added := map[string]bool{}
	for _, id := range resp.OrderedResources {
		if r, ok := poolMap[id]; ok && !added[id] {
			curated = append(curated, r)
			added[id] = true
		}
	}

	// 模型漏掉的候选按原序补在后面，截断兜底保证上限
	for _, r := range pool {
		if !added[r.ID] {
			curated = append(curated, r)
			added[r.ID] = true
		}
	}

	if !pinned {
		curated = ensureFormatDiversity(curated, maxCuratedResources)
	}
	if len(curated) > maxCuratedResources {
		curated = curated[:maxCuratedResources]
	}

	sections := make([]model.Section, 0, len(resp.Sections))
	for _, s := range resp.Sections {
		sections = append(sections, model.Section{
			Name:        s.Name,
			Description: s.Description,
			Resources:   s.Resources,
		})
	}

	return CurationResult{Resources: curated, Sections: sections}
}

func (c *Curator) callCuration(pool []*model.Resource, intent model.Intent, pinned bool) (*curationResponse, error) {
	var formatNote, diversityNote string
	if pinned {
		formatNote = fmt.Sprintf("User prefers %s format.", intent.PreferredFormat)
		diversityNote = fmt.Sprintf("\nFormat Preference: User prefers %s format. Prioritize this format but include some variety (70%% preferred, 30%% other formats).", intent.PreferredFormat)
	} else {
		formatNote = "User wants a mix of all resource types: videos, articles, documentation, and tutorials. Include diverse formats."
		diversityNote = "\nCRITICAL FORMAT DIVERSITY: User wants a MIX of formats. Ensure you select a BALANCED mix of videos, articles, and documentation. Do NOT select only videos or only articles. Aim for roughly 40% videos, 40% articles/blogs, and 20% documentation when possible."
	}

	var sb strings.Builder
	for _, r := range pool {
		summary := cutRunes(r.Summary, 100)
		fmt.Fprintf(&sb, "- [%s] %s (%s) - %s...\n", r.ID, r.Title, r.Type, summary)
	}

	prompt := fmt.Sprintf(`Topic: %s
Level: %s
Goal: %s
%s

Available Resources (id in brackets):
%s
TASK: Create a STREAMLINED learning journey by selecting ONLY the BEST 8-12 resources that:
1. Directly relate to the topic and goal
2. Provide the most value and clarity
3. Form a logical progression without redundancy
4. Cover all essential concepts efficiently

IMPORTANT: Do NOT include all resources. Be selective and choose quality over quantity. The goal is a focused, effective learning path, not an exhaustive list. Reference resources by their id.`,
		intent.Topic, intent.Level, intent.Goal, formatNote, sb.String())

	var resp curationResponse
	systemPrompt := fmt.Sprintf(curationSystemPromptTemplate, diversityNote)
	if err := c.AI.GenerateJSON(systemPrompt, prompt, 0.5, 0, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FilterLowQuality 丢弃缺 URL、缺标题或摘要过短的资源
func FilterLowQuality(resources []*model.Resource) []*model.Resource {
	out := make([]*model.Resource, 0, len(resources))
	for _, r := range resources {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if len(r.Summary) < minSummaryLength {
			continue
		}
		out = append(out, r)
	}
	return out
}

// RemoveDuplicates URL 和小写标题双重去重，先出现者保留
func RemoveDuplicates(resources []*model.Resource) []*model.Resource {
	seenURLs := map[string]bool{}
	seenTitles := map[string]bool{}
	out := make([]*model.Resource, 0, len(resources))

	for _, r := range resources {
		title := strings.ToLower(strings.TrimSpace(r.Title))
		if seenURLs[r.URL] || seenTitles[title] {
			continue
		}
		seenURLs[r.URL] = true
		seenTitles[title] = true
		out = append(out, r)
	}
	return out
}

// biasTowardFormat 指定了偏好格式时候选池做 70/30 倾斜
func biasTowardFormat(resources []*model.Resource, format string) []*model.Resource {
	preferred := []*model.Resource{}
	other := []*model.Resource{}
	for _, r := range resources {
		if string(r.Type) == format {
			preferred = append(preferred, r)
		} else {
			other = append(other, r)
		}
	}
	if len(preferred) == 0 {
		return resources
	}

	preferredCount := minInt(len(preferred), int(float64(len(resources))*0.7))
	otherCount := len(resources) - preferredCount
	out := append([]*model.Resource{}, preferred[:preferredCount]...)
	if otherCount > len(other) {
		otherCount = len(other)
	}
	return append(out, other[:otherCount]...)
}

// ensureFormatDiversity 混合偏好下重组结果，目标 40% 视频、40% 文章、
// 20% 文档，有货的类型至少保一条，不足部分按原序回填
func ensureFormatDiversity(curated []*model.Resource, maxResources int) []*model.Resource {
	if len(curated) <= maxResources {
		types := map[model.ResourceType]bool{}
		for _, r := range curated {
			types[r.Type] = true
		}
		if len(types) >= 2 {
			return curated
		}
	}

	var videos, blogs, docs, others []*model.Resource
	for _, r := range curated {
		switch r.Type {
		case model.Video:
			videos = append(videos, r)
		case model.Blog:
			blogs = append(blogs, r)
		case model.Doc:
			docs = append(docs, r)
		default:
			others = append(others, r)
		}
	}

	targetVideos := 0
	if len(videos) > 0 {
		targetVideos = maxInt(1, minInt(len(videos), int(float64(maxResources)*0.4)))
	}
	targetBlogs := 0
	if len(blogs) > 0 {
		targetBlogs = maxInt(1, minInt(len(blogs), int(float64(maxResources)*0.4)))
	}
	targetDocs := minInt(len(docs), int(float64(maxResources)*0.2))

	diverse := []*model.Resource{}
	diverse = append(diverse, videos[:targetVideos]...)
	diverse = append(diverse, blogs[:targetBlogs]...)
	diverse = append(diverse, docs[:targetDocs]...)
	if remaining := maxResources - len(diverse); remaining > 0 {
		diverse = append(diverse, others[:minInt(len(others), remaining)]...)
	}

	added := map[string]bool{}
	for _, r := range diverse {
		added[r.ID] = true
	}
	for _, r := range curated {
		if len(diverse) >= maxResources {
			break
		}
		if !added[r.ID] {
			diverse = append(diverse, r)
			added[r.ID] = true
		}
	}

	if len(diverse) > maxResources {
		diverse = diverse[:maxResources]
	}
	return diverse
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
