package scrape

import (
	"fmt"
	"strings"

	"journey_backend/internal/model"
	"journey_backend/pkg/logger"

	"go.uber.org/zap"
)

// 一次批量增强最多处理的资源数，再多会撑爆模型上下文
const enrichBatchSize = 15

const enrichSystemPrompt = `You are a resource enrichment assistant. For each resource, generate:
1. A concise summary (100-150 words)
2. 5-8 relevant tags (lowercase, no duplicates)
3. Difficulty level (beginner/intermediate/advanced)

Return ONLY valid JSON with this structure:
{
    "resources": [
        {
            "id": 0,
            "summary": "detailed summary text",
            "tags": ["tag1", "tag2"],
            "difficulty": "beginner"
        }
    ]
}`

var (
	beginnerKeywords = []string{"beginner", "introduction", "getting started", "basics", "first steps"}
	advancedKeywords = []string{"advanced", "expert", "deep dive", "master", "complex"}
)

// Enricher 批量补全资源的摘要、标签和难度
type Enricher struct {
	AI Completion
}

func NewEnricher(ai Completion) *Enricher {
	return &Enricher{AI: ai}
}

type enrichedEntry struct {
	ID         int      `json:"id"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	Difficulty string   `json:"difficulty"`
}

// EnrichBatch 前 enrichBatchSize 条走 AI，按批内序号回填；
// 其余条目和 AI 失败时的全部条目走确定性降级：标题当摘要、
// 空标签、难度按关键词判定。原地修改入参。
func (e *Enricher) EnrichBatch(resources []*model.Resource, topicLevel string) {
	if len(resources) == 0 {
		return
	}

	batch := resources
	if len(batch) > enrichBatchSize {
		batch = batch[:enrichBatchSize]
	}

	var sb strings.Builder
	for idx, r := range batch {
		summary := cutRunes(r.Summary, 200)
		if summary == "" {
			summary = r.Title
		}
		content := cutRunes(r.Content, 300)
		fmt.Fprintf(&sb, "Resource %d:\nTitle: %s\nURL: %s\nSummary: %s\nContent: %s\n\n",
			idx, r.Title, r.URL, summary, content)
	}

	prompt := fmt.Sprintf(`Enrich these learning resources:

%s
Default difficulty: %s

Generate summaries, tags, and difficulty for each resource:`, sb.String(), topicLevel)

	var result struct {
		Resources []enrichedEntry `json:"resources"`
	}
	err := e.AI.GenerateJSON(enrichSystemPrompt, prompt, 0.5, 0, &result)
	if err != nil {
		logger.Log.Warn("batch enrichment failed, using fallback enrichment", zap.Error(err))
		for _, r := range resources {
			applyFallbackEnrichment(r, topicLevel)
		}
		return
	}

	enrichedMap := make(map[int]enrichedEntry, len(result.Resources))
	for _, entry := range result.Resources {
		enrichedMap[entry.ID] = entry
	}

	for idx, r := range batch {
		entry, ok := enrichedMap[idx]
		if !ok {
			applyFallbackEnrichment(r, topicLevel)
			continue
		}
		if entry.Summary != "" {
			r.Summary = entry.Summary
		} else if r.Summary == "" {
			r.Summary = r.Title
		}
		r.Tags = entry.Tags
		if entry.Difficulty != "" {
			r.Difficulty = entry.Difficulty
		} else {
			r.Difficulty = topicLevel
		}
	}

	for _, r := range resources[len(batch):] {
		applyFallbackEnrichment(r, topicLevel)
	}
}

func applyFallbackEnrichment(r *model.Resource, topicLevel string) {
	if r.Summary == "" {
		r.Summary = r.Title
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Difficulty == "" || r.Difficulty == "intermediate" {
		r.Difficulty = DetermineDifficulty(r, topicLevel)
	}
}

// DetermineDifficulty 标题和摘要里的关键词判定，advanced 优先于 beginner
func DetermineDifficulty(r *model.Resource, topicLevel string) string {
	text := strings.ToLower(r.Title + " " + r.Summary)

	for _, kw := range advancedKeywords {
		if strings.Contains(text, kw) {
			return "advanced"
		}
	}
	for _, kw := range beginnerKeywords {
		if strings.Contains(text, kw) {
			return "beginner"
		}
	}
	return topicLevel
}
