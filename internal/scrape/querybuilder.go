package scrape

import (
	"fmt"
	"strings"

	"journey_backend/internal/model"
	"journey_backend/pkg/logger"

	"go.uber.org/zap"
)

const queryBuilderSystemPrompt = `You are a search query expert. Generate at least 5 diverse, general search queries
(aim for 5-8 queries) that would help someone learn the given topic.

IMPORTANT: Do NOT include material type keywords like "video", "blog", "tutorial", "documentation" in queries.
Just use general, natural search queries about the topic itself.

Consider different learning angles:
- Fundamentals and basics
- Practical examples and projects
- Official resources and references
- Best practices and patterns
- Common use cases
- Advanced concepts

Return ONLY a JSON array of query strings, nothing else.
Example: ["python basics", "python examples", "python best practices", "python web development"]`

const refineQueriesSystemPrompt = `You are a search query expert. Generate 3-5 new search queries
that would complement existing resources. Consider different angles, sources, or sub-topics.

Return ONLY a JSON array of query strings.`

// QueryBuilder 把学习意图翻译为搜索查询
type QueryBuilder struct {
	AI Completion
}

func NewQueryBuilder(ai Completion) *QueryBuilder {
	return &QueryBuilder{AI: ai}
}

// BuildQueries 生成至少5条查询。AI 返回不足5条时用确定性模板补齐，
// AI 整体失败时直接退回模板，管线不因此中断。
func (b *QueryBuilder) BuildQueries(intent model.Intent) []string {
	prompt := fmt.Sprintf(`Topic: %s
Level: %s
Goal: %s

Generate general search queries (do NOT include material type keywords like "video", "blog", "tutorial"):

Generate search queries:`, intent.Topic, intent.Level, intent.Goal)

	var queries []string
	err := b.AI.GenerateJSON(queryBuilderSystemPrompt, prompt, 0.7, 0, &queries)
	if err != nil {
		logger.Log.Warn("query generation failed, using fallback queries",
			zap.String("topic", intent.Topic), zap.Error(err))
		return fallbackQueries(intent)
	}

	queries = dedupQueries(queries)
	if len(queries) < 5 {
		for _, fb := range fallbackQueries(intent) {
			if !containsQuery(queries, fb) {
				queries = append(queries, fb)
				if len(queries) >= 5 {
					break
				}
			}
		}
	}
	return queries
}

// RefineQueries 零结果重试时生成补充查询
func (b *QueryBuilder) RefineQueries(intent model.Intent, existing []*model.Resource) []string {
	titles := make([]string, 0, 5)
	for _, r := range existing {
		titles = append(titles, r.Title)
		if len(titles) >= 5 {
			break
		}
	}

	prompt := fmt.Sprintf(`Topic: %s
Level: %s
Goal: %s

Existing resources found:
%s

Generate complementary search queries:`, intent.Topic, intent.Level, intent.Goal, strings.Join(titles, "\n"))

	var queries []string
	err := b.AI.GenerateJSON(refineQueriesSystemPrompt, prompt, 0.8, 0, &queries)
	if err != nil || len(queries) == 0 {
		return []string{
			fmt.Sprintf("%s %s examples", intent.Topic, intent.Level),
			fmt.Sprintf("%s %s tutorial", intent.Topic, intent.Goal),
			fmt.Sprintf("%s best practices", intent.Topic),
		}
	}
	if len(queries) > 5 {
		queries = queries[:5]
	}
	return queries
}

func fallbackQueries(intent model.Intent) []string {
	return []string{
		fmt.Sprintf("%s %s tutorial", intent.Topic, intent.Level),
		fmt.Sprintf("%s %s guide", intent.Topic, intent.Level),
		fmt.Sprintf("%s documentation", intent.Topic),
		fmt.Sprintf("learn %s %s", intent.Topic, intent.Level),
		fmt.Sprintf("%s %s", intent.Topic, intent.Goal),
	}
}

func dedupQueries(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

func containsQuery(queries []string, query string) bool {
	for _, q := range queries {
		if strings.EqualFold(q, query) {
			return true
		}
	}
	return false
}
