package scrape

import (
	"errors"
	"testing"

	"journey_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueriesFallbackOnAIFailure(t *testing.T) {
	b := NewQueryBuilder(&stubCompletion{err: errors.New("ai down")})

	queries := b.BuildQueries(model.Intent{Topic: "go concurrency", Level: "beginner", Goal: "learn channels"})

	assert.Len(t, queries, 5)
	assert.Contains(t, queries, "go concurrency beginner tutorial")
	assert.Contains(t, queries, "go concurrency documentation")
}

func TestBuildQueriesPadsShortAIResponse(t *testing.T) {
	b := NewQueryBuilder(&stubCompletion{payload: `["go basics", "go examples"]`})

	queries := b.BuildQueries(model.Intent{Topic: "go", Level: "beginner", Goal: "learn go"})

	assert.GreaterOrEqual(t, len(queries), 5)
	assert.Equal(t, "go basics", queries[0])
	assert.Equal(t, "go examples", queries[1])
}

func TestBuildQueriesDedup(t *testing.T) {
	b := NewQueryBuilder(&stubCompletion{payload: `["go basics", "Go Basics", " ", "go patterns", "go testing", "go modules", "go generics"]`})

	queries := b.BuildQueries(model.Intent{Topic: "go", Level: "beginner", Goal: "learn go"})

	count := 0
	for _, q := range queries {
		if q == "go basics" || q == "Go Basics" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.NotContains(t, queries, " ")
}

func TestRefineQueriesFallback(t *testing.T) {
	b := NewQueryBuilder(&stubCompletion{err: errors.New("ai down")})

	queries := b.RefineQueries(model.Intent{Topic: "rust", Level: "advanced", Goal: "write a parser"}, nil)

	assert.Len(t, queries, 3)
	assert.Contains(t, queries, "rust advanced examples")
	assert.Contains(t, queries, "rust best practices")
}

func TestRefineQueriesCapsAtFive(t *testing.T) {
	b := NewQueryBuilder(&stubCompletion{payload: `["a1","a2","a3","a4","a5","a6","a7"]`})

	queries := b.RefineQueries(model.Intent{Topic: "rust"}, nil)

	assert.Len(t, queries, 5)
}
