package scrape

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"journey_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResource(id string, typ model.ResourceType) *model.Resource {
	r := &model.Resource{
		URL:     "https://example.com/" + id,
		Title:   "Resource " + id,
		Summary: strings.Repeat("A useful summary sentence. ", 3),
		Type:    typ,
	}
	r.ID = id
	return r
}

func TestFilterLowQuality(t *testing.T) {
	resources := []*model.Resource{
		makeResource("ok", model.Blog),
		{URL: "", Title: "no url", Summary: strings.Repeat("x", 60)},
		{URL: "https://example.com/nt", Title: "", Summary: strings.Repeat("x", 60)},
		{URL: "https://example.com/th", Title: "thin", Summary: "too short"},
	}

	out := FilterLowQuality(resources)

	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].ID)
}

func TestRemoveDuplicatesFirstWins(t *testing.T) {
	a := makeResource("a", model.Blog)
	b := makeResource("b", model.Blog)
	b.URL = a.URL
	c := makeResource("c", model.Blog)
	c.Title = "resource a"
	a.Title = "Resource A"

	out := RemoveDuplicates([]*model.Resource{a, b, c})

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestCurateFallbackOnAIFailure(t *testing.T) {
	c := NewCurator(&stubCompletion{err: errors.New("ai down")})

	resources := make([]*model.Resource, 0, 20)
	for i := 0; i < 20; i++ {
		resources = append(resources, makeResource(fmt.Sprintf("r%d", i), model.Blog))
	}

	result := c.Curate(resources, model.Intent{Topic: "go", PreferredFormat: "any"})

	require.Len(t, result.Resources, maxCuratedResources)
	assert.Equal(t, "r0", result.Resources[0].ID)
	assert.Empty(t, result.Sections)
}

func TestCurateRespectsModelOrderAndAppendsOmitted(t *testing.T) {
	ai := &stubCompletion{payload: `{
		"ordered_resources": ["r2", "r0", "unknown-id", "r2"],
		"sections": [{"name": "Basics", "resources": ["r2", "r0"], "description": "start here"}]
	}`}
	c := NewCurator(ai)

	resources := []*model.Resource{
		makeResource("r0", model.Video),
		makeResource("r1", model.Blog),
		makeResource("r2", model.Blog),
	}

	result := c.Curate(resources, model.Intent{Topic: "go", PreferredFormat: "any"})

	require.Len(t, result.Resources, 3)
	assert.Equal(t, "r2", result.Resources[0].ID)
	assert.Equal(t, "r0", result.Resources[1].ID)
	assert.Equal(t, "r1", result.Resources[2].ID)

	require.Len(t, result.Sections, 1)
	assert.Equal(t, "Basics", result.Sections[0].Name)
}

func TestCurateCapsAtTwelve(t *testing.T) {
	ids := make([]string, 0, 30)
	resources := make([]*model.Resource, 0, 30)
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("r%d", i)
		ids = append(ids, fmt.Sprintf("%q", id))
		resources = append(resources, makeResource(id, model.Blog))
	}
	ai := &stubCompletion{payload: fmt.Sprintf(`{"ordered_resources": [%s], "sections": []}`, strings.Join(ids, ","))}

	result := NewCurator(ai).Curate(resources, model.Intent{Topic: "go", PreferredFormat: "blog"})

	assert.Len(t, result.Resources, maxCuratedResources)
}

func TestCurateMixedFormatDiversity(t *testing.T) {
	resources := []*model.Resource{}
	ids := []string{}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("v%d", i)
		resources = append(resources, makeResource(id, model.Video))
		ids = append(ids, fmt.Sprintf("%q", id))
	}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("b%d", i)
		resources = append(resources, makeResource(id, model.Blog))
		ids = append(ids, fmt.Sprintf("%q", id))
	}
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("d%d", i)
		resources = append(resources, makeResource(id, model.Doc))
		ids = append(ids, fmt.Sprintf("%q", id))
	}
	ai := &stubCompletion{payload: fmt.Sprintf(`{"ordered_resources": [%s], "sections": []}`, strings.Join(ids, ","))}

	result := NewCurator(ai).Curate(resources, model.Intent{Topic: "go", PreferredFormat: "mixed"})

	require.Len(t, result.Resources, maxCuratedResources)
	counts := map[model.ResourceType]int{}
	for _, r := range result.Resources {
		counts[r.Type]++
	}
	assert.GreaterOrEqual(t, counts[model.Video], 1)
	assert.GreaterOrEqual(t, counts[model.Blog], 1)
	assert.GreaterOrEqual(t, counts[model.Doc], 1)
}

func TestCurateEmptyInput(t *testing.T) {
	result := NewCurator(&stubCompletion{}).Curate(nil, model.Intent{Topic: "go"})

	assert.Empty(t, result.Resources)
	assert.Empty(t, result.Sections)
}
