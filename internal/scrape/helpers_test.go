package scrape

import (
	"context"
	"encoding/json"
	"errors"

	"journey_backend/internal/model"

	"gorm.io/gorm"
)

type stubCompletion struct {
	payload string
	err     error
	calls   int
}

func (s *stubCompletion) GenerateText(systemPrompt, prompt string, temperature float64, maxTokens int) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.payload, nil
}

func (s *stubCompletion) GenerateJSON(systemPrompt, prompt string, temperature float64, maxTokens int, out interface{}) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.payload), out)
}

type stubProvider struct {
	name    string
	results []model.SearchResult
	err     error
	calls   int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.results, nil
}

type stubFetcher struct {
	pages map[string]*Page
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	f.calls++
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, errors.New("fetch failed")
}

type stubStore struct {
	byURL map[string]*model.Resource
	saved []*model.Resource
	raw   map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{
		byURL: map[string]*model.Resource{},
		raw:   map[string]string{},
	}
}

func (s *stubStore) FindByURL(url string) (*model.Resource, error) {
	if r, ok := s.byURL[url]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) Save(r *model.Resource) (*model.Resource, error) {
	if r.ID == "" {
		r.ID = model.GenerateUUID()
	}
	s.byURL[r.URL] = r
	s.saved = append(s.saved, r)
	return r, nil
}

func (s *stubStore) SaveRawHTML(ctx context.Context, resourceID, html string) {
	s.raw[resourceID] = html
}
