package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"journey_backend/internal/config"
	"journey_backend/internal/model"
	"journey_backend/internal/repository"
	"journey_backend/internal/scrape"
	"journey_backend/internal/util"
	"journey_backend/pkg/database"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

type failingCompletion struct{}

func (failingCompletion) GenerateText(string, string, float64, int) (string, error) {
	return "", errors.New("ai unavailable")
}

func (failingCompletion) GenerateJSON(string, string, float64, int, interface{}) error {
	return errors.New("ai unavailable")
}

type fixedProvider struct {
	name    string
	results []model.SearchResult
}

func (p *fixedProvider) Name() string { return p.name }

func (p *fixedProvider) Search(ctx context.Context, query string, maxResults int) ([]model.SearchResult, error) {
	return p.results, nil
}

type noopFetcher struct{}

func (noopFetcher) Fetch(ctx context.Context, url string) (*scrape.Page, error) {
	return nil, errors.New("fetch disabled in tests")
}

// contentFetcher 所有 URL 都返回一篇成功抓取的正文
type contentFetcher struct{}

func (contentFetcher) Fetch(ctx context.Context, url string) (*scrape.Page, error) {
	return &scrape.Page{
		URL:     url,
		Title:   "Fetched " + url,
		Content: strings.Repeat("Concrete walkthrough of the concepts with worked examples. ", 6),
		HTML:    "<html><body>article</body></html>",
	}, nil
}

func searchResults(urls ...string) []model.SearchResult {
	out := make([]model.SearchResult, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.SearchResult{
			Title:   "Result for " + u,
			URL:     u,
			Snippet: strings.Repeat("A descriptive snippet about the learning material. ", 2),
			Type:    model.Blog,
		})
	}
	return out
}

func videoResults(urls ...string) []model.SearchResult {
	out := make([]model.SearchResult, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.SearchResult{
			Title:   "Video for " + u,
			URL:     u,
			Snippet: strings.Repeat("A descriptive snippet about the learning material. ", 2),
			Type:    model.Video,
		})
	}
	return out
}

func newTestJourneyService(t *testing.T, db *gorm.DB, results []model.SearchResult) *JourneyService {
	t.Helper()
	resourceRepo := repository.NewResourceRepository(db)
	ai := failingCompletion{}
	store := &resourceStoreAdapter{resources: resourceRepo}

	// redis 不可达，分组读写都走 warn 降级路径
	deadRedis := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})

	return &JourneyService{
		JourneyRepo:  repository.NewJourneyRepository(db),
		ResourceRepo: resourceRepo,
		UserRepo:     repository.NewUserRepository(db),
		SectionRepo:  repository.NewSectionRepository(deadRedis),
		Orchestrator: &scrape.Orchestrator{
			Builder: scrape.NewQueryBuilder(ai),
			Router: scrape.NewRouterWithProviders(
				&fixedProvider{name: "youtube"},
				&fixedProvider{name: "text", results: results},
				nil,
			),
			Fetcher: noopFetcher{},
			Store:   store,
		},
		Enricher: scrape.NewEnricher(ai),
		Curator:  scrape.NewCurator(ai),
		Push:     NewPushService(config.PushConfig{}),
	}
}

func createTestUser(t *testing.T, db *gorm.DB, used int, premium bool) *model.User {
	t.Helper()
	user := &model.User{
		Email:            "u@example.com",
		PasswordHash:     "x",
		Name:             "U",
		FreeJourneysUsed: used,
		IsPremium:        premium,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestJourney(t *testing.T, db *gorm.DB, userID uint, status model.JourneyStatus) *model.Journey {
	t.Helper()
	journey := &model.Journey{
		UserID: userID,
		Topic:  "go concurrency",
		Level:  "beginner",
		Goal:   "learn channels",
		Status: status,
	}
	require.NoError(t, db.Create(journey).Error)
	return journey
}

func TestProcessJourneyReachesReady(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, searchResults(
		"https://example.com/channels",
		"https://example.com/goroutines",
	))
	user := createTestUser(t, db, 0, false)
	journey := createTestJourney(t, db, user.ID, model.JourneyPending)

	s.processJourney(context.Background(), journey.ID)

	updated, err := s.JourneyRepo.FindByID(journey.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JourneyReady, updated.Status)

	links, err := s.JourneyRepo.GetResources(journey.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestProcessJourneyZeroResultsEndsReady(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, nil)
	user := createTestUser(t, db, 0, false)
	journey := createTestJourney(t, db, user.ID, model.JourneyPending)

	// 重跑前残留的旧关联也要被清掉
	stale := &model.Resource{URL: "https://example.com/stale", Title: "Stale"}
	require.NoError(t, s.ResourceRepo.Create(stale))
	require.NoError(t, s.JourneyRepo.ReplaceResources(journey.ID, []string{stale.ID}))

	s.processJourney(context.Background(), journey.ID)

	updated, err := s.JourneyRepo.FindByID(journey.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JourneyReady, updated.Status)

	links, err := s.JourneyRepo.GetResources(journey.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestProcessJourneyMixedFormatPipeline(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, nil)
	s.Orchestrator.Router = scrape.NewRouterWithProviders(
		&fixedProvider{name: "youtube", results: videoResults(
			"https://www.youtube.com/watch?v=ch01",
			"https://www.youtube.com/watch?v=ch02",
		)},
		&fixedProvider{name: "text", results: searchResults(
			"https://example.com/channels",
			"https://example.com/select",
			"https://example.com/patterns",
		)},
		nil,
	)
	s.Orchestrator.Fetcher = contentFetcher{}
	user := createTestUser(t, db, 0, false)
	journey := createTestJourney(t, db, user.ID, model.JourneyPending)

	s.processJourney(context.Background(), journey.ID)

	updated, err := s.JourneyRepo.FindByID(journey.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JourneyReady, updated.Status)

	detail, err := s.GetJourney(context.Background(), journey.ID, user.ID, false)
	require.NoError(t, err)
	require.NotEmpty(t, detail.Resources)
	assert.LessOrEqual(t, len(detail.Resources), 12)

	videoCount, blogCount := 0, 0
	for _, r := range detail.Resources {
		switch r.Type {
		case model.Video:
			videoCount++
		case model.Blog:
			blogCount++
		}
	}
	assert.GreaterOrEqual(t, videoCount, 1)
	assert.GreaterOrEqual(t, blogCount, 1)
}

func TestCreateJourneyQuota(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, searchResults("https://example.com/a"))
	user := createTestUser(t, db, 3, false)

	_, _, err := s.CreateJourney(user.ID, model.Intent{Topic: "go"})

	assert.ErrorIs(t, err, util.ErrJourneyQuotaUsed)
}

func TestCreateJourneyPremiumBypassesQuota(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, searchResults("https://example.com/a"))
	user := createTestUser(t, db, 10, true)

	journey, defaulted, err := s.CreateJourney(user.ID, model.Intent{Topic: "go generics"})

	require.NoError(t, err)
	assert.Contains(t, defaulted, "level")
	assert.Contains(t, defaulted, "goal")

	// 后台 worker 会跑完整条管线
	require.Eventually(t, func() bool {
		j, err := s.JourneyRepo.FindByID(journey.ID)
		return err == nil && j.Status.IsTerminal()
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCreateJourneyRejectsPlaceholderTopic(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, nil)
	user := createTestUser(t, db, 0, false)

	_, _, err := s.CreateJourney(user.ID, model.Intent{Topic: "test"})

	assert.ErrorIs(t, err, util.ErrInvalidTopic)
}

func TestStartWorkerSkipsInFlightJourney(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, searchResults("https://example.com/a"))
	user := createTestUser(t, db, 0, false)
	journey := createTestJourney(t, db, user.ID, model.JourneyPending)

	s.inFlight.Store(journey.ID, struct{}{})
	s.StartWorker(journey.ID)

	time.Sleep(100 * time.Millisecond)
	updated, err := s.JourneyRepo.FindByID(journey.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JourneyPending, updated.Status)
}

func TestRetryJourney(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, searchResults("https://example.com/a"))
	user := createTestUser(t, db, 0, false)

	running := createTestJourney(t, db, user.ID, model.JourneyScraping)
	_, err := s.RetryJourney(running.ID, user.ID)
	assert.ErrorIs(t, err, util.ErrJourneyInProgress)

	failed := createTestJourney(t, db, user.ID, model.JourneyFailed)
	_, err = s.RetryJourney(failed.ID, user.ID+1)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	journey, err := s.RetryJourney(failed.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JourneyPending, journey.Status)

	require.Eventually(t, func() bool {
		j, err := s.JourneyRepo.FindByID(failed.ID)
		return err == nil && j.Status.IsTerminal()
	}, 5*time.Second, 20*time.Millisecond)
}

func TestGetJourneyAccessControl(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, nil)
	user := createTestUser(t, db, 0, false)
	journey := createTestJourney(t, db, user.ID, model.JourneyReady)

	_, err := s.GetJourney(context.Background(), journey.ID, user.ID+1, false)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	detail, err := s.GetJourney(context.Background(), journey.ID, user.ID+1, true)
	require.NoError(t, err)
	assert.Equal(t, journey.ID, detail.Journey.ID)

	_, err = s.GetJourney(context.Background(), journey.ID+100, user.ID, false)
	assert.ErrorIs(t, err, util.ErrJourneyNotFound)
}

func TestGetJourneyOrdersResources(t *testing.T) {
	db := newTestDB(t)
	s := newTestJourneyService(t, db, nil)
	user := createTestUser(t, db, 0, false)
	journey := createTestJourney(t, db, user.ID, model.JourneyReady)

	first := &model.Resource{URL: "https://example.com/1", Title: "First"}
	second := &model.Resource{URL: "https://example.com/2", Title: "Second"}
	require.NoError(t, s.ResourceRepo.Create(first))
	require.NoError(t, s.ResourceRepo.Create(second))
	require.NoError(t, s.JourneyRepo.ReplaceResources(journey.ID, []string{second.ID, first.ID}))

	detail, err := s.GetJourney(context.Background(), journey.ID, user.ID, false)
	require.NoError(t, err)
	require.Len(t, detail.Resources, 2)
	assert.Equal(t, "Second", detail.Resources[0].Title)
	assert.Equal(t, "First", detail.Resources[1].Title)
	assert.Equal(t, 2, detail.ResourceCount)
	assert.Empty(t, detail.Sections)
}

func TestFixSections(t *testing.T) {
	r1 := &model.Resource{Title: "Intro to Channels"}
	r1.ID = "id-1"
	r2 := &model.Resource{Title: "Select Statements"}
	r2.ID = "id-2"

	sections := []model.Section{
		{Name: "Basics", Resources: []string{"id-1", "Select Statements", "missing"}},
		{Name: "Empty", Resources: []string{"unknown"}},
	}

	fixed := fixSections(sections, []*model.Resource{r1, r2})

	require.Len(t, fixed, 1)
	assert.Equal(t, "Basics", fixed[0].Name)
	assert.Equal(t, []string{"id-1", "id-2"}, fixed[0].Resources)
}
