package repository

import (
	"testing"

	"journey_backend/internal/model"
	"journey_backend/pkg/database"

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

func TestGetOrCreateByURLReusesExisting(t *testing.T) {
	repo := NewResourceRepository(newTestDB(t))

	first, err := repo.GetOrCreateByURL(&model.Resource{URL: "https://example.com/a", Title: "First"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := repo.GetOrCreateByURL(&model.Resource{URL: "https://example.com/a", Title: "Second"})
	require.NoError(t, err)

	// 同URL复用已有行，后写者不覆盖先写者
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "First", second.Title)

	var count int64
	repo.DB.Model(&model.Resource{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReplaceResourcesIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	journeys := NewJourneyRepository(db)

	journey := &model.Journey{UserID: 1, Topic: "go", Level: "beginner", Goal: "learn"}
	require.NoError(t, journeys.Create(journey))

	require.NoError(t, journeys.ReplaceResources(journey.ID, []string{"r1", "r2", "r3"}))
	require.NoError(t, journeys.ReplaceResources(journey.ID, []string{"r4", "r5"}))

	links, err := journeys.GetResources(journey.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "r4", links[0].ResourceID)
	assert.Equal(t, "r5", links[1].ResourceID)
	assert.Equal(t, 0, links[0].OrderIndex)
	assert.Equal(t, 1, links[1].OrderIndex)
}

func TestFindNonTerminal(t *testing.T) {
	db := newTestDB(t)
	journeys := NewJourneyRepository(db)

	for _, status := range []model.JourneyStatus{
		model.JourneyPending, model.JourneyScraping, model.JourneyCurating,
		model.JourneyReady, model.JourneyFailed,
	} {
		require.NoError(t, journeys.Create(&model.Journey{
			UserID: 1, Topic: "go", Level: "beginner", Goal: "learn", Status: status,
		}))
	}

	incomplete, err := journeys.FindNonTerminal()
	require.NoError(t, err)
	assert.Len(t, incomplete, 3)
	for _, j := range incomplete {
		assert.False(t, j.Status.IsTerminal())
	}
}

func TestProgressTierIsSticky(t *testing.T) {
	repo := NewProgressRepository(newTestDB(t))

	progress, err := repo.MarkCompleted(1, 1, "res-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, progress.Completed)
	require.NotNil(t, progress.CompletedAt)
	completedAt := *progress.CompletedAt

	// 已完成的资源不会被 in_progress 降档
	progress, err = repo.MarkInProgress(1, 1, "res-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, progress.Completed)

	// 重复完成不重置完成时间
	progress, err = repo.MarkCompleted(1, 1, "res-1")
	require.NoError(t, err)
	require.NotNil(t, progress.CompletedAt)
	assert.Equal(t, completedAt.Unix(), progress.CompletedAt.Unix())

	// 显式取消是唯一的降档路径
	progress, err = repo.MarkIncomplete(1, 1, "res-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressNotStarted, progress.Completed)
	assert.Nil(t, progress.CompletedAt)
}

func TestAddTimeSpentAccumulates(t *testing.T) {
	repo := NewProgressRepository(newTestDB(t))

	_, err := repo.AddTimeSpent(1, 1, "res-1", 10)
	require.NoError(t, err)

	progress, err := repo.AddTimeSpent(1, 1, "res-1", 15)
	require.NoError(t, err)
	assert.Equal(t, 25, progress.TimeSpentMinutes)
}

func TestIncrementJourneysUsed(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)

	user := &model.User{Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(user))

	require.NoError(t, users.IncrementJourneysUsed(user.ID))
	require.NoError(t, users.IncrementJourneysUsed(user.ID))

	reloaded, err := users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.FreeJourneysUsed)
}
