package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"journey_backend/internal/config"
	"journey_backend/internal/model"
	"journey_backend/internal/repository"
	"journey_backend/internal/scrape"
	"journey_backend/internal/util"
	"journey_backend/pkg/logger"
	"journey_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 免费用户可创建的旅程数
const freeJourneyLimit = 3

// JourneyDetail 旅程详情，资源按策展顺序排列
type JourneyDetail struct {
	Journey       *model.Journey   `json:"journey"`
	Resources     []model.Resource `json:"resources"`
	ResourceCount int              `json:"resourceCount"`
	Sections      []model.Section  `json:"sections"`
}

// JourneyService 旅程状态机。每个旅程由一个后台 worker 驱动：
// pending -> scraping -> curating -> ready，任何阶段出错进 failed。
// worker 幂等，重启后对非终态旅程直接重跑。
type JourneyService struct {
	JourneyRepo  *repository.JourneyRepository
	ResourceRepo *repository.ResourceRepository
	UserRepo     *repository.UserRepository
	SectionRepo  *repository.SectionRepository

	Orchestrator *scrape.Orchestrator
	Enricher     *scrape.Enricher
	Curator      *scrape.Curator
	Push         *PushService

	// 同一旅程同一时刻只允许一个 worker
	inFlight sync.Map
}

func NewJourneyService(
	cfg *config.Config,
	ai scrape.Completion,
	journeyRepo *repository.JourneyRepository,
	resourceRepo *repository.ResourceRepository,
	userRepo *repository.UserRepository,
	sectionRepo *repository.SectionRepository,
	rawHTML *repository.RawHTMLStore,
	push *PushService,
) *JourneyService {
	store := &resourceStoreAdapter{resources: resourceRepo, rawHTML: rawHTML}
	fetcher := scrape.NewPageFetcher(cfg.Scrape)

	return &JourneyService{
		JourneyRepo:  journeyRepo,
		ResourceRepo: resourceRepo,
		UserRepo:     userRepo,
		SectionRepo:  sectionRepo,
		Orchestrator: scrape.NewOrchestrator(cfg, ai, fetcher, store),
		Enricher:     scrape.NewEnricher(ai),
		Curator:      scrape.NewCurator(ai),
		Push:         push,
	}
}

// CreateJourney 校验意图、扣配额、落 pending 记录并拉起后台 worker。
// 接口立即返回，前端轮询状态。
func (s *JourneyService) CreateJourney(userID uint, intent model.Intent) (*model.Journey, []string, error) {
	validated, defaulted, err := util.ValidateIntent(intent)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, nil, util.ErrUserNotFound
	}
	if !user.IsPremium && user.FreeJourneysUsed >= freeJourneyLimit {
		return nil, nil, util.ErrJourneyQuotaUsed
	}

	journey := &model.Journey{
		UserID:          userID,
		Topic:           validated.Topic,
		Level:           validated.Level,
		Goal:            validated.Goal,
		PreferredFormat: validated.PreferredFormat,
		Status:          model.JourneyPending,
	}
	if err := s.JourneyRepo.Create(journey); err != nil {
		return nil, nil, err
	}

	if err := s.UserRepo.IncrementJourneysUsed(userID); err != nil {
		logger.Log.Warn("failed to increment journey quota",
			zap.Uint("user_id", userID), zap.Error(err))
	}

	s.StartWorker(journey.ID)
	return journey, defaulted, nil
}

// StartWorker 拉起后台处理协程。已有 worker 在跑时静默跳过。
func (s *JourneyService) StartWorker(journeyID uint) {
	if _, loaded := s.inFlight.LoadOrStore(journeyID, struct{}{}); loaded {
		logger.Log.Info("journey worker already running, skipping",
			zap.Uint("journey_id", journeyID))
		return
	}

	go func() {
		defer s.inFlight.Delete(journeyID)
		s.processJourney(context.Background(), journeyID)
	}()
}

// ResumeIncomplete 启动时对所有非终态旅程重新拉起 worker
func (s *JourneyService) ResumeIncomplete() {
	journeys, err := s.JourneyRepo.FindNonTerminal()
	if err != nil {
		logger.Log.Error("failed to list incomplete journeys", zap.Error(err))
		return
	}
	if len(journeys) == 0 {
		return
	}

	logger.Log.Info("resuming incomplete journeys", zap.Int("count", len(journeys)))
	for _, j := range journeys {
		s.StartWorker(j.ID)
	}
}

func (s *JourneyService) processJourney(ctx context.Context, journeyID uint) {
	journey, err := s.JourneyRepo.FindByID(journeyID)
	if err != nil {
		logger.Log.Error("journey not found for processing",
			zap.Uint("journey_id", journeyID), zap.Error(err))
		return
	}

	fail := func(stage string, err error) {
		logger.Log.Error("journey processing failed",
			zap.Uint("journey_id", journeyID),
			zap.String("stage", stage), zap.Error(err))
		if uerr := s.JourneyRepo.UpdateStatus(journeyID, model.JourneyFailed); uerr != nil {
			logger.Log.Error("failed to mark journey failed",
				zap.Uint("journey_id", journeyID), zap.Error(uerr))
		}
		monitoring.JourneyCounter.WithLabelValues(string(model.JourneyFailed)).Inc()
	}

	intent := model.Intent{
		Topic:           journey.Topic,
		Level:           journey.Level,
		Goal:            journey.Goal,
		PreferredFormat: journey.PreferredFormat,
	}

	if err := s.JourneyRepo.UpdateStatus(journeyID, model.JourneyScraping); err != nil {
		fail("scraping", err)
		return
	}

	resources, err := s.Orchestrator.Execute(ctx, intent)
	if err != nil && len(resources) == 0 {
		fail("scraping", err)
		return
	}

	s.Enricher.EnrichBatch(resources, journey.Level)

	if err := s.JourneyRepo.UpdateStatus(journeyID, model.JourneyCurating); err != nil {
		fail("curating", err)
		return
	}

	// 策展结果为空也照常收尾：清掉旧关联、置 ready。
	// 空列表是合法终态，前端按空旅程展示。
	result := s.Curator.Curate(resources, intent)

	// 增强后的字段回写资源行
	for _, r := range result.Resources {
		err := s.ResourceRepo.Update(r.ID, map[string]interface{}{
			"summary":    r.Summary,
			"tags":       r.Tags,
			"difficulty": r.Difficulty,
		})
		if err != nil {
			logger.Log.Warn("resource enrichment writeback failed",
				zap.String("resource_id", r.ID), zap.Error(err))
		}
	}

	resourceIDs := make([]string, 0, len(result.Resources))
	for _, r := range result.Resources {
		resourceIDs = append(resourceIDs, r.ID)
	}
	if err := s.JourneyRepo.ReplaceResources(journeyID, resourceIDs); err != nil {
		fail("linking", err)
		return
	}

	sections := fixSections(result.Sections, result.Resources)
	if len(sections) > 0 {
		if err := s.SectionRepo.Save(ctx, journeyID, sections); err != nil {
			logger.Log.Warn("failed to save journey sections",
				zap.Uint("journey_id", journeyID), zap.Error(err))
		}
	}

	if err := s.JourneyRepo.UpdateStatus(journeyID, model.JourneyReady); err != nil {
		fail("finalizing", err)
		return
	}
	monitoring.JourneyCounter.WithLabelValues(string(model.JourneyReady)).Inc()

	logger.Log.Info("journey ready",
		zap.Uint("journey_id", journeyID),
		zap.Int("resources", len(result.Resources)))

	if s.Push != nil {
		s.Push.NotifyJourneyReady(journey.UserID, journeyID, journey.Topic)
	}
}

// fixSections 模型返回的分组引用可能是资源 id 也可能是标题，
// 先按 id 解析，再按小写标题兜底，解析不出的引用丢弃，
// 空分组整组丢弃。
func fixSections(sections []model.Section, resources []*model.Resource) []model.Section {
	if len(sections) == 0 || len(resources) == 0 {
		return nil
	}

	idSet := make(map[string]bool, len(resources))
	titleMap := make(map[string]string, len(resources))
	for _, r := range resources {
		idSet[r.ID] = true
		titleMap[strings.ToLower(r.Title)] = r.ID
	}

	fixed := make([]model.Section, 0, len(sections))
	for _, section := range sections {
		resolved := []string{}
		for _, ref := range section.Resources {
			if idSet[ref] {
				resolved = append(resolved, ref)
				continue
			}
			if id, ok := titleMap[strings.ToLower(ref)]; ok {
				resolved = append(resolved, id)
			}
		}
		if len(resolved) > 0 {
			fixed = append(fixed, model.Section{
				Name:        section.Name,
				Description: section.Description,
				Resources:   resolved,
			})
		}
	}
	return fixed
}

// GetJourney 返回旅程详情，资源按策展顺序，分组读独立文档
func (s *JourneyService) GetJourney(ctx context.Context, journeyID, userID uint, isAdmin bool) (*JourneyDetail, error) {
	journey, err := s.JourneyRepo.FindByID(journeyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrJourneyNotFound
		}
		return nil, err
	}
	if journey.UserID != userID && !isAdmin {
		return nil, util.ErrPermissionDenied
	}

	links, err := s.JourneyRepo.GetResources(journeyID)
	if err != nil {
		return nil, err
	}

	ordered := []model.Resource{}
	if len(links) > 0 {
		ids := make([]string, 0, len(links))
		for _, link := range links {
			ids = append(ids, link.ResourceID)
		}
		resources, err := s.ResourceRepo.FindByIDs(ids)
		if err != nil {
			return nil, err
		}

		byID := make(map[string]model.Resource, len(resources))
		for _, r := range resources {
			byID[r.ID] = r
		}
		for _, link := range links {
			if r, ok := byID[link.ResourceID]; ok {
				ordered = append(ordered, r)
			}
		}
	}

	sections, err := s.SectionRepo.Get(ctx, journeyID)
	if err != nil {
		logger.Log.Warn("failed to load journey sections",
			zap.Uint("journey_id", journeyID), zap.Error(err))
		sections = []model.Section{}
	}

	return &JourneyDetail{
		Journey:       journey,
		Resources:     ordered,
		ResourceCount: len(ordered),
		Sections:      sections,
	}, nil
}

func (s *JourneyService) GetUserJourneys(userID uint, limit int) ([]model.Journey, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.JourneyRepo.FindByUser(userID, limit)
}

// RetryJourney 失败的旅程允许手动重跑，非终态旅程拒绝
func (s *JourneyService) RetryJourney(journeyID, userID uint) (*model.Journey, error) {
	journey, err := s.JourneyRepo.FindByID(journeyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrJourneyNotFound
		}
		return nil, err
	}
	if journey.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if !journey.Status.IsTerminal() {
		return nil, util.ErrJourneyInProgress
	}

	if err := s.JourneyRepo.UpdateStatus(journeyID, model.JourneyPending); err != nil {
		return nil, err
	}
	journey.Status = model.JourneyPending
	s.StartWorker(journeyID)
	return journey, nil
}
