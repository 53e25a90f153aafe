package service

import (
	"errors"

	"journey_backend/internal/model"
	"journey_backend/internal/repository"
	"journey_backend/internal/util"

	"gorm.io/gorm"
)

// ProgressSummary 旅程维度的进度汇总
type ProgressSummary struct {
	JourneyID        uint                    `json:"journeyId"`
	TotalResources   int                     `json:"totalResources"`
	CompletedCount   int                     `json:"completedCount"`
	InProgressCount  int                     `json:"inProgressCount"`
	PercentComplete  float64                 `json:"percentComplete"`
	TimeSpentMinutes int                     `json:"timeSpentMinutes"`
	LastResourceID   string                  `json:"lastResourceId,omitempty"`
	Records          []model.JourneyProgress `json:"records"`
}

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	JourneyRepo  *repository.JourneyRepository
}

func NewProgressService(progressRepo *repository.ProgressRepository, journeyRepo *repository.JourneyRepository) *ProgressService {
	return &ProgressService{ProgressRepo: progressRepo, JourneyRepo: journeyRepo}
}

// checkAccess 进度只属于旅程所有者
func (s *ProgressService) checkAccess(journeyID, userID uint) error {
	journey, err := s.JourneyRepo.FindByID(journeyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrJourneyNotFound
		}
		return err
	}
	if journey.UserID != userID {
		return util.ErrPermissionDenied
	}
	return nil
}

func (s *ProgressService) MarkCompleted(journeyID, userID uint, resourceID string) (*model.JourneyProgress, error) {
	if err := s.checkAccess(journeyID, userID); err != nil {
		return nil, err
	}
	return s.ProgressRepo.MarkCompleted(journeyID, userID, resourceID)
}

func (s *ProgressService) MarkInProgress(journeyID, userID uint, resourceID string) (*model.JourneyProgress, error) {
	if err := s.checkAccess(journeyID, userID); err != nil {
		return nil, err
	}
	return s.ProgressRepo.MarkInProgress(journeyID, userID, resourceID)
}

func (s *ProgressService) MarkIncomplete(journeyID, userID uint, resourceID string) (*model.JourneyProgress, error) {
	if err := s.checkAccess(journeyID, userID); err != nil {
		return nil, err
	}
	return s.ProgressRepo.MarkIncomplete(journeyID, userID, resourceID)
}

func (s *ProgressService) AddTimeSpent(journeyID, userID uint, resourceID string, minutes int) (*model.JourneyProgress, error) {
	if err := s.checkAccess(journeyID, userID); err != nil {
		return nil, err
	}
	if minutes < 0 {
		minutes = 0
	}
	return s.ProgressRepo.AddTimeSpent(journeyID, userID, resourceID, minutes)
}

// GetSummary 汇总旅程进度，完成率分母是旅程关联的资源总数
func (s *ProgressService) GetSummary(journeyID, userID uint) (*ProgressSummary, error) {
	if err := s.checkAccess(journeyID, userID); err != nil {
		return nil, err
	}

	links, err := s.JourneyRepo.GetResources(journeyID)
	if err != nil {
		return nil, err
	}
	records, err := s.ProgressRepo.GetAll(journeyID, userID)
	if err != nil {
		return nil, err
	}

	summary := &ProgressSummary{
		JourneyID:      journeyID,
		TotalResources: len(links),
		Records:        records,
	}
	for _, rec := range records {
		switch rec.Completed {
		case model.ProgressCompleted:
			summary.CompletedCount++
		case model.ProgressInProgress:
			summary.InProgressCount++
		}
		summary.TimeSpentMinutes += rec.TimeSpentMinutes
	}
	if summary.TotalResources > 0 {
		summary.PercentComplete = float64(summary.CompletedCount) / float64(summary.TotalResources) * 100
	}

	if last, err := s.ProgressRepo.GetLastAccessed(journeyID, userID); err == nil {
		summary.LastResourceID = last.ResourceID
	}
	return summary, nil
}
