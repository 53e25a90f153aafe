package model

import "time"

// 完成档位：0 未开始，1 进行中，2 已完成
const (
	ProgressNotStarted = 0
	ProgressInProgress = 1
	ProgressCompleted  = 2
)

// JourneyProgress 按 (用户, 旅程, 资源) 记录完成状态与耗时
type JourneyProgress struct {
	BaseModel
	JourneyID        uint       `gorm:"index:idx_progress_lookup;not null" json:"journeyId"`
	UserID           uint       `gorm:"index:idx_progress_lookup;not null" json:"userId"`
	ResourceID       string     `gorm:"size:36;index:idx_progress_lookup;not null" json:"resourceId"`
	Completed        int        `gorm:"not null;default:0" json:"completed"`
	TimeSpentMinutes int        `gorm:"not null;default:0" json:"timeSpentMinutes"`
	LastAccessedAt   time.Time  `json:"lastAccessedAt"`
	CompletedAt      *time.Time `json:"completedAt"`
}

func (JourneyProgress) TableName() string {
	return "journey_progress"
}
