package model

type JourneyStatus string

const (
	JourneyPending  JourneyStatus = "pending"
	JourneyScraping JourneyStatus = "scraping"
	JourneyCurating JourneyStatus = "curating"
	JourneyReady    JourneyStatus = "ready"
	JourneyFailed   JourneyStatus = "failed"
)

// IsTerminal ready/failed 为终态，其余状态重启后需要续跑
func (s JourneyStatus) IsTerminal() bool {
	return s == JourneyReady || s == JourneyFailed
}

// Journey represents a user's personalized learning journey
// swagger:model Journey
type Journey struct {
	BaseModel
	UserID          uint          `gorm:"index;not null" json:"userId"`
	Topic           string        `gorm:"size:500;not null" json:"topic"`
	Level           string        `gorm:"size:50;not null" json:"level"`
	Goal            string        `gorm:"type:text;not null" json:"goal"`
	PreferredFormat string        `gorm:"size:20" json:"preferredFormat"`
	Status          JourneyStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
}

func (Journey) TableName() string {
	return "journeys"
}

// JourneyResource 旅程与资源的有序关联，整表替换，不做局部更新
type JourneyResource struct {
	BaseModel
	JourneyID  uint   `gorm:"index;not null" json:"journeyId"`
	ResourceID string `gorm:"size:36;not null" json:"resourceId"`
	OrderIndex int    `gorm:"not null;default:0" json:"orderIndex"`
}

func (JourneyResource) TableName() string {
	return "journey_resources"
}

// Section 策展产出的命名分组，按旅程持久化为独立文档
type Section struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Resources   []string `json:"resources"`
}

// JourneySections 旅程级元数据文档（redis，journey:sections:<id>）
type JourneySections struct {
	JourneyID uint      `json:"journey_id"`
	Sections  []Section `json:"sections"`
	UpdatedAt int64     `json:"updated_at"`
}
