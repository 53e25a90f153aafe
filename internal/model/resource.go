package model

import "time"

type ResourceType string

const (
	Video ResourceType = "video"
	Blog  ResourceType = "blog"
	Doc   ResourceType = "doc"
)

// Resource represents a single learning artifact, shared across journeys by URL identity
// swagger:model Resource
type Resource struct {
	UUIDBase
	URL           string       `gorm:"size:768;uniqueIndex;not null" json:"url"`
	Title         string       `gorm:"size:500;not null" json:"title"`
	Summary       string       `gorm:"type:text" json:"summary"`
	Type          ResourceType `gorm:"size:20;not null;default:blog" json:"type"`
	Difficulty    string       `gorm:"size:20;default:intermediate" json:"difficulty"`
	Tags          []string     `gorm:"serializer:json" json:"tags"`
	EstimatedTime int          `gorm:"default:0" json:"estimatedTime"` // 阅读时长（分钟），视频为0
	Content       string       `gorm:"type:longtext" json:"content,omitempty"`
	Source        string       `gorm:"size:500" json:"source"` // 产生该资源的查询或主题
	ScrapedAt     time.Time    `json:"scrapedAt"`
}

func (Resource) TableName() string {
	return "resources"
}
