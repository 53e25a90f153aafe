package model

// swagger:model User
type User struct {
	BaseModel
	Email            string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash     string `gorm:"size:255;not null" json:"-"`
	Name             string `gorm:"size:100" json:"name"`
	FreeJourneysUsed int    `gorm:"default:0" json:"freeJourneysUsed"`
	IsPremium        bool   `gorm:"default:false" json:"isPremium"`
	IsAdmin          bool   `gorm:"default:false" json:"isAdmin"`
}

func (User) TableName() string {
	return "users"
}
