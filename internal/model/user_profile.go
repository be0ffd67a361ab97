package model

import "gorm.io/datatypes"

// swagger:model UserProfile
type UserProfile struct {
	DocumentBase
	Name       string                      `gorm:"size:100;not null" json:"name"`
	Email      string                      `gorm:"size:191;uniqueIndex;not null" json:"email"`
	TargetRole string                      `gorm:"size:100" json:"targetRole"`
	Experience string                      `gorm:"size:100" json:"experience"`
	Skills     datatypes.JSONSlice[string] `json:"skills"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
