package model

import "time"

// Recommendation 是一次推荐生成的问答记录，附带生成时的档案快照。
// 记录只追加，不更新也不删除。
type Recommendation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(128);index:idx_reco_user_created,priority:1;not null" json:"user_id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt time.Time `gorm:"index:idx_reco_user_created,priority:2" json:"createdAt"`
	Age       *int      `json:"age"`
	WeightKg  *float64  `json:"weightKg"`
	HeightCm  *float64  `json:"heightCm"`
	MainGoal  string    `gorm:"type:varchar(255)" json:"mainGoal"`
	Lang      string    `gorm:"type:varchar(16)" json:"lang"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}
