// Package model 包含了应用的数据模型定义。
package model

import "time"

// Profile 是生成教练建议所需的用户档案，以外部用户 ID 为主键。
type Profile struct {
	ID        string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	Name      string    `gorm:"type:varchar(128)" json:"name"`
	Age       *int      `json:"age"`
	WeightKg  *float64  `json:"weightKg"`
	HeightCm  *float64  `json:"heightCm"`
	MainGoal  string    `gorm:"type:varchar(255)" json:"mainGoal"`
	Lang      string    `gorm:"type:varchar(16)" json:"lang"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Profile) TableName() string {
	return "coach_profiles"
}

// MergeDefaults 用默认档案补齐未设置的字段，返回新的档案。
func (p Profile) MergeDefaults(def Profile) Profile {
	out := p
	if out.Name == "" {
		out.Name = def.Name
	}
	if out.Age == nil {
		out.Age = def.Age
	}
	if out.WeightKg == nil {
		out.WeightKg = def.WeightKg
	}
	if out.HeightCm == nil {
		out.HeightCm = def.HeightCm
	}
	if out.MainGoal == "" {
		out.MainGoal = def.MainGoal
	}
	if out.Lang == "" {
		out.Lang = def.Lang
	}
	return out
}
