package models

import "time"

// TopicMark is the derived gradebook cell for one user in one course class.
// It is a cache, not a source of truth: every recalculation rebuilds FinalScore
// from submissions and weight configuration, while Comment survives rebuilds.
type TopicMark struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CourseClassID  uint      `gorm:"not null;index:idx_class_user,unique" json:"course_class_id"`
	UserID         uint      `gorm:"not null;index:idx_class_user,unique" json:"user_id"`
	FinalScore     float64   `gorm:"not null;default:0" json:"final_score"`
	Comment        string    `gorm:"type:text" json:"comment"`
	RecalculatedAt time.Time `json:"recalculated_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
