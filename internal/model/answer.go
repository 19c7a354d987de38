package model

import (
	"time"

	"gorm.io/gorm"
)

// Answer is one question's response within a result. IsCorrect and
// PointsEarned are meaningless until the attempt has been graded.
type Answer struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	ResultID     uint           `json:"result_id" gorm:"not null;index;uniqueIndex:idx_answers_question"`
	QuestionID   uint           `json:"question_id" gorm:"not null;index;uniqueIndex:idx_answers_question"`
	Value        string         `json:"value" gorm:"type:text"`
	IsCorrect    bool           `json:"is_correct" gorm:"default:false"`
	PointsEarned int            `json:"points_earned" gorm:"default:0"`
	TimeSpent    int            `json:"time_spent" gorm:"default:0"` // seconds, client-reported
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
