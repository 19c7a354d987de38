package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionMultipleChoice = "multiple-choice"
	QuestionTrueFalse      = "true-false"
	QuestionShortAnswer    = "short-answer"
	QuestionEssay          = "essay"
)

type Question struct {
	ID            uint                        `gorm:"primarykey" json:"id"`
	TestID        uint                        `json:"test_id" gorm:"not null;index"`
	Prompt        string                      `json:"prompt" gorm:"type:text;not null"`
	Type          string                      `json:"type" gorm:"not null"` // multiple-choice, true-false, short-answer, essay
	Options       datatypes.JSONSlice[string] `json:"options,omitempty"`
	CorrectAnswer string                      `json:"correct_answer,omitempty"` // empty for essay
	Points        int                         `json:"points" gorm:"not null"`
	Explanation   string                      `json:"explanation,omitempty" gorm:"type:text"`
	OrderInTest   int                         `json:"order_in_test" gorm:"not null"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}
