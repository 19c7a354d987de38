package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Test struct {
	ID                 uint                        `gorm:"primarykey" json:"id"`
	Title              string                      `json:"title" gorm:"not null"`
	Description        string                      `json:"description" gorm:"type:text"`
	Subject            string                      `json:"subject" gorm:"not null;index"`
	Duration           int                         `json:"duration" gorm:"not null"` // minutes
	TotalPoints        int                         `json:"total_points" gorm:"default:0"`
	Questions          []Question                  `json:"questions,omitempty" gorm:"foreignKey:TestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Instructions       string                      `json:"instructions,omitempty" gorm:"type:text"`
	CreatedByID        uint                        `json:"created_by_id" gorm:"not null;index"`
	CreatedBy          User                        `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	IsPublished        bool                        `json:"is_published" gorm:"default:false;index"`
	ScheduledAt        *time.Time                  `json:"scheduled_at,omitempty" gorm:"index"`
	ExpiresAt          *time.Time                  `json:"expires_at,omitempty"`
	AllowedAttempts    int                         `json:"allowed_attempts" gorm:"default:1"`
	RandomizeQuestions bool                        `json:"randomize_questions" gorm:"default:false"`
	ShowResults        bool                        `json:"show_results" gorm:"default:true"`
	Tags               datatypes.JSONSlice[string] `json:"tags,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
	DeletedAt          gorm.DeletedAt              `gorm:"index" json:"-"`
}

// RecalculateTotalPoints keeps TotalPoints equal to the sum of question
// points. Must run on every path that mutates the question list.
func (t *Test) RecalculateTotalPoints() {
	total := 0
	for _, q := range t.Questions {
		total += q.Points
	}
	t.TotalPoints = total
}

// HasEssayQuestions reports whether any question requires manual grading.
func (t *Test) HasEssayQuestions() bool {
	for _, q := range t.Questions {
		if q.Type == QuestionEssay {
			return true
		}
	}
	return false
}

// WithinSchedule reports whether now falls inside the [ScheduledAt, ExpiresAt]
// window. Absent bounds are unbounded.
func (t *Test) WithinSchedule(now time.Time) bool {
	if t.ScheduledAt != nil && t.ScheduledAt.After(now) {
		return false
	}
	if t.ExpiresAt != nil && t.ExpiresAt.Before(now) {
		return false
	}
	return true
}
