package model

import (
	"math"
	"time"

	"gorm.io/gorm"
)

const (
	StatusInProgress    = "in-progress"
	StatusSubmitted     = "submitted"
	StatusAutoSubmitted = "auto-submitted"
	StatusCompleted     = "completed"
)

// Result is one student's attempt at one test. The (student, test,
// attempt_number) unique index is the backstop against two concurrent start
// calls creating duplicate attempts.
type Result struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	StudentID        uint           `json:"student_id" gorm:"not null;index;uniqueIndex:idx_results_attempt"`
	Student          User           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	TestID           uint           `json:"test_id" gorm:"not null;index;uniqueIndex:idx_results_attempt"`
	Test             Test           `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Answers          []Answer       `json:"answers,omitempty" gorm:"foreignKey:ResultID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Score            int            `json:"score" gorm:"default:0"`
	TotalPoints      int            `json:"total_points" gorm:"not null"` // snapshot of the test's total at start
	Percentage       int            `json:"percentage" gorm:"default:0"`
	Status           string         `json:"status" gorm:"default:'in-progress';index"` // in-progress, submitted, auto-submitted, completed
	StartedAt        time.Time      `json:"started_at" gorm:"not null"`
	SubmittedAt      *time.Time     `json:"submitted_at,omitempty" gorm:"index"`
	TimeSpent        int            `json:"time_spent" gorm:"default:0"` // minutes
	AttemptNumber    int            `json:"attempt_number" gorm:"not null;uniqueIndex:idx_results_attempt"`
	IPAddress        string         `json:"ip_address,omitempty"`
	UserAgent        string         `json:"user_agent,omitempty"`
	FlaggedForReview bool           `json:"flagged_for_review" gorm:"default:false"`
	ReviewNotes      string         `json:"review_notes,omitempty" gorm:"type:text"`
	Graded           bool           `json:"graded" gorm:"default:false"`
	GradedByID       *uint          `json:"graded_by_id,omitempty"`
	GradedBy         *User          `json:"graded_by,omitempty" gorm:"foreignKey:GradedByID"`
	GradedAt         *time.Time     `json:"graded_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// SubmittedStatuses are the terminal statuses counted by analytics and
// result listings.
func SubmittedStatuses() []string {
	return []string{StatusSubmitted, StatusCompleted, StatusAutoSubmitted}
}

// ComputePercentage is the single percentage formula shared by every mutation
// path that touches score or total points. Zero total points yields zero.
func ComputePercentage(score, totalPoints int) int {
	if totalPoints <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(totalPoints) * 100))
}
