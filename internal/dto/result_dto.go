package dto

import "time"

type SaveAnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

type SubmittedAnswerDTO struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
	TimeSpent  int    `json:"time_spent"` // seconds, client-reported
}

type SubmitTestRequest struct {
	Answers []SubmittedAnswerDTO `json:"answers" binding:"required,dive"`
	// AutoSubmit marks the attempt auto-submitted, set by the client when its
	// local timer elapsed.
	AutoSubmit bool `json:"auto_submit"`
}

// ManualGradeRequest overwrites only the supplied fields. Status may only be
// moved to "completed" once essays are scored.
type ManualGradeRequest struct {
	Score            *int    `json:"score" binding:"omitempty,min=0"`
	ReviewNotes      *string `json:"review_notes"`
	FlaggedForReview *bool   `json:"flagged_for_review"`
	Status           *string `json:"status" binding:"omitempty,oneof=completed"`
}

type AnswerResponseDTO struct {
	ID           uint   `json:"id"`
	QuestionID   uint   `json:"question_id"`
	Value        string `json:"value"`
	IsCorrect    bool   `json:"is_correct"`
	PointsEarned int    `json:"points_earned"`
	TimeSpent    int    `json:"time_spent"`
}

type ResultResponseDTO struct {
	ID               uint                `json:"id"`
	StudentID        uint                `json:"student_id"`
	Student          *UserResponseDTO    `json:"student,omitempty"`
	TestID           uint                `json:"test_id"`
	TestTitle        string              `json:"test_title,omitempty"`
	Answers          []AnswerResponseDTO `json:"answers,omitempty"`
	Score            int                 `json:"score"`
	TotalPoints      int                 `json:"total_points"`
	Percentage       int                 `json:"percentage"`
	Status           string              `json:"status"`
	StartedAt        time.Time           `json:"started_at"`
	SubmittedAt      *time.Time          `json:"submitted_at,omitempty"`
	TimeSpent        int                 `json:"time_spent"`
	AttemptNumber    int                 `json:"attempt_number"`
	FlaggedForReview bool                `json:"flagged_for_review"`
	ReviewNotes      string              `json:"review_notes,omitempty"`
	Graded           bool                `json:"graded"`
	GradedAt         *time.Time          `json:"graded_at,omitempty"`
}

type ResultSummaryDTO struct {
	ID            uint       `json:"id"`
	TestID        uint       `json:"test_id"`
	TestTitle     string     `json:"test_title,omitempty"`
	Score         int        `json:"score"`
	TotalPoints   int        `json:"total_points"`
	Percentage    int        `json:"percentage"`
	Status        string     `json:"status"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	TimeSpent     int        `json:"time_spent"`
	AttemptNumber int        `json:"attempt_number"`
	Graded        bool       `json:"graded"`
}

// EssayReviewSuggestionDTO is an AI-drafted aid for manual essay grading.
// Advisory only; nothing here is ever persisted as a grade.
type EssayReviewSuggestionDTO struct {
	QuestionID      uint   `json:"question_id"`
	Prompt          string `json:"prompt"`
	Answer          string `json:"answer"`
	SuggestedPoints int    `json:"suggested_points"`
	MaxPoints       int    `json:"max_points"`
	Feedback        string `json:"feedback"`
}
