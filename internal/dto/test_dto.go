package dto

import "time"

// QuestionCreateDTO is used within TestCreateDTO and TestUpdateDTO.
type QuestionCreateDTO struct {
	Prompt        string   `json:"prompt" binding:"required"`
	Type          string   `json:"type" binding:"required,oneof=multiple-choice true-false short-answer essay"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        int      `json:"points" binding:"required,min=1"`
	Explanation   string   `json:"explanation"`
}

type TestCreateDTO struct {
	Title              string              `json:"title" binding:"required,max=100"`
	Description        string              `json:"description" binding:"required,max=500"`
	Subject            string              `json:"subject" binding:"required"`
	Duration           int                 `json:"duration" binding:"required,min=1"`
	Questions          []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
	Instructions       string              `json:"instructions" binding:"max=1000"`
	ScheduledAt        *time.Time          `json:"scheduled_at"`
	ExpiresAt          *time.Time          `json:"expires_at"`
	AllowedAttempts    int                 `json:"allowed_attempts" binding:"omitempty,min=1"`
	RandomizeQuestions bool                `json:"randomize_questions"`
	ShowResults        *bool               `json:"show_results"`
	Tags               []string            `json:"tags"`
}

// TestUpdateDTO replaces the question list when Questions is non-nil; total
// points are recomputed either way.
type TestUpdateDTO struct {
	Title              *string             `json:"title" binding:"omitempty,max=100"`
	Description        *string             `json:"description" binding:"omitempty,max=500"`
	Subject            *string             `json:"subject"`
	Duration           *int                `json:"duration" binding:"omitempty,min=1"`
	Questions          []QuestionCreateDTO `json:"questions" binding:"omitempty,min=1,dive"`
	Instructions       *string             `json:"instructions" binding:"omitempty,max=1000"`
	ScheduledAt        *time.Time          `json:"scheduled_at"`
	ExpiresAt          *time.Time          `json:"expires_at"`
	AllowedAttempts    *int                `json:"allowed_attempts" binding:"omitempty,min=1"`
	RandomizeQuestions *bool               `json:"randomize_questions"`
	ShowResults        *bool               `json:"show_results"`
	Tags               []string            `json:"tags"`
}

type QuestionResponseDTO struct {
	ID            uint     `json:"id"`
	TestID        uint     `json:"test_id"`
	Prompt        string   `json:"prompt"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Points        int      `json:"points"`
	Explanation   string   `json:"explanation,omitempty"`
	OrderInTest   int      `json:"order_in_test"`
}

type TestResponseDTO struct {
	ID                 uint                  `json:"id"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Subject            string                `json:"subject"`
	Duration           int                   `json:"duration"`
	TotalPoints        int                   `json:"total_points"`
	Questions          []QuestionResponseDTO `json:"questions,omitempty"`
	Instructions       string                `json:"instructions,omitempty"`
	CreatedByID        uint                  `json:"created_by_id"`
	IsPublished        bool                  `json:"is_published"`
	ScheduledAt        *time.Time            `json:"scheduled_at,omitempty"`
	ExpiresAt          *time.Time            `json:"expires_at,omitempty"`
	AllowedAttempts    int                   `json:"allowed_attempts"`
	RandomizeQuestions bool                  `json:"randomize_questions"`
	ShowResults        bool                  `json:"show_results"`
	Tags               []string              `json:"tags,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

type TestSummaryDTO struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Subject       string     `json:"subject"`
	Duration      int        `json:"duration"`
	TotalPoints   int        `json:"total_points"`
	QuestionCount int        `json:"question_count"`
	IsPublished   bool       `json:"is_published"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
