package dto

type AnalyticsOverviewDTO struct {
	TotalTests        int `json:"total_tests"`
	TotalSubmissions  int `json:"total_submissions"`
	AverageScore      int `json:"average_score"` // average percentage
	RecentSubmissions int `json:"recent_submissions"`
}

type TestPerformanceDTO struct {
	TestID       uint   `json:"test_id"`
	Title        string `json:"title"`
	Submissions  int    `json:"submissions"`
	AverageScore int    `json:"average_score"`
}

type DashboardDTO struct {
	Overview          AnalyticsOverviewDTO `json:"overview"`
	GradeDistribution map[string]int       `json:"grade_distribution"`
	TestPerformance   []TestPerformanceDTO `json:"test_performance"`
}

type QuestionAnalysisDTO struct {
	QuestionID       uint   `json:"question_id"`
	Prompt           string `json:"prompt"`
	Type             string `json:"type"`
	TotalAnswers     int    `json:"total_answers"`
	CorrectAnswers   int    `json:"correct_answers"`
	Accuracy         int    `json:"accuracy"`           // percent
	AverageTimeSpent int    `json:"average_time_spent"` // seconds
}

type TestInfoDTO struct {
	Title            string `json:"title"`
	TotalQuestions   int    `json:"total_questions"`
	TotalSubmissions int    `json:"total_submissions"`
	AverageScore     int    `json:"average_score"`
}

type TestAnalyticsDTO struct {
	TestInfo         TestInfoDTO           `json:"test_info"`
	QuestionAnalysis []QuestionAnalysisDTO `json:"question_analysis"`
}
