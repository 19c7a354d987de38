package service

import (
	"fmt"
	"math"
	"time"

	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/repository"
)

// AnalyticsService recomputes aggregates from the result rows on every call;
// nothing is cached or maintained incrementally.
type AnalyticsService interface {
	Dashboard(adminID uint) (*dto.DashboardDTO, error)
	TestAnalytics(adminID, testID uint) (*dto.TestAnalyticsDTO, error)
}

type analyticsService struct {
	testRepo   repository.TestRepository
	resultRepo repository.ResultRepository
}

func NewAnalyticsService(testRepo repository.TestRepository, resultRepo repository.ResultRepository) AnalyticsService {
	return &analyticsService{testRepo: testRepo, resultRepo: resultRepo}
}

func (s *analyticsService) Dashboard(adminID uint) (*dto.DashboardDTO, error) {
	tests, err := s.testRepo.FindAllByCreator(adminID)
	if err != nil {
		return nil, err
	}

	testIDs := make([]uint, 0, len(tests))
	titles := make(map[uint]string, len(tests))
	for i := range tests {
		testIDs = append(testIDs, tests[i].ID)
		titles[tests[i].ID] = tests[i].Title
	}

	results, err := s.resultRepo.FindSubmittedByTestIDs(testIDs)
	if err != nil {
		return nil, err
	}

	// Every bucket is present even when empty so charts render a full axis.
	distribution := map[string]int{}
	for _, p := range []int{95, 85, 75, 65, 0} {
		distribution[LetterGrade(p)] = 0
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	percentageSum := 0
	recent := 0
	perTestCount := map[uint]int{}
	perTestSum := map[uint]int{}

	for i := range results {
		r := &results[i]
		percentageSum += r.Percentage
		distribution[LetterGrade(r.Percentage)]++
		if r.SubmittedAt != nil && r.SubmittedAt.After(weekAgo) {
			recent++
		}
		perTestCount[r.TestID]++
		perTestSum[r.TestID] += r.Percentage
	}

	overview := dto.AnalyticsOverviewDTO{
		TotalTests:        len(tests),
		TotalSubmissions:  len(results),
		RecentSubmissions: recent,
	}
	if len(results) > 0 {
		overview.AverageScore = roundDiv(percentageSum, len(results))
	}

	performance := make([]dto.TestPerformanceDTO, 0, len(tests))
	for _, id := range testIDs {
		perf := dto.TestPerformanceDTO{
			TestID:      id,
			Title:       titles[id],
			Submissions: perTestCount[id],
		}
		if perf.Submissions > 0 {
			perf.AverageScore = roundDiv(perTestSum[id], perf.Submissions)
		}
		performance = append(performance, perf)
	}

	return &dto.DashboardDTO{
		Overview:          overview,
		GradeDistribution: distribution,
		TestPerformance:   performance,
	}, nil
}

func (s *analyticsService) TestAnalytics(adminID, testID uint) (*dto.TestAnalyticsDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	if test.CreatedByID != adminID {
		return nil, fmt.Errorf("%w: not authorized to access this test's analytics", apperr.ErrForbidden)
	}

	results, err := s.resultRepo.FindSubmittedByTestWithAnswers(testID)
	if err != nil {
		return nil, err
	}

	type tally struct {
		total   int
		correct int
		seconds int
	}
	tallies := map[uint]*tally{}
	percentageSum := 0
	for i := range results {
		percentageSum += results[i].Percentage
		for _, a := range results[i].Answers {
			t := tallies[a.QuestionID]
			if t == nil {
				t = &tally{}
				tallies[a.QuestionID] = t
			}
			t.total++
			if a.IsCorrect {
				t.correct++
			}
			t.seconds += a.TimeSpent
		}
	}

	info := dto.TestInfoDTO{
		Title:            test.Title,
		TotalQuestions:   len(test.Questions),
		TotalSubmissions: len(results),
	}
	if len(results) > 0 {
		info.AverageScore = roundDiv(percentageSum, len(results))
	}

	analysis := make([]dto.QuestionAnalysisDTO, 0, len(test.Questions))
	for _, q := range test.Questions {
		qa := dto.QuestionAnalysisDTO{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Type:       q.Type,
		}
		if t := tallies[q.ID]; t != nil && t.total > 0 {
			qa.TotalAnswers = t.total
			qa.CorrectAnswers = t.correct
			qa.Accuracy = roundDiv(t.correct*100, t.total)
			qa.AverageTimeSpent = roundDiv(t.seconds, t.total)
		}
		analysis = append(analysis, qa)
	}

	return &dto.TestAnalyticsDTO{TestInfo: info, QuestionAnalysis: analysis}, nil
}

func roundDiv(sum, n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
