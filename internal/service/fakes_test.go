package service

import (
	"time"

	"github.com/nqkhanh/edutest/internal/model"
	"github.com/nqkhanh/edutest/internal/repository"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the behavior the services rely on:
// gorm.ErrRecordNotFound on misses, gorm.ErrDuplicatedKey on unique index
// collisions, and the status-conditional finalize.

type fakeTestRepo struct {
	tests  map[uint]*model.Test
	nextID uint
}

func newFakeTestRepo() *fakeTestRepo {
	return &fakeTestRepo{tests: make(map[uint]*model.Test)}
}

func (r *fakeTestRepo) Create(test *model.Test) error {
	r.nextID++
	test.ID = r.nextID
	for i := range test.Questions {
		test.Questions[i].ID = uint(i + 1)
		test.Questions[i].TestID = test.ID
	}
	r.tests[test.ID] = test
	return nil
}

func (r *fakeTestRepo) FindByID(id uint) (*model.Test, error) {
	test, ok := r.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return test, nil
}

func (r *fakeTestRepo) FindByIDWithQuestions(id uint) (*model.Test, error) {
	return r.FindByID(id)
}

func (r *fakeTestRepo) FindAllByCreator(creatorID uint) ([]model.Test, error) {
	var tests []model.Test
	for _, t := range r.tests {
		if t.CreatedByID == creatorID {
			tests = append(tests, *t)
		}
	}
	return tests, nil
}

func (r *fakeTestRepo) FindPublished(now time.Time) ([]model.Test, error) {
	var tests []model.Test
	for _, t := range r.tests {
		if t.IsPublished && t.WithinSchedule(now) {
			tests = append(tests, *t)
		}
	}
	return tests, nil
}

func (r *fakeTestRepo) Update(test *model.Test) error {
	if _, ok := r.tests[test.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.tests[test.ID] = test
	return nil
}

func (r *fakeTestRepo) ReplaceQuestions(test *model.Test, questions []model.Question) error {
	for i := range questions {
		questions[i].ID = uint(1000 + i)
		questions[i].TestID = test.ID
	}
	test.Questions = questions
	test.RecalculateTotalPoints()
	r.tests[test.ID] = test
	return nil
}

func (r *fakeTestRepo) Delete(id uint) error {
	delete(r.tests, id)
	return nil
}

type fakeResultRepo struct {
	results      map[uint]*model.Result
	nextID       uint
	nextAnswerID uint
	testRepo     *fakeTestRepo
	failCreate   error
}

func newFakeResultRepo(testRepo *fakeTestRepo) *fakeResultRepo {
	return &fakeResultRepo{results: make(map[uint]*model.Result), testRepo: testRepo}
}

func (r *fakeResultRepo) Create(result *model.Result) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, existing := range r.results {
		if existing.StudentID == result.StudentID && existing.TestID == result.TestID &&
			existing.AttemptNumber == result.AttemptNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	result.ID = r.nextID
	r.results[result.ID] = result
	return nil
}

func (r *fakeResultRepo) FindByID(id uint) (*model.Result, error) {
	result, ok := r.results[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return result, nil
}

func (r *fakeResultRepo) FindByIDWithDetails(id uint) (*model.Result, error) {
	result, ok := r.results[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if r.testRepo != nil {
		if test, err := r.testRepo.FindByID(result.TestID); err == nil {
			result.Test = *test
		}
	}
	return result, nil
}

func (r *fakeResultRepo) FindInProgress(studentID, testID uint) (*model.Result, error) {
	for _, result := range r.results {
		if result.StudentID == studentID && result.TestID == testID && result.Status == model.StatusInProgress {
			return result, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeResultRepo) CountByStatus(studentID, testID uint, status string) (int64, error) {
	var count int64
	for _, result := range r.results {
		if result.StudentID == studentID && result.TestID == testID && result.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeResultRepo) MaxAttemptNumber(studentID, testID uint) (int, error) {
	max := 0
	for _, result := range r.results {
		if result.StudentID == studentID && result.TestID == testID && result.AttemptNumber > max {
			max = result.AttemptNumber
		}
	}
	return max, nil
}

func (r *fakeResultRepo) UpsertAnswer(resultID, questionID uint, value string) error {
	result, ok := r.results[resultID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range result.Answers {
		if result.Answers[i].QuestionID == questionID {
			result.Answers[i].Value = value
			return nil
		}
	}
	r.nextAnswerID++
	result.Answers = append(result.Answers, model.Answer{
		ID:         r.nextAnswerID,
		ResultID:   resultID,
		QuestionID: questionID,
		Value:      value,
	})
	return nil
}

func (r *fakeResultRepo) FinalizeSubmission(resultID uint, upd repository.SubmissionUpdate) error {
	result, ok := r.results[resultID]
	if !ok || result.Status != model.StatusInProgress {
		return gorm.ErrRecordNotFound
	}
	for i := range upd.Answers {
		r.nextAnswerID++
		upd.Answers[i].ID = r.nextAnswerID
		upd.Answers[i].ResultID = resultID
	}
	result.Answers = upd.Answers
	result.Score = upd.Score
	result.Percentage = upd.Percentage
	result.Status = upd.Status
	submittedAt := upd.SubmittedAt
	result.SubmittedAt = &submittedAt
	result.TimeSpent = upd.TimeSpent
	result.Graded = upd.Graded
	result.GradedAt = upd.GradedAt
	return nil
}

func (r *fakeResultRepo) ApplyManualGrade(resultID uint, fields map[string]interface{}) error {
	result, ok := r.results[resultID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["score"]; ok {
		result.Score = v.(int)
	}
	if v, ok := fields["percentage"]; ok {
		result.Percentage = v.(int)
	}
	if v, ok := fields["status"]; ok {
		result.Status = v.(string)
	}
	if v, ok := fields["review_notes"]; ok {
		result.ReviewNotes = v.(string)
	}
	if v, ok := fields["flagged_for_review"]; ok {
		result.FlaggedForReview = v.(bool)
	}
	if v, ok := fields["graded"]; ok {
		result.Graded = v.(bool)
	}
	if v, ok := fields["graded_by_id"]; ok {
		id := v.(uint)
		result.GradedByID = &id
	}
	if v, ok := fields["graded_at"]; ok {
		at := v.(time.Time)
		result.GradedAt = &at
	}
	return nil
}

func (r *fakeResultRepo) FindSubmittedByStudent(studentID uint) ([]model.Result, error) {
	var results []model.Result
	for _, result := range r.results {
		if result.StudentID == studentID && isSubmittedStatus(result.Status) {
			results = append(results, *result)
		}
	}
	return results, nil
}

func (r *fakeResultRepo) FindAll(status string, page, limit int) ([]model.Result, int64, error) {
	var results []model.Result
	for _, result := range r.results {
		if status == "" || result.Status == status {
			results = append(results, *result)
		}
	}
	return results, int64(len(results)), nil
}

func (r *fakeResultRepo) FindByTest(testID uint, page, limit int) ([]model.Result, int64, error) {
	var results []model.Result
	for _, result := range r.results {
		if result.TestID == testID {
			results = append(results, *result)
		}
	}
	return results, int64(len(results)), nil
}

func (r *fakeResultRepo) FindByStudent(studentID uint, page, limit int) ([]model.Result, int64, error) {
	var results []model.Result
	for _, result := range r.results {
		if result.StudentID == studentID {
			results = append(results, *result)
		}
	}
	return results, int64(len(results)), nil
}

func (r *fakeResultRepo) FindSubmittedByTest(testID uint) ([]model.Result, error) {
	var results []model.Result
	for _, result := range r.results {
		if result.TestID == testID && isSubmittedStatus(result.Status) {
			results = append(results, *result)
		}
	}
	return results, nil
}

func (r *fakeResultRepo) FindSubmittedByTestIDs(testIDs []uint) ([]model.Result, error) {
	wanted := make(map[uint]bool, len(testIDs))
	for _, id := range testIDs {
		wanted[id] = true
	}
	var results []model.Result
	for _, result := range r.results {
		if wanted[result.TestID] && isSubmittedStatus(result.Status) {
			results = append(results, *result)
		}
	}
	return results, nil
}

func (r *fakeResultRepo) FindSubmittedByTestWithAnswers(testID uint) ([]model.Result, error) {
	return r.FindSubmittedByTest(testID)
}

func (r *fakeResultRepo) Delete(id uint) error {
	if _, ok := r.results[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.results, id)
	return nil
}

func isSubmittedStatus(status string) bool {
	for _, s := range model.SubmittedStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
