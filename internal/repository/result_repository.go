package repository

import (
	"time"

	"github.com/nqkhanh/edutest/internal/model"
	"gorm.io/gorm"
)

// SubmissionUpdate carries the fields written by the one atomic
// status-conditional update that finalizes an attempt.
type SubmissionUpdate struct {
	Answers     []model.Answer
	Score       int
	Percentage  int
	Status      string
	SubmittedAt time.Time
	TimeSpent   int // minutes
	Graded      bool
	GradedAt    *time.Time
}

type ResultRepository interface {
	Create(result *model.Result) error
	FindByID(id uint) (*model.Result, error)
	FindByIDWithDetails(id uint) (*model.Result, error)
	FindInProgress(studentID, testID uint) (*model.Result, error)
	CountByStatus(studentID, testID uint, status string) (int64, error)
	MaxAttemptNumber(studentID, testID uint) (int, error)
	UpsertAnswer(resultID, questionID uint, value string) error
	FinalizeSubmission(resultID uint, upd SubmissionUpdate) error
	ApplyManualGrade(resultID uint, fields map[string]interface{}) error
	FindSubmittedByStudent(studentID uint) ([]model.Result, error)
	FindAll(status string, page, limit int) ([]model.Result, int64, error)
	FindByTest(testID uint, page, limit int) ([]model.Result, int64, error)
	FindByStudent(studentID uint, page, limit int) ([]model.Result, int64, error)
	FindSubmittedByTest(testID uint) ([]model.Result, error)
	FindSubmittedByTestIDs(testIDs []uint) ([]model.Result, error)
	FindSubmittedByTestWithAnswers(testID uint) ([]model.Result, error)
	Delete(id uint) error
}

type resultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// Create surfaces gorm.ErrDuplicatedKey when two concurrent starts collide on
// the (student, test, attempt_number) unique index.
func (r *resultRepository) Create(result *model.Result) error {
	return r.db.Create(result).Error
}

func (r *resultRepository) FindByID(id uint) (*model.Result, error) {
	var result model.Result
	if err := r.db.Preload("Answers").First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepository) FindByIDWithDetails(id uint) (*model.Result, error) {
	var result model.Result
	err := r.db.
		Preload("Student").
		Preload("Test").
		Preload("Test.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_test ASC")
		}).
		Preload("Answers").
		First(&result, id).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepository) FindInProgress(studentID, testID uint) (*model.Result, error) {
	var result model.Result
	err := r.db.Preload("Answers").
		Where("student_id = ? AND test_id = ? AND status = ?", studentID, testID, model.StatusInProgress).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepository) CountByStatus(studentID, testID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Result{}).
		Where("student_id = ? AND test_id = ? AND status = ?", studentID, testID, status).
		Count(&count).Error
	return count, err
}

// MaxAttemptNumber returns the highest attempt number recorded for the pair,
// regardless of status. New attempts are numbered from here so that
// auto-submitted attempts, which do not consume the limit, still never reuse
// a number.
func (r *resultRepository) MaxAttemptNumber(studentID, testID uint) (int, error) {
	var max int
	err := r.db.Model(&model.Result{}).
		Where("student_id = ? AND test_id = ?", studentID, testID).
		Select("COALESCE(MAX(attempt_number), 0)").
		Scan(&max).Error
	return max, err
}

// UpsertAnswer is the auto-save path: last write wins per question, no
// scoring. The (result_id, question_id) unique index backstops concurrent
// saves for the same question.
func (r *resultRepository) UpsertAnswer(resultID, questionID uint, value string) error {
	res := r.db.Model(&model.Answer{}).
		Where("result_id = ? AND question_id = ?", resultID, questionID).
		Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.Create(&model.Answer{
		ResultID:   resultID,
		QuestionID: questionID,
		Value:      value,
	}).Error
}

// FinalizeSubmission flips the attempt out of in-progress and writes the
// graded answer list in one transaction. The status predicate makes the
// check-then-act atomic: a second concurrent submit matches zero rows and
// gets gorm.ErrRecordNotFound.
func (r *resultRepository) FinalizeSubmission(resultID uint, upd SubmissionUpdate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"score":        upd.Score,
			"percentage":   upd.Percentage,
			"status":       upd.Status,
			"submitted_at": upd.SubmittedAt,
			"time_spent":   upd.TimeSpent,
			"graded":       upd.Graded,
		}
		if upd.GradedAt != nil {
			fields["graded_at"] = upd.GradedAt
		}

		res := tx.Model(&model.Result{}).
			Where("id = ? AND status = ?", resultID, model.StatusInProgress).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Unscoped().Where("result_id = ?", resultID).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		for i := range upd.Answers {
			upd.Answers[i].ResultID = resultID
		}
		if len(upd.Answers) > 0 {
			if err := tx.Create(&upd.Answers).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyManualGrade is the targeted-update mutation path. Callers must include
// the recomputed percentage in fields whenever score changes.
func (r *resultRepository) ApplyManualGrade(resultID uint, fields map[string]interface{}) error {
	res := r.db.Model(&model.Result{}).Where("id = ?", resultID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *resultRepository) FindSubmittedByStudent(studentID uint) ([]model.Result, error) {
	var results []model.Result
	err := r.db.Preload("Test").
		Where("student_id = ? AND status IN ?", studentID, model.SubmittedStatuses()).
		Order("submitted_at DESC").
		Find(&results).Error
	return results, err
}

func (r *resultRepository) FindAll(status string, page, limit int) ([]model.Result, int64, error) {
	var results []model.Result
	var total int64

	query := r.db.Model(&model.Result{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Student").Preload("Test").
		Order("submitted_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&results).Error
	return results, total, err
}

func (r *resultRepository) FindByTest(testID uint, page, limit int) ([]model.Result, int64, error) {
	var results []model.Result
	var total int64

	query := r.db.Model(&model.Result{}).Where("test_id = ?", testID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Student").
		Order("submitted_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&results).Error
	return results, total, err
}

func (r *resultRepository) FindByStudent(studentID uint, page, limit int) ([]model.Result, int64, error) {
	var results []model.Result
	var total int64

	query := r.db.Model(&model.Result{}).Where("student_id = ?", studentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Test").
		Order("submitted_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&results).Error
	return results, total, err
}

func (r *resultRepository) FindSubmittedByTest(testID uint) ([]model.Result, error) {
	var results []model.Result
	err := r.db.Preload("Student").
		Where("test_id = ? AND status IN ?", testID, model.SubmittedStatuses()).
		Order("submitted_at DESC").
		Find(&results).Error
	return results, err
}

func (r *resultRepository) FindSubmittedByTestIDs(testIDs []uint) ([]model.Result, error) {
	var results []model.Result
	if len(testIDs) == 0 {
		return results, nil
	}
	err := r.db.Where("test_id IN ? AND status IN ?", testIDs, model.SubmittedStatuses()).
		Find(&results).Error
	return results, err
}

func (r *resultRepository) FindSubmittedByTestWithAnswers(testID uint) ([]model.Result, error) {
	var results []model.Result
	err := r.db.Preload("Answers").
		Where("test_id = ? AND status IN ?", testID, model.SubmittedStatuses()).
		Find(&results).Error
	return results, err
}

// Delete destroys the attempt and its answers. Hard delete: a soft-deleted
// row would keep its slot in the (student, test, attempt_number) index while
// no longer counting toward the next attempt number, blocking the student
// from ever starting again.
func (r *resultRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("result_id = ?", id).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Result{}, id).Error
	})
}
