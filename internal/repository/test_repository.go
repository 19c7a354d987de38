package repository

import (
	"time"

	"github.com/nqkhanh/edutest/internal/model"
	"gorm.io/gorm"
)

type TestRepository interface {
	Create(test *model.Test) error
	FindByID(id uint) (*model.Test, error)
	FindByIDWithQuestions(id uint) (*model.Test, error)
	FindAllByCreator(creatorID uint) ([]model.Test, error)
	FindPublished(now time.Time) ([]model.Test, error)
	Update(test *model.Test) error
	ReplaceQuestions(test *model.Test, questions []model.Question) error
	Delete(id uint) error
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(test *model.Test) error {
	// Creates associated questions in the same insert.
	return r.db.Create(test).Error
}

func (r *testRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(id uint) (*model.Test, error) {
	var test model.Test
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order_in_test ASC")
	}).First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindAllByCreator(creatorID uint) ([]model.Test, error) {
	var tests []model.Test
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order_in_test ASC")
	}).Where("created_by_id = ?", creatorID).Order("created_at DESC").Find(&tests).Error
	return tests, err
}

func (r *testRepository) FindPublished(now time.Time) ([]model.Test, error) {
	var tests []model.Test
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order_in_test ASC")
	}).
		Where("is_published = ?", true).
		Where("scheduled_at IS NULL OR scheduled_at <= ?", now).
		Where("expires_at IS NULL OR expires_at >= ?", now).
		Order("created_at DESC").
		Find(&tests).Error
	return tests, err
}

func (r *testRepository) Update(test *model.Test) error {
	return r.db.Save(test).Error
}

// ReplaceQuestions swaps the full question list and saves the test (with its
// recomputed totals) in one transaction.
func (r *testRepository) ReplaceQuestions(test *model.Test, questions []model.Question) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("test_id = ?", test.ID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		test.Questions = questions
		test.RecalculateTotalPoints()
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(test).Error
	})
}

// Delete removes the test and cascades over its results and their answers.
func (r *testRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var resultIDs []uint
		if err := tx.Model(&model.Result{}).Where("test_id = ?", id).Pluck("id", &resultIDs).Error; err != nil {
			return err
		}
		if len(resultIDs) > 0 {
			// Results go unscoped: a soft-deleted result would still occupy
			// its attempt-number index slot.
			if err := tx.Unscoped().Where("result_id IN ?", resultIDs).Delete(&model.Answer{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", resultIDs).Delete(&model.Result{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("test_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Test{}, id).Error
	})
}
