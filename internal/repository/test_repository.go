package repository

import (
	"quizsmith/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Create(test).Error
}

func (r *TestRepository) FindByID(id string) (*model.Test, error) {
	var test model.Test
	err := r.DB.Where("id = ?", id).First(&test).Error
	return &test, err
}

// ListByUser 分页查询用户自己的测验，按更新时间倒序
func (r *TestRepository) ListByUser(userID uint, page, limit int) ([]model.Test, int64, error) {
	var tests []model.Test
	var total int64

	query := r.DB.Model(&model.Test{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&tests).Error
	return tests, total, err
}

func (r *TestRepository) Update(test *model.Test) error {
	return r.DB.Save(test).Error
}

func (r *TestRepository) Delete(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Test{}).Error
}

func (r *TestRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Test{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
