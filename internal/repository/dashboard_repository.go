package repository

import (
	"quizsmith/internal/model"

	"gorm.io/gorm"
)

type DashboardRepository struct {
	DB *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

// RecentTests 用户最近修改的测验
func (r *DashboardRepository) RecentTests(userID uint, limit int) ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&tests).Error
	return tests, err
}

// TemplatesByCreator 用户创建的模板数
func (r *DashboardRepository) TemplatesByCreator(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.PageTemplate{}).Where("creator_id = ?", userID).Count(&count).Error
	return count, err
}

// TemplateUsage 各模板被当前用户测验使用的次数
func (r *DashboardRepository) TemplateUsage(userID uint) (map[string]int64, error) {
	var rows []struct {
		TemplateID string
		Uses       int64
	}
	err := r.DB.Model(&model.Test{}).
		Select("template_id, COUNT(*) AS uses").
		Where("user_id = ? AND template_id IS NOT NULL", userID).
		Group("template_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	usage := make(map[string]int64, len(rows))
	for _, row := range rows {
		usage[row.TemplateID] = row.Uses
	}
	return usage, nil
}
