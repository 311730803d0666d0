package repository

import (
	"quizsmith/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminSettingRepository struct {
	DB *gorm.DB
}

func NewAdminSettingRepository(db *gorm.DB) *AdminSettingRepository {
	return &AdminSettingRepository{DB: db}
}

func (r *AdminSettingRepository) List() ([]model.AdminSetting, error) {
	var settings []model.AdminSetting
	err := r.DB.Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&settings).Error
	return settings, err
}

func (r *AdminSettingRepository) Get(key string) (*model.AdminSetting, error) {
	var setting model.AdminSetting
	err := r.DB.Where(&model.AdminSetting{Key: key}).First(&setting).Error
	return &setting, err
}

// Upsert 按 key 写入或覆盖配置值
func (r *AdminSettingRepository) Upsert(setting *model.AdminSetting) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(setting).Error
}
