package repository

import (
	"errors"

	"quizsmith/internal/model"
	"quizsmith/internal/util"

	"gorm.io/gorm"
)

type PageTemplateRepository struct {
	DB *gorm.DB
}

func NewPageTemplateRepository(db *gorm.DB) *PageTemplateRepository {
	return &PageTemplateRepository{DB: db}
}

// TemplateFilter 模板列表过滤条件
type TemplateFilter struct {
	Keyword string
	Tag     string
}

func (r *PageTemplateRepository) Create(tpl *model.PageTemplate) error {
	return r.DB.Create(tpl).Error
}

func (r *PageTemplateRepository) FindByID(id string) (*model.PageTemplate, error) {
	var tpl model.PageTemplate
	err := r.DB.Where("id = ?", id).First(&tpl).Error
	return &tpl, err
}

func (r *PageTemplateRepository) FindByName(name string) (*model.PageTemplate, error) {
	var tpl model.PageTemplate
	err := r.DB.Where("name = ?", name).First(&tpl).Error
	return &tpl, err
}

func (r *PageTemplateRepository) List(filter TemplateFilter) ([]model.PageTemplate, error) {
	var templates []model.PageTemplate
	query := r.DB.Model(&model.PageTemplate{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if filter.Tag != "" {
		// 标签以逗号分隔存储，需要按位置精确匹配
		t := filter.Tag
		query = query.Where("tags = ? OR tags LIKE ? OR tags LIKE ? OR tags LIKE ?", t, t+",%", "%,"+t, "%,"+t+",%")
	}

	err := query.Order("created_at DESC").Find(&templates).Error
	return templates, err
}

func (r *PageTemplateRepository) Update(tpl *model.PageTemplate) error {
	return r.DB.Save(tpl).Error
}

func (r *PageTemplateRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.PageTemplate{}).Count(&count).Error
	return count, err
}

// CountReferencingTests 统计引用该模板的测验数
func (r *PageTemplateRepository) CountReferencingTests(tx *gorm.DB, id string) (int64, error) {
	var count int64
	err := tx.Model(&model.Test{}).Where("template_id = ?", id).Count(&count).Error
	return count, err
}

// DeleteUnreferenced 在同一事务内检查引用并删除模板；仍被引用时返回 ConflictError
func (r *PageTemplateRepository) DeleteUnreferenced(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var tpl model.PageTemplate
		if err := tx.Where("id = ?", id).First(&tpl).Error; err != nil {
			return err
		}

		count, err := r.CountReferencingTests(tx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return util.NewConflictError("template %q is used by %d test(s); reassign or delete them first", tpl.Name, count)
		}

		err = tx.Delete(&tpl).Error
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return util.NewConflictError("template %q is still used by a test; reassign or delete it first", tpl.Name)
		}
		return err
	})
}
