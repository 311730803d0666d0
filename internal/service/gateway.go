package service

import (
	"quizsmith/internal/model"
	"quizsmith/internal/repository"
)

// TemplateStore 模板持久化接口，由 repository.PageTemplateRepository 实现
type TemplateStore interface {
	Create(tpl *model.PageTemplate) error
	FindByID(id string) (*model.PageTemplate, error)
	List(filter repository.TemplateFilter) ([]model.PageTemplate, error)
	Update(tpl *model.PageTemplate) error
	DeleteUnreferenced(id string) error
}

// TestStore 测验持久化接口，由 repository.TestRepository 实现。
// 所有权校验在服务层完成，接口本身不区分调用者。
type TestStore interface {
	Create(test *model.Test) error
	FindByID(id string) (*model.Test, error)
	ListByUser(userID uint, page, limit int) ([]model.Test, int64, error)
	Update(test *model.Test) error
	Delete(id string) error
}

// SettingStore 管理员配置持久化接口
type SettingStore interface {
	List() ([]model.AdminSetting, error)
	Upsert(setting *model.AdminSetting) error
}

// Caller 请求方身份，从 JWT 中解析
type Caller struct {
	UserID uint
	Role   model.UserRole
}

func (c Caller) IsAdmin() bool {
	return c.Role == model.Admin
}

var (
	_ TemplateStore = (*repository.PageTemplateRepository)(nil)
	_ TestStore     = (*repository.TestRepository)(nil)
	_ SettingStore  = (*repository.AdminSettingRepository)(nil)
)
