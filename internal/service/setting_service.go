package service

import (
	"sort"
	"strings"
	"time"

	"quizsmith/internal/model"
	"quizsmith/internal/util"
	"quizsmith/pkg/logger"

	"go.uber.org/zap"
)

// SettingService 管理员配置。只记录选择，不会切换运行中进程的存储后端
type SettingService struct {
	Store    SettingStore
	Defaults map[string]string
}

func NewSettingService(store SettingStore, defaults map[string]string) *SettingService {
	return &SettingService{Store: store, Defaults: defaults}
}

// List 返回所有已知配置项，未保存过的项使用当前运行配置作为默认值
func (s *SettingService) List() ([]model.AdminSetting, error) {
	stored, err := s.Store.List()
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]model.AdminSetting, len(stored))
	for _, setting := range stored {
		byKey[setting.Key] = setting
	}

	keys := make([]string, 0, len(model.AllowedSettingValues))
	for key := range model.AllowedSettingValues {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]model.AdminSetting, 0, len(keys))
	for _, key := range keys {
		if setting, ok := byKey[key]; ok {
			out = append(out, setting)
			continue
		}
		out = append(out, model.AdminSetting{Key: key, Value: s.Defaults[key]})
	}
	return out, nil
}

// Update 批量保存配置，先全部校验再写入
func (s *SettingService) Update(caller Caller, values map[string]string) ([]model.AdminSetting, error) {
	verr := &util.ValidationError{}
	if len(values) == 0 {
		verr.Add("settings", "at least one setting is required")
	}
	for key, value := range values {
		allowed, ok := model.AllowedSettingValues[key]
		if !ok {
			verr.Add(key, "unknown setting")
			continue
		}
		if !contains(allowed, value) {
			verr.Add(key, "must be one of: "+strings.Join(allowed, " "))
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := time.Now()
	for key, value := range values {
		setting := &model.AdminSetting{Key: key, Value: value, UpdatedBy: caller.UserID, CreatedAt: now, UpdatedAt: now}
		if err := s.Store.Upsert(setting); err != nil {
			return nil, err
		}
		logger.Log.Info("Admin setting updated",
			zap.String("key", key),
			zap.String("value", value),
			zap.Uint("userID", caller.UserID))
	}
	return s.List()
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
