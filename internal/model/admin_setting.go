package model

import "time"

const (
	SettingStorageBackend = "storage_backend"
	SettingAssetStorage   = "asset_storage"
)

// AdminSetting 部署配置键值对，仅记录管理员的选择，不会重新配置运行中的进程
type AdminSetting struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedBy uint      `json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AdminSetting) TableName() string {
	return "admin_settings"
}

// AllowedSettingValues 每个配置项允许的取值
var AllowedSettingValues = map[string][]string{
	SettingStorageBackend: {"mysql", "postgres", "sqlite"},
	SettingAssetStorage:   {"local", "minio", "oss"},
}
