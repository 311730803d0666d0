package controller

import (
	"quizsmith/internal/service"
	"quizsmith/internal/util"

	"github.com/gin-gonic/gin"
)

type SettingController struct {
	SettingService *service.SettingService
}

func NewSettingController(settingService *service.SettingService) *SettingController {
	return &SettingController{SettingService: settingService}
}

// UpdateSettingsRequest 配置项 key -> 值
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// GetSettings godoc
// @Summary 部署配置
// @Description 存储后端等配置项；修改只被记录，不会影响运行中的服务
// @Tags 管理员
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.AdminSetting}
// @Failure 403 {object} util.Response "非管理员"
// @Router /admin/settings [get]
func (c *SettingController) GetSettings(ctx *gin.Context) {
	settings, err := c.SettingService.List()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// UpdateSettings godoc
// @Summary 保存部署配置
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body UpdateSettingsRequest true "配置项"
// @Success 200 {object} util.Response{data=[]model.AdminSetting}
// @Failure 400 {object} util.Response "取值不合法"
// @Failure 403 {object} util.Response "非管理员"
// @Router /admin/settings [post]
func (c *SettingController) UpdateSettings(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if !bindJSON(ctx, &req) {
		return
	}

	settings, err := c.SettingService.Update(caller, req.Settings)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}
