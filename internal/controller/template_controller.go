package controller

import (
	"quizsmith/internal/repository"
	"quizsmith/internal/service"
	"quizsmith/internal/util"

	"github.com/gin-gonic/gin"
)

const maxPreviewImageSize = 5 << 20

type TemplateController struct {
	TemplateService *service.TemplateService
}

func NewTemplateController(templateService *service.TemplateService) *TemplateController {
	return &TemplateController{TemplateService: templateService}
}

// ListTemplates godoc
// @Summary 模板列表
// @Description 所有作者共享的页面模板库
// @Tags 模板
// @Produce json
// @Security ApiKeyAuth
// @Param keyword query string false "名称或描述关键字"
// @Param tag query string false "标签"
// @Success 200 {object} util.Response{data=[]service.TemplateView}
// @Router /templates [get]
func (c *TemplateController) ListTemplates(ctx *gin.Context) {
	templates, err := c.TemplateService.List(repository.TemplateFilter{
		Keyword: ctx.Query("keyword"),
		Tag:     ctx.Query("tag"),
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	views := make([]service.TemplateView, len(templates))
	for i := range templates {
		views[i] = service.NewTemplateView(&templates[i])
	}
	util.Success(ctx, views)
}

// GetTemplate godoc
// @Summary 模板详情
// @Tags 模板
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "模板ID"
// @Success 200 {object} util.Response{data=service.TemplateView}
// @Failure 404 {object} util.Response "模板不存在"
// @Router /templates/{id} [get]
func (c *TemplateController) GetTemplate(ctx *gin.Context) {
	tpl, err := c.TemplateService.Get(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, service.NewTemplateView(tpl))
}

// CreateTemplate godoc
// @Summary 创建模板
// @Tags 模板
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.TemplateInput true "模板内容"
// @Success 201 {object} util.Response{data=service.TemplateView}
// @Failure 400 {object} util.Response "字段校验失败"
// @Router /templates [post]
func (c *TemplateController) CreateTemplate(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var input service.TemplateInput
	if !bindJSON(ctx, &input) {
		return
	}

	tpl, err := c.TemplateService.Create(caller, input)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, service.NewTemplateView(tpl))
}

// UpdateTemplate godoc
// @Summary 修改模板
// @Description 只有创建者或管理员可以修改
// @Tags 模板
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "模板ID"
// @Param body body service.TemplateInput true "需要修改的字段"
// @Success 200 {object} util.Response{data=service.TemplateView}
// @Failure 403 {object} util.Response "无权修改"
// @Failure 404 {object} util.Response "模板不存在"
// @Router /templates/{id} [put]
func (c *TemplateController) UpdateTemplate(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var input service.TemplateInput
	if !bindJSON(ctx, &input) {
		return
	}

	tpl, err := c.TemplateService.Update(caller, ctx.Param("id"), input)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, service.NewTemplateView(tpl))
}

// DeleteTemplate godoc
// @Summary 删除模板
// @Description 模板仍被测验引用时拒绝删除
// @Tags 模板
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "模板ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "无权删除"
// @Failure 404 {object} util.Response "模板不存在"
// @Failure 409 {object} util.Response "模板被引用"
// @Router /templates/{id} [delete]
func (c *TemplateController) DeleteTemplate(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	if err := c.TemplateService.Delete(caller, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadPreviewImage godoc
// @Summary 上传模板预览图
// @Tags 模板
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "模板ID"
// @Param file formData file true "图片文件"
// @Success 200 {object} util.Response{data=service.TemplateView}
// @Failure 400 {object} util.Response "文件不合法"
// @Router /templates/{id}/preview-image [post]
func (c *TemplateController) UploadPreviewImage(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		util.ValidationFailed(ctx, map[string]string{"file": "is required"})
		return
	}
	if header.Size > maxPreviewImageSize {
		util.ValidationFailed(ctx, map[string]string{"file": "must be at most 5MB"})
		return
	}

	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	contentType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		util.ValidationFailed(ctx, map[string]string{"file": "must be an image"})
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	tpl, err := c.TemplateService.UploadPreviewImage(ctx.Request.Context(), caller, ctx.Param("id"), header.Filename, file, header.Size, contentType)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, service.NewTemplateView(tpl))
}
