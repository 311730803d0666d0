package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"quizsmith/internal/model"
	"quizsmith/internal/quizdoc"
	"quizsmith/internal/service"
	"quizsmith/internal/util"
	"quizsmith/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TestController struct {
	TestService    *service.TestService
	PreviewService *service.PreviewService
	DraftService   *service.DraftService
}

func NewTestController(testService *service.TestService, previewService *service.PreviewService, draftService *service.DraftService) *TestController {
	return &TestController{
		TestService:    testService,
		PreviewService: previewService,
		DraftService:   draftService,
	}
}

// TestDraftKey 编辑已保存测验时使用的草稿 key
func TestDraftKey(testID string) string {
	return "test:" + testID
}

// TestDetail 测验详情。服务端数据始终是返回主体，草稿单独附带，由编辑器决定是否恢复
type TestDetail struct {
	*model.Test
	Draft      *service.Draft `json:"draft,omitempty"`
	DraftNewer bool           `json:"draftNewer"`
}

// MutationRequest 批量修改请求
type MutationRequest struct {
	Mutations []quizdoc.Mutation `json:"mutations" binding:"required,min=1,dive"`
}

// ListTests godoc
// @Summary 我的测验
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /tests [get]
func (c *TestController) ListTests(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	page, limit := util.ParsePage(ctx)
	tests, total, err := c.TestService.List(caller, page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  tests,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetTest godoc
// @Summary 测验详情
// @Description 返回服务端保存的测验，存在草稿时一并返回草稿及其是否更新
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response{data=TestDetail}
// @Failure 403 {object} util.Response "不是测验所有者"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	test, err := c.TestService.Get(caller, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	detail := TestDetail{Test: test}
	draft, err := c.DraftService.Get(ctx.Request.Context(), caller, TestDraftKey(test.ID))
	switch {
	case err == nil:
		detail.Draft = draft
		detail.DraftNewer = draft.UpdatedAt.After(test.UpdatedAt)
	case !errors.Is(err, util.ErrNotFound):
		logger.Log.Warn("Failed to load draft", zap.String("testID", test.ID), zap.Error(err))
	}

	util.Success(ctx, detail)
}

// CreateTest godoc
// @Summary 创建测验
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.TestInput true "测验内容"
// @Success 201 {object} util.Response{data=model.Test}
// @Failure 400 {object} util.Response "字段校验失败"
// @Router /tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var input service.TestInput
	if !bindJSON(ctx, &input) {
		return
	}

	test, err := c.TestService.Create(caller, input)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, test)
}

// UpdateTest godoc
// @Summary 修改测验
// @Description 只修改请求中出现的字段；保存成功后清除该测验的草稿
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Param body body service.TestInput true "需要修改的字段"
// @Success 200 {object} util.Response{data=model.Test}
// @Failure 400 {object} util.Response "字段校验失败"
// @Failure 403 {object} util.Response "不是测验所有者"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /tests/{id} [put]
func (c *TestController) UpdateTest(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var input service.TestInput
	if !bindJSON(ctx, &input) {
		return
	}

	test, err := c.TestService.Update(caller, ctx.Param("id"), input)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	c.discardDraft(ctx, caller, test.ID)
	util.Success(ctx, test)
}

// DeleteTest godoc
// @Summary 删除测验
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "不是测验所有者"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /tests/{id} [delete]
func (c *TestController) DeleteTest(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	if err := c.TestService.Delete(caller, id); err != nil {
		util.HandleError(ctx, err)
		return
	}

	c.discardDraft(ctx, caller, id)
	util.Success(ctx, nil)
}

// ApplyMutations godoc
// @Summary 批量修改题目
// @Description 按顺序执行编辑操作并保存，任一操作非法时整批不生效
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Param body body MutationRequest true "修改列表"
// @Success 200 {object} util.Response{data=service.MutationResult}
// @Failure 400 {object} util.Response "修改不合法"
// @Failure 403 {object} util.Response "不是测验所有者"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /tests/{id}/mutations [post]
func (c *TestController) ApplyMutations(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var req MutationRequest
	if !bindJSON(ctx, &req) {
		return
	}

	result, err := c.TestService.ApplyMutations(caller, ctx.Param("id"), req.Mutations)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// EmbedSnippet godoc
// @Summary 嵌入代码
// @Description 生成指向公开播放页的 iframe 代码
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Success 200 {object} util.Response{data=object}
// @Failure 403 {object} util.Response "不是测验所有者"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /tests/{id}/embed [get]
func (c *TestController) EmbedSnippet(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	test, err := c.TestService.Get(caller, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"playerUrl": c.PreviewService.PublicBaseURL + "/play/" + test.ID,
		"snippet":   c.PreviewService.EmbedSnippet(test.ID),
	})
}

// ExportTest godoc
// @Summary 导出独立 HTML
// @Tags 测验
// @Produce html
// @Security ApiKeyAuth
// @Param id path string true "测验ID"
// @Success 200 {string} string "HTML 文件"
// @Failure 403 {object} util.Response "不是测验所有者"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /tests/{id}/export [get]
func (c *TestController) ExportTest(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	test, err := c.TestService.Get(caller, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	html, err := c.PreviewService.RenderTest(ctx.Request.Context(), service.PurposeExport, test)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	filename := test.Name
	if filename == "" {
		filename = test.ID
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"quiz.html\"; filename*=UTF-8''%s.html", url.PathEscape(filename)))
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (c *TestController) discardDraft(ctx *gin.Context, caller service.Caller, testID string) {
	if err := c.DraftService.Discard(ctx.Request.Context(), caller, TestDraftKey(testID)); err != nil {
		logger.Log.Warn("Failed to discard draft", zap.String("testID", testID), zap.Error(err))
	}
}
