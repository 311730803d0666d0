package controller

import (
	"net/http"

	"quizsmith/internal/render"
	"quizsmith/internal/service"
	"quizsmith/internal/util"

	"github.com/gin-gonic/gin"
)

// SandboxCSP 直接打开渲染结果时使用的 CSP，与预览 iframe 的 sandbox 权限一致
const SandboxCSP = "sandbox " + render.SandboxFlags

type PreviewController struct {
	PreviewService *service.PreviewService
}

func NewPreviewController(previewService *service.PreviewService) *PreviewController {
	return &PreviewController{PreviewService: previewService}
}

// Preview godoc
// @Summary 渲染预览
// @Description 渲染编辑器中未保存的内容，返回完整 HTML 和沙箱 iframe 代码
// @Tags 预览
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.PreviewRequest true "编辑器内容"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "模板缺少必需槽位"
// @Router /preview [post]
func (c *PreviewController) Preview(ctx *gin.Context) {
	var req service.PreviewRequest
	if !bindJSON(ctx, &req) {
		return
	}

	html, err := c.PreviewService.Render(ctx.Request.Context(), service.PurposePreview, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"html":   html,
		"iframe": render.PreviewIframe(html),
	})
}

// CreatePopout godoc
// @Summary 全屏预览
// @Description 渲染后暂存，返回只能打开一次的短时链接
// @Tags 预览
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.PreviewRequest true "编辑器内容"
// @Success 201 {object} util.Response{data=service.Popout}
// @Failure 400 {object} util.Response "模板缺少必需槽位"
// @Router /preview/popout [post]
func (c *PreviewController) CreatePopout(ctx *gin.Context) {
	var req service.PreviewRequest
	if !bindJSON(ctx, &req) {
		return
	}

	html, err := c.PreviewService.Render(ctx.Request.Context(), service.PurposePopout, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	popout, err := c.PreviewService.CreatePopout(ctx.Request.Context(), html)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, popout)
}

// ServePopout godoc
// @Summary 打开全屏预览
// @Description 返回暂存的 HTML 并立即删除
// @Tags 预览
// @Produce html
// @Param token path string true "预览令牌"
// @Success 200 {string} string "HTML"
// @Failure 404 {string} string "已打开或已过期"
// @Router /preview/{token} [get]
func (c *PreviewController) ServePopout(ctx *gin.Context) {
	html, err := c.PreviewService.TakePopout(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		if isNotFound(err) {
			ctx.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(render.Diagnostic("This preview has expired")))
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	ctx.Header("Content-Security-Policy", SandboxCSP)
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// LivePreview godoc
// @Summary 实时预览
// @Description websocket，每帧发送编辑器内容，返回渲染结果
// @Tags 预览
// @Param token query string true "JWT"
// @Router /ws/preview [get]
func (c *PreviewController) LivePreview(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}
	c.PreviewService.ServeLivePreview(ctx.Writer, ctx.Request, caller.UserID)
}
