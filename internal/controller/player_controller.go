package controller

import (
	"errors"
	"net/http"

	"quizsmith/internal/render"
	"quizsmith/internal/service"
	"quizsmith/internal/util"
	"quizsmith/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PlayerController struct {
	TestService    *service.TestService
	PreviewService *service.PreviewService
}

func NewPlayerController(testService *service.TestService, previewService *service.PreviewService) *PlayerController {
	return &PlayerController{TestService: testService, PreviewService: previewService}
}

func isNotFound(err error) bool {
	return errors.Is(err, util.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

func htmlPage(ctx *gin.Context, status int, html string) {
	ctx.Data(status, "text/html; charset=utf-8", []byte(html))
}

// Play godoc
// @Summary 测验播放页
// @Description 公开访问，可被任意站点通过 iframe 嵌入
// @Tags 播放
// @Produce html
// @Param id path string true "测验ID"
// @Success 200 {string} string "HTML"
// @Failure 404 {string} string "测验不存在"
// @Router /play/{id} [get]
func (c *PlayerController) Play(ctx *gin.Context) {
	test, err := c.TestService.GetPublic(ctx.Param("id"))
	if err != nil {
		if isNotFound(err) {
			htmlPage(ctx, http.StatusNotFound, render.Diagnostic("Quiz not found"))
			return
		}
		logger.Log.Error("Failed to load quiz for player", zap.String("testID", ctx.Param("id")), zap.Error(err))
		htmlPage(ctx, http.StatusInternalServerError, render.Diagnostic("Something went wrong"))
		return
	}

	html, err := c.PreviewService.RenderTest(ctx.Request.Context(), service.PurposePlayer, test)
	if err != nil {
		var verr *util.ValidationError
		if errors.As(err, &verr) {
			htmlPage(ctx, http.StatusOK, render.Diagnostic("This quiz's template is incomplete"))
			return
		}
		logger.Log.Error("Failed to render quiz for player", zap.String("testID", test.ID), zap.Error(err))
		htmlPage(ctx, http.StatusInternalServerError, render.Diagnostic("Something went wrong"))
		return
	}

	ctx.Header("Content-Security-Policy", SandboxCSP+"; frame-ancestors *")
	htmlPage(ctx, http.StatusOK, html)
}
